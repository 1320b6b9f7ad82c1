// Package deploytheory resolves deployment intents into the inputs consumed
// by the CDK constructs in cdk/. Resolution is a pure, synchronous computation:
// it performs no I/O, declares no resources, and either yields an effective
// intent or fails with a ConfigurationError.
package deploytheory

import (
	"fmt"
	"strings"
)

// CertificateSource selects exactly one of the two TLS certificate paths for
// a public endpoint. The two variants are mutually exclusive; resolution fails
// when neither can be derived from the supplied domain configuration.
type CertificateSource interface {
	isCertificateSource()
}

// NewCertificate requests a freshly issued certificate for DomainName,
// validated through DNS ownership records placed in the hosted zone named
// ZoneName. An alias record for the endpoint is declared in the same zone.
type NewCertificate struct {
	// DomainName is either a bare label ("api") resolved against ZoneName,
	// or a fully qualified name already ending in ZoneName.
	DomainName string
	ZoneName   string
	// HostedZoneID optionally pins the zone so no runtime lookup is needed.
	HostedZoneID string
}

// ExistingCertificate binds the endpoint to a certificate that was issued
// outside this stack. No DNS records are declared; external DNS is the
// caller's responsibility.
type ExistingCertificate struct {
	Arn string
}

func (NewCertificate) isCertificateSource()      {}
func (ExistingCertificate) isCertificateSource() {}

// FQDN joins DomainName and ZoneName unless DomainName is already fully
// qualified within the zone.
func (c NewCertificate) FQDN() string {
	name := strings.TrimSuffix(c.DomainName, ".")
	zone := strings.TrimSuffix(c.ZoneName, ".")
	if name == zone || strings.HasSuffix(name, "."+zone) {
		return name
	}
	return name + "." + zone
}

// DomainConfig is the raw, manifest-facing domain input. ResolveCertificateSource
// turns it into a CertificateSource variant or a ConfigurationError.
type DomainConfig struct {
	DomainName     string `yaml:"domainName"`
	ZoneName       string `yaml:"zoneName"`
	HostedZoneID   string `yaml:"hostedZoneId"`
	CertificateArn string `yaml:"certificateArn"`
}

// ResolveCertificateSource maps a DomainConfig onto exactly one certificate
// path. It fails when the inputs are under-specified, naming all three
// mutually exclusive inputs and their values so the caller can see which
// combination was supplied.
func ResolveCertificateSource(cfg DomainConfig) (CertificateSource, error) {
	hasDomain := cfg.DomainName != ""
	hasZone := cfg.ZoneName != ""
	hasArn := cfg.CertificateArn != ""

	switch {
	case hasArn && (hasDomain || hasZone):
		return nil, configErrorf(ErrorCodeCertificateSource,
			"certificateArn is mutually exclusive with domainName/zoneName (domainName=%q zoneName=%q certificateArn=%q)",
			cfg.DomainName, cfg.ZoneName, cfg.CertificateArn)
	case hasArn:
		return ExistingCertificate{Arn: cfg.CertificateArn}, nil
	case hasDomain && hasZone:
		return NewCertificate{
			DomainName:   cfg.DomainName,
			ZoneName:     cfg.ZoneName,
			HostedZoneID: cfg.HostedZoneID,
		}, nil
	case hasDomain != hasZone:
		return nil, configErrorf(ErrorCodeDomainConfig,
			"domainName and zoneName must be supplied together (domainName=%q zoneName=%q certificateArn=%q)",
			cfg.DomainName, cfg.ZoneName, cfg.CertificateArn)
	default:
		return nil, configErrorf(ErrorCodeCertificateSource,
			"either domainName+zoneName or certificateArn is required (domainName=%q zoneName=%q certificateArn=%q)",
			cfg.DomainName, cfg.ZoneName, cfg.CertificateArn)
	}
}

// Sizing is the compute allocation for one replica of the deployable unit.
type Sizing struct {
	CPUUnits  int `yaml:"cpu"`
	MemoryMiB int `yaml:"memory"`
}

// Capacity bounds the service's replica count. Minimum is an explicit field
// rather than a silent platform default.
type Capacity struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Grant names a downstream service the task may call. Each enabled grant
// becomes one broad allow statement scoped to the service's action prefix;
// callers needing least-privilege narrow it externally.
type Grant string

const (
	GrantStorage Grant = "storage"
	GrantTables  Grant = "tables"
	GrantQueues  Grant = "queues"
	GrantTopics  Grant = "topics"
)

// AccessGrants is the set of downstream-service permission toggles.
// None are enabled by default.
type AccessGrants struct {
	Storage bool `yaml:"storage"`
	Tables  bool `yaml:"tables"`
	Queues  bool `yaml:"queues"`
	Topics  bool `yaml:"topics"`
}

// Enabled returns the active grants in a fixed order so that resolution is
// deterministic for a given intent.
func (g AccessGrants) Enabled() []Grant {
	var grants []Grant
	if g.Storage {
		grants = append(grants, GrantStorage)
	}
	if g.Tables {
		grants = append(grants, GrantTables)
	}
	if g.Queues {
		grants = append(grants, GrantQueues)
	}
	if g.Topics {
		grants = append(grants, GrantTopics)
	}
	return grants
}

// DeploymentIntent describes what a containerized backend deployment should
// look like. Zero values mean "use the default"; ResolveIntent produces the
// fully defaulted EffectiveIntent.
type DeploymentIntent struct {
	ApplicationName string       `yaml:"name"`
	Domain          DomainConfig `yaml:"domain"`
	Sizing          Sizing       `yaml:"sizing"`
	ContainerImage  string       `yaml:"image"`
	ExposedPort     int          `yaml:"port"`
	HealthCheckPath string       `yaml:"healthCheckPath"`
	AccessGrants    AccessGrants `yaml:"grants"`
	Capacity        Capacity     `yaml:"capacity"`
}

// EffectiveIntent is a fully defaulted, validated DeploymentIntent. It is
// immutable once resolved; constructs read from it and never write back.
type EffectiveIntent struct {
	ApplicationName   string
	CertificateSource CertificateSource
	Sizing            Sizing
	ContainerImage    string
	ExposedPort       int
	HealthCheckPath   string
	AccessGrants      AccessGrants
	Capacity          Capacity
}

func (e *EffectiveIntent) validate() error {
	if e.ApplicationName == "" {
		return configErrorf(ErrorCodeApplicationName, "applicationName is required")
	}
	if e.CertificateSource == nil {
		return configErrorf(ErrorCodeCertificateSource, "no certificate source resolved")
	}
	if e.Sizing.CPUUnits <= 0 || e.Sizing.MemoryMiB <= 0 {
		return configErrorf(ErrorCodeSizing,
			"cpu and memory must be positive (cpu=%d memory=%d)", e.Sizing.CPUUnits, e.Sizing.MemoryMiB)
	}
	if e.ExposedPort <= 0 || e.ExposedPort > 65535 {
		return configErrorf(ErrorCodeExposedPort, "exposedPort %d out of range", e.ExposedPort)
	}
	if e.Capacity.Min < 1 || e.Capacity.Min > e.Capacity.Max {
		return configErrorf(ErrorCodeCapacityBounds,
			"capacity bounds require 1 <= min <= max (min=%d max=%d)", e.Capacity.Min, e.Capacity.Max)
	}
	if !strings.HasPrefix(e.HealthCheckPath, "/") {
		return configErrorf(ErrorCodeHealthCheckPath,
			"healthCheckPath must start with / (got %q)", e.HealthCheckPath)
	}
	return nil
}

// String identifies the intent for logs without leaking the full config.
func (e *EffectiveIntent) String() string {
	return fmt.Sprintf("intent(%s port=%d replicas=%d..%d)",
		e.ApplicationName, e.ExposedPort, e.Capacity.Min, e.Capacity.Max)
}
