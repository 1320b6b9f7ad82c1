package deploytheory

// WebsiteType selects how a website's pipeline treats the checked-out source.
type WebsiteType string

const (
	// WebsiteTypeStatic means the repository already contains the final
	// assets; the pipeline ships them as-is with no build stage.
	WebsiteTypeStatic WebsiteType = "static"
	// WebsiteTypeSinglePage means the repository needs a build stage before
	// its output can be deployed.
	WebsiteTypeSinglePage WebsiteType = "spa"
)

// WebsiteIntent describes a static-website hosting stack. A custom domain is
// optional; when any domain input is set the same mutually exclusive
// certificate rules as for backends apply.
type WebsiteIntent struct {
	SiteName      string       `yaml:"name"`
	Domain        DomainConfig `yaml:"domain"`
	Type          WebsiteType  `yaml:"type"`
	IndexDocument string       `yaml:"indexDocument"`
	ErrorDocument string       `yaml:"errorDocument"`
}

// EffectiveWebsiteIntent is a fully defaulted, validated WebsiteIntent.
// CertificateSource is nil when no custom domain was requested; the CDN then
// serves traffic on its default domain.
type EffectiveWebsiteIntent struct {
	SiteName          string
	CertificateSource CertificateSource
	Type              WebsiteType
	IndexDocument     string
	ErrorDocument     string
}

// ResolveWebsiteIntent defaults and validates a website intent.
func ResolveWebsiteIntent(intent WebsiteIntent) (*EffectiveWebsiteIntent, error) {
	if intent.SiteName == "" {
		return nil, configErrorf(ErrorCodeApplicationName, "site name is required")
	}

	effective := &EffectiveWebsiteIntent{
		SiteName:      intent.SiteName,
		Type:          intent.Type,
		IndexDocument: intent.IndexDocument,
		ErrorDocument: intent.ErrorDocument,
	}
	if effective.Type == "" {
		effective.Type = WebsiteTypeStatic
	}
	if effective.Type != WebsiteTypeStatic && effective.Type != WebsiteTypeSinglePage {
		return nil, configErrorf(ErrorCodeManifest, "unknown website type %q", intent.Type)
	}
	if effective.IndexDocument == "" {
		effective.IndexDocument = "index.html"
	}
	if effective.ErrorDocument == "" {
		effective.ErrorDocument = "error.html"
	}

	if intent.Domain != (DomainConfig{}) {
		source, err := ResolveCertificateSource(intent.Domain)
		if err != nil {
			return nil, err
		}
		effective.CertificateSource = source
	}
	return effective, nil
}
