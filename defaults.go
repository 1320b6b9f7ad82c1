package deploytheory

// Defaults is the explicit default configuration merged into a
// DeploymentIntent by ResolveIntent. Defaulting is a visible merge step, not
// a module-level constant, so it stays inspectable and testable in isolation.
type Defaults struct {
	Sizing          Sizing
	ContainerImage  string
	ExposedPort     int
	HealthCheckPath string
	Capacity        Capacity
}

// StandardDefaults returns the baseline defaults for backend deployments.
func StandardDefaults() Defaults {
	return Defaults{
		Sizing:          Sizing{CPUUnits: 512, MemoryMiB: 1024},
		ContainerImage:  "amazon/amazon-ecs-sample",
		ExposedPort:     80,
		HealthCheckPath: "/",
		Capacity:        Capacity{Min: 2, Max: 8},
	}
}

// ResolveIntent merges defaults into intent, resolves the certificate source,
// and validates the result. It is a pure function of its inputs: resolving the
// same intent twice yields equal effective intents.
func ResolveIntent(intent DeploymentIntent, defaults Defaults) (*EffectiveIntent, error) {
	source, err := ResolveCertificateSource(intent.Domain)
	if err != nil {
		return nil, err
	}

	effective := &EffectiveIntent{
		ApplicationName:   intent.ApplicationName,
		CertificateSource: source,
		Sizing:            intent.Sizing,
		ContainerImage:    intent.ContainerImage,
		ExposedPort:       intent.ExposedPort,
		HealthCheckPath:   intent.HealthCheckPath,
		AccessGrants:      intent.AccessGrants,
		Capacity:          intent.Capacity,
	}

	if effective.Sizing.CPUUnits == 0 {
		effective.Sizing.CPUUnits = defaults.Sizing.CPUUnits
	}
	if effective.Sizing.MemoryMiB == 0 {
		effective.Sizing.MemoryMiB = defaults.Sizing.MemoryMiB
	}
	if effective.ContainerImage == "" {
		effective.ContainerImage = defaults.ContainerImage
	}
	if effective.ExposedPort == 0 {
		effective.ExposedPort = defaults.ExposedPort
	}
	if effective.HealthCheckPath == "" {
		effective.HealthCheckPath = defaults.HealthCheckPath
	}
	if effective.Capacity.Min == 0 {
		effective.Capacity.Min = defaults.Capacity.Min
	}
	if effective.Capacity.Max == 0 {
		effective.Capacity.Max = defaults.Capacity.Max
	}

	if err := effective.validate(); err != nil {
		return nil, err
	}
	return effective, nil
}
