package deploytheory

import "fmt"

// Error codes returned by intent validation.
const (
	ErrorCodeCertificateSource = "deploy.certificate_source"
	ErrorCodeDomainConfig      = "deploy.domain_config"
	ErrorCodeCapacityBounds    = "deploy.capacity_bounds"
	ErrorCodeSizing            = "deploy.sizing"
	ErrorCodeApplicationName   = "deploy.application_name"
	ErrorCodeExposedPort       = "deploy.exposed_port"
	ErrorCodeHealthCheckPath   = "deploy.health_check_path"
	ErrorCodeManifest          = "deploy.manifest"
)

// ConfigurationError is a typed, client-safe configuration failure with a
// stable error code. It is raised before any resource is declared; a failed
// resolution declares nothing.
type ConfigurationError struct {
	Code    string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func configErrorf(code, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Code: code, Message: fmt.Sprintf(format, args...)}
}
