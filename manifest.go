package deploytheory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceRepo identifies the source-control location a pipeline checks out.
// The OAuth token is read from Secrets Manager at pipeline execution time,
// never stored in the manifest.
type SourceRepo struct {
	Owner           string `yaml:"owner"`
	Repo            string `yaml:"repo"`
	Branch          string `yaml:"branch"`
	TokenSecretName string `yaml:"tokenSecretName"`
}

func (s *SourceRepo) applyDefaults() {
	if s.Branch == "" {
		s.Branch = "main"
	}
	if s.TokenSecretName == "" {
		s.TokenSecretName = "github-token"
	}
}

// Validate checks the fields a pipeline cannot default.
func (s SourceRepo) Validate() error {
	if s.Owner == "" || s.Repo == "" {
		return configErrorf(ErrorCodeManifest,
			"pipeline source requires owner and repo (owner=%q repo=%q)", s.Owner, s.Repo)
	}
	return nil
}

// BackendEntry pairs a backend deployment intent with an optional pipeline.
type BackendEntry struct {
	DeploymentIntent `yaml:",inline"`
	Pipeline         *SourceRepo `yaml:"pipeline"`
}

// WebsiteEntry pairs a website intent with an optional pipeline.
type WebsiteEntry struct {
	WebsiteIntent `yaml:",inline"`
	Pipeline      *SourceRepo `yaml:"pipeline"`
	BuildCommands []string    `yaml:"buildCommands"`
}

// Manifest is the YAML file the synth CLI consumes. One manifest describes
// every stack of an environment.
type Manifest struct {
	Environment string         `yaml:"environment"`
	Account     string         `yaml:"account"`
	Region      string         `yaml:"region"`
	Backends    []BackendEntry `yaml:"backends"`
	Websites    []WebsiteEntry `yaml:"websites"`
}

// LoadManifest reads and validates a manifest file. Intents are left raw;
// defaulting happens in ResolveIntent so the merge stays observable.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes manifest YAML and applies pipeline-level defaults.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, configErrorf(ErrorCodeManifest, "decode manifest: %v", err)
	}
	if len(m.Backends) == 0 && len(m.Websites) == 0 {
		return nil, configErrorf(ErrorCodeManifest, "manifest declares no backends or websites")
	}
	for i := range m.Backends {
		if m.Backends[i].ApplicationName == "" {
			return nil, configErrorf(ErrorCodeManifest, "backends[%d] is missing a name", i)
		}
		if p := m.Backends[i].Pipeline; p != nil {
			p.applyDefaults()
			if err := p.Validate(); err != nil {
				return nil, err
			}
		}
	}
	for i := range m.Websites {
		if m.Websites[i].SiteName == "" {
			return nil, configErrorf(ErrorCodeManifest, "websites[%d] is missing a name", i)
		}
		if p := m.Websites[i].Pipeline; p != nil {
			p.applyDefaults()
			if err := p.Validate(); err != nil {
				return nil, err
			}
		}
	}
	return &m, nil
}
