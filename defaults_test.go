package deploytheory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestResolveIntentDefaults(t *testing.T) {
	got, err := ResolveIntent(DeploymentIntent{
		ApplicationName: "svc",
		Domain:          DomainConfig{CertificateArn: "arn:example"},
	}, StandardDefaults())
	require.NoError(t, err)

	assert.Equal(t, Sizing{CPUUnits: 512, MemoryMiB: 1024}, got.Sizing)
	assert.Equal(t, "amazon/amazon-ecs-sample", got.ContainerImage)
	assert.Equal(t, 80, got.ExposedPort)
	assert.Equal(t, "/", got.HealthCheckPath)
	assert.Equal(t, Capacity{Min: 2, Max: 8}, got.Capacity)
}

func TestResolveIntentKeepsExplicitValues(t *testing.T) {
	got, err := ResolveIntent(DeploymentIntent{
		ApplicationName: "svc",
		Domain:          DomainConfig{CertificateArn: "arn:example"},
		Sizing:          Sizing{CPUUnits: 1024, MemoryMiB: 2048},
		ContainerImage:  "httpd",
		ExposedPort:     8080,
		HealthCheckPath: "/healthcheck.html",
		Capacity:        Capacity{Min: 3, Max: 12},
	}, StandardDefaults())
	require.NoError(t, err)

	assert.Equal(t, Sizing{CPUUnits: 1024, MemoryMiB: 2048}, got.Sizing)
	assert.Equal(t, "httpd", got.ContainerImage)
	assert.Equal(t, 8080, got.ExposedPort)
	assert.Equal(t, "/healthcheck.html", got.HealthCheckPath)
	assert.Equal(t, Capacity{Min: 3, Max: 12}, got.Capacity)
}

func TestResolveIntentValidation(t *testing.T) {
	valid := func() DeploymentIntent {
		return DeploymentIntent{
			ApplicationName: "svc",
			Domain:          DomainConfig{CertificateArn: "arn:example"},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*DeploymentIntent)
		wantCode string
	}{
		{
			name:     "missing name",
			mutate:   func(i *DeploymentIntent) { i.ApplicationName = "" },
			wantCode: ErrorCodeApplicationName,
		},
		{
			name:     "no certificate source",
			mutate:   func(i *DeploymentIntent) { i.Domain = DomainConfig{} },
			wantCode: ErrorCodeCertificateSource,
		},
		{
			name:     "min above max",
			mutate:   func(i *DeploymentIntent) { i.Capacity = Capacity{Min: 9, Max: 8} },
			wantCode: ErrorCodeCapacityBounds,
		},
		{
			name:     "negative min",
			mutate:   func(i *DeploymentIntent) { i.Capacity = Capacity{Min: -1, Max: 8} },
			wantCode: ErrorCodeCapacityBounds,
		},
		{
			name:     "negative cpu",
			mutate:   func(i *DeploymentIntent) { i.Sizing = Sizing{CPUUnits: -256, MemoryMiB: 512} },
			wantCode: ErrorCodeSizing,
		},
		{
			name:     "port out of range",
			mutate:   func(i *DeploymentIntent) { i.ExposedPort = 70000 },
			wantCode: ErrorCodeExposedPort,
		},
		{
			name:     "relative health check path",
			mutate:   func(i *DeploymentIntent) { i.HealthCheckPath = "health" },
			wantCode: ErrorCodeHealthCheckPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := valid()
			tt.mutate(&intent)
			_, err := ResolveIntent(intent, StandardDefaults())
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tt.wantCode, cfgErr.Code)
		})
	}
}

func genIntent() *rapid.Generator[DeploymentIntent] {
	return rapid.Custom(func(t *rapid.T) DeploymentIntent {
		intent := DeploymentIntent{
			ApplicationName: rapid.StringMatching(`[a-z][a-z0-9-]{0,15}`).Draw(t, "name"),
			ContainerImage:  rapid.SampledFrom([]string{"", "httpd", "nginx:1.27"}).Draw(t, "image"),
			ExposedPort:     rapid.SampledFrom([]int{0, 80, 443, 3000, 8080}).Draw(t, "port"),
			HealthCheckPath: rapid.SampledFrom([]string{"", "/", "/health"}).Draw(t, "path"),
			Sizing: Sizing{
				CPUUnits:  rapid.SampledFrom([]int{0, 256, 512, 1024}).Draw(t, "cpu"),
				MemoryMiB: rapid.SampledFrom([]int{0, 512, 1024, 2048}).Draw(t, "mem"),
			},
			AccessGrants: AccessGrants{
				Storage: rapid.Bool().Draw(t, "storage"),
				Tables:  rapid.Bool().Draw(t, "tables"),
				Queues:  rapid.Bool().Draw(t, "queues"),
				Topics:  rapid.Bool().Draw(t, "topics"),
			},
		}
		min := rapid.IntRange(0, 4).Draw(t, "min")
		intent.Capacity = Capacity{Min: min, Max: min + rapid.IntRange(0, 6).Draw(t, "spread")}
		if rapid.Bool().Draw(t, "useArn") {
			intent.Domain = DomainConfig{CertificateArn: "arn:example"}
		} else {
			intent.Domain = DomainConfig{
				DomainName: rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "sub"),
				ZoneName:   "example.com",
			}
		}
		return intent
	})
}

// Resolution is a pure function of its input: the same intent resolved twice
// yields equal effective intents, and succeeds or fails consistently.
func TestResolveIntentDeterministic(t *testing.T) {
	defaults := StandardDefaults()
	rapid.Check(t, func(t *rapid.T) {
		intent := genIntent().Draw(t, "intent")

		first, errFirst := ResolveIntent(intent, defaults)
		second, errSecond := ResolveIntent(intent, defaults)

		if (errFirst == nil) != (errSecond == nil) {
			t.Fatalf("non-deterministic outcome: %v vs %v", errFirst, errSecond)
		}
		if errFirst != nil {
			var cfgErr *ConfigurationError
			if !errors.As(errFirst, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", errFirst)
			}
			return
		}
		if *first != *second {
			t.Fatalf("resolution not stable:\n  first:  %+v\n  second: %+v", first, second)
		}
	})
}

// Every successfully resolved intent satisfies the documented invariants.
func TestResolveIntentInvariants(t *testing.T) {
	defaults := StandardDefaults()
	rapid.Check(t, func(t *rapid.T) {
		intent := genIntent().Draw(t, "intent")
		effective, err := ResolveIntent(intent, defaults)
		if err != nil {
			return
		}
		if effective.Capacity.Min < 1 || effective.Capacity.Min > effective.Capacity.Max {
			t.Fatalf("capacity bounds violated: %+v", effective.Capacity)
		}
		if effective.Sizing.CPUUnits <= 0 || effective.Sizing.MemoryMiB <= 0 {
			t.Fatalf("sizing not positive: %+v", effective.Sizing)
		}
		if effective.CertificateSource == nil {
			t.Fatal("resolved intent without certificate source")
		}
		switch effective.CertificateSource.(type) {
		case NewCertificate, ExistingCertificate:
		default:
			t.Fatalf("unexpected certificate source %T", effective.CertificateSource)
		}
	})
}
