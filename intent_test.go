package deploytheory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCertificateSource(t *testing.T) {
	tests := []struct {
		name     string
		cfg      DomainConfig
		want     CertificateSource
		wantCode string
	}{
		{
			name: "domain plus zone issues a new certificate",
			cfg:  DomainConfig{DomainName: "api", ZoneName: "example.com"},
			want: NewCertificate{DomainName: "api", ZoneName: "example.com"},
		},
		{
			name: "existing arn binds without dns",
			cfg:  DomainConfig{CertificateArn: "arn:aws:acm:us-east-1:111122223333:certificate/abc"},
			want: ExistingCertificate{Arn: "arn:aws:acm:us-east-1:111122223333:certificate/abc"},
		},
		{
			name:     "nothing supplied",
			cfg:      DomainConfig{},
			wantCode: ErrorCodeCertificateSource,
		},
		{
			name:     "domain without zone",
			cfg:      DomainConfig{DomainName: "api"},
			wantCode: ErrorCodeDomainConfig,
		},
		{
			name:     "zone without domain",
			cfg:      DomainConfig{ZoneName: "example.com"},
			wantCode: ErrorCodeDomainConfig,
		},
		{
			name:     "arn and domain are mutually exclusive",
			cfg:      DomainConfig{DomainName: "api", ZoneName: "example.com", CertificateArn: "arn:x"},
			wantCode: ErrorCodeCertificateSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCertificateSource(tt.cfg)
			if tt.wantCode != "" {
				var cfgErr *ConfigurationError
				require.Error(t, err)
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, tt.wantCode, cfgErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCertificateSourceErrorNamesInputs(t *testing.T) {
	_, err := ResolveCertificateSource(DomainConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domainName")
	assert.Contains(t, err.Error(), "zoneName")
	assert.Contains(t, err.Error(), "certificateArn")
}

func TestNewCertificateFQDN(t *testing.T) {
	tests := []struct {
		domain string
		zone   string
		want   string
	}{
		{"api", "example.com", "api.example.com"},
		{"api.example.com", "example.com", "api.example.com"},
		{"example.com", "example.com", "example.com"},
		{"api.", "example.com.", "api.example.com"},
	}
	for _, tt := range tests {
		got := NewCertificate{DomainName: tt.domain, ZoneName: tt.zone}.FQDN()
		if got != tt.want {
			t.Fatalf("FQDN(%q,%q)=%q, want %q", tt.domain, tt.zone, got, tt.want)
		}
	}
}

func TestAccessGrantsEnabledOrder(t *testing.T) {
	grants := AccessGrants{Topics: true, Storage: true, Queues: true, Tables: true}
	assert.Equal(t, []Grant{GrantStorage, GrantTables, GrantQueues, GrantTopics}, grants.Enabled())
	assert.Empty(t, AccessGrants{}.Enabled())
}

func TestResolveWebsiteIntent(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		got, err := ResolveWebsiteIntent(WebsiteIntent{SiteName: "docs"})
		require.NoError(t, err)
		assert.Equal(t, WebsiteTypeStatic, got.Type)
		assert.Equal(t, "index.html", got.IndexDocument)
		assert.Equal(t, "error.html", got.ErrorDocument)
		assert.Nil(t, got.CertificateSource)
	})

	t.Run("custom domain", func(t *testing.T) {
		got, err := ResolveWebsiteIntent(WebsiteIntent{
			SiteName: "docs",
			Domain:   DomainConfig{DomainName: "docs", ZoneName: "example.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, NewCertificate{DomainName: "docs", ZoneName: "example.com"}, got.CertificateSource)
	})

	t.Run("underspecified domain fails", func(t *testing.T) {
		_, err := ResolveWebsiteIntent(WebsiteIntent{
			SiteName: "docs",
			Domain:   DomainConfig{DomainName: "docs"},
		})
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
	})

	t.Run("unknown type fails", func(t *testing.T) {
		_, err := ResolveWebsiteIntent(WebsiteIntent{SiteName: "docs", Type: "wordpress"})
		require.Error(t, err)
	})

	t.Run("missing name fails", func(t *testing.T) {
		_, err := ResolveWebsiteIntent(WebsiteIntent{})
		require.Error(t, err)
	})
}
