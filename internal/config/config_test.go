package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("EVALUATION_AGGREGATE_MODE", "")
	t.Setenv("AUTH0_TIMEOUT", "not-a-duration")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-3")

	cfg := Load()

	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, AggregateLegacy, cfg.AggregateMode)
	assert.Equal(t, "RS256", cfg.Auth0TokenSigningAlg)
	assert.Equal(t, 10*time.Second, cfg.Auth0Timeout)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.True(t, cfg.ContentFilterEnabled)
}

func TestIssuerAndJWKSURL(t *testing.T) {
	cfg := &Config{Auth0IssuerBaseURL: "https://tenant.auth0.com"}
	assert.Equal(t, "https://tenant.auth0.com/", cfg.Issuer())
	assert.Equal(t, "https://tenant.auth0.com/.well-known/jwks.json", cfg.JWKSURL())

	cfg.Auth0IssuerBaseURL = "https://tenant.auth0.com/"
	assert.Equal(t, "https://tenant.auth0.com/", cfg.Issuer())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreBackend:       BackendMongo,
			MongoURI:           "mongodb://localhost:27017",
			Auth0Domain:        "tenant.auth0.com",
			Auth0Audience:      "https://api.example.com",
			Auth0IssuerBaseURL: "https://tenant.auth0.com",
			S3Bucket:           "icons",
			AggregateMode:      AggregateTransition,
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "dynamo" }},
		{"postgres without password", func(c *Config) { c.StoreBackend = BackendPostgres }},
		{"missing audience", func(c *Config) { c.Auth0Audience = "" }},
		{"missing bucket", func(c *Config) { c.S3Bucket = "" }},
		{"unknown aggregate mode", func(c *Config) { c.AggregateMode = "eager" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
