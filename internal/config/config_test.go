package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"negative rate limit", func(c *Config) { c.HTTP.RateLimitPerMin = -1 }, "rate_limit_per_min"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "memcached" }, "database.driver"},
		{"missing addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"negative dimensions", func(c *Config) { c.Embedding.Dimensions = -1 }, "embedding.dimensions"},
		{"negative cache ttl", func(c *Config) { c.Embedding.CacheTTLHours = -1 }, "cache_ttl_hours"},
		{"tagging without key", func(c *Config) { c.Tagging.Enabled = true }, "tagging.api_key"},
		{"negative pool", func(c *Config) { c.Ranking.CandidatePoolSize = -5 }, "candidate_pool_size"},
		{"negative decay", func(c *Config) { c.Ranking.DecayPerHour = -0.1 }, "decay_per_hour"},
		{"negative window", func(c *Config) { c.Ranking.TrendingWindowDays = -1 }, "ranking limits"},
		{"api keys without admin", func(c *Config) { c.Auth.APIKeys = []string{"k"} }, "auth.admin_keys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{APIKey: "emb-key", BaseURL: "https://llm.example/v1/"}}
	cfg.ApplyDefaults()

	assert.Equal(t, 10, cfg.HTTP.ReadTimeoutSec)
	assert.Equal(t, 10, cfg.HTTP.WriteTimeoutSec)
	assert.Equal(t, 10, cfg.HTTP.ShutdownSec)
	assert.Equal(t, "valkey", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Database.ReadinessTimeout)
	assert.Equal(t, "knowsphere:", cfg.Storage.KeyPrefix)
	assert.Equal(t, 5, cfg.Embedding.TimeoutSec)
	assert.Equal(t, "emb-key", cfg.Tagging.APIKey)
	assert.Equal(t, "https://llm.example/v1/", cfg.Tagging.BaseURL)
	assert.Equal(t, 5, cfg.Tagging.MaxTags)
	assert.Equal(t, 20, cfg.Ranking.RelatedLimit)
	assert.Equal(t, 50, cfg.Ranking.TrendingLimit)
	assert.InDelta(t, 0.05, cfg.Ranking.DecayPerHour, 1e-12)
	assert.Equal(t, 7, cfg.Ranking.TrendingWindowDays)
	assert.Equal(t, 5, cfg.Breaker.ConsecutiveFailures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.OpenTimeout())
	assert.True(t, cfg.Embedding.Enabled())
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Storage: StorageConfig{KeyPrefix: "ks-test:"},
		Tagging: TaggingConfig{APIKey: "tag-key", MaxTags: 3},
		Ranking: RankingConfig{DecayPerHour: 0.2, TrendingWindowDays: 30},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "ks-test:", cfg.Storage.KeyPrefix)
	assert.Equal(t, "tag-key", cfg.Tagging.APIKey)
	assert.Equal(t, 3, cfg.Tagging.MaxTags)
	assert.InDelta(t, 0.2, cfg.Ranking.DecayPerHour, 1e-12)
	assert.Equal(t, 30, cfg.Ranking.TrendingWindowDays)
	assert.False(t, cfg.Embedding.Enabled())
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("KS_TEST_PORT", "9090")
	t.Setenv("KS_TEST_ADMIN", "")

	cfg, err := Parse([]byte(`
http:
  port: ${KS_TEST_PORT}
database:
  driver: redis
  addrs: ["localhost:6379"]
auth:
  api_keys: ["reader"]
  admin_keys: ["${KS_TEST_ADMIN:-root}"]
ranking:
  candidate_pool_size: 250
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "redis", cfg.Database.Driver)
	assert.Equal(t, []string{"root"}, cfg.Auth.AdminKeys)
	assert.Equal(t, 250, cfg.Ranking.CandidatePoolSize)
	assert.Equal(t, "knowsphere:", cfg.Storage.KeyPrefix)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http: [not a map"))
	require.Error(t, err)

	_, err = Parse([]byte("http:\n  port: 8080\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.addrs")
}
