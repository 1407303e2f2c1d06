package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the knowsphere API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Tagging   TaggingConfig   `yaml:"tagging"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
// Admin keys are accepted everywhere; API keys are rejected on /admin routes.
type AuthConfig struct {
	APIKeys   []string `yaml:"api_keys"`
	AdminKeys []string `yaml:"admin_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`

	CORSOrigins     []string `yaml:"cors_origins"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"` // 0 = unlimited
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings. An empty APIKey disables
// embeddings: insights are stored without vectors and rank on tags alone.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	TimeoutSec          int    `yaml:"timeout_sec"`
	CacheTTLHours       int    `yaml:"cache_ttl_hours"` // 0 = no expiry
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool { return e.APIKey != "" }

// Timeout returns the per-request embedding timeout.
func (e EmbeddingConfig) Timeout() time.Duration { return time.Duration(e.TimeoutSec) * time.Second }

// CacheTTL returns the embedding cache expiry.
func (e EmbeddingConfig) CacheTTL() time.Duration { return time.Duration(e.CacheTTLHours) * time.Hour }

// TaggingConfig holds AI tag suggestion settings. APIKey and BaseURL fall back
// to the embedding provider's.
type TaggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	MaxTags    int    `yaml:"max_tags"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Timeout returns the per-request tagging timeout.
func (t TaggingConfig) Timeout() time.Duration { return time.Duration(t.TimeoutSec) * time.Second }

// RankingConfig holds related and trending ranking settings.
type RankingConfig struct {
	RelatedLimit       int     `yaml:"related_limit"`
	TrendingLimit      int     `yaml:"trending_limit"`
	DecayPerHour       float64 `yaml:"decay_per_hour"`
	TrendingWindowDays int     `yaml:"trending_window_days"`
	CandidatePoolSize  int     `yaml:"candidate_pool_size"` // 0 = all stored insights
}

// BreakerConfig holds circuit breaker settings for the AI providers.
type BreakerConfig struct {
	ConsecutiveFailures int `yaml:"consecutive_failures"`
	OpenTimeoutSec      int `yaml:"open_timeout_sec"`
}

// OpenTimeout returns how long a tripped breaker stays open.
func (b BreakerConfig) OpenTimeout() time.Duration {
	return time.Duration(b.OpenTimeoutSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it and applies defaults and validation.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "knowsphere:"
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 5
	}

	if c.Tagging.APIKey == "" {
		c.Tagging.APIKey = c.Embedding.APIKey
	}
	if c.Tagging.BaseURL == "" {
		c.Tagging.BaseURL = c.Embedding.BaseURL
	}
	if c.Tagging.Model == "" {
		c.Tagging.Model = "gpt-4o-mini"
	}
	if c.Tagging.MaxTags <= 0 {
		c.Tagging.MaxTags = 5
	}
	if c.Tagging.TimeoutSec <= 0 {
		c.Tagging.TimeoutSec = 3
	}

	if c.Ranking.RelatedLimit == 0 {
		c.Ranking.RelatedLimit = 20
	}
	if c.Ranking.TrendingLimit == 0 {
		c.Ranking.TrendingLimit = 50
	}
	if c.Ranking.DecayPerHour == 0 {
		c.Ranking.DecayPerHour = 0.05
	}
	if c.Ranking.TrendingWindowDays == 0 {
		c.Ranking.TrendingWindowDays = 7
	}

	if c.Breaker.ConsecutiveFailures <= 0 {
		c.Breaker.ConsecutiveFailures = 5
	}
	if c.Breaker.OpenTimeoutSec <= 0 {
		c.Breaker.OpenTimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RateLimitPerMin < 0 {
		return fmt.Errorf("http.rate_limit_per_min must not be negative, got %d", c.HTTP.RateLimitPerMin)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.CacheTTLHours < 0 {
		return fmt.Errorf("embedding.cache_ttl_hours must not be negative, got %d", c.Embedding.CacheTTLHours)
	}
	if c.Tagging.Enabled && c.Tagging.APIKey == "" {
		return fmt.Errorf("tagging.api_key (or embedding.api_key) is required when tagging is enabled")
	}
	if c.Ranking.DecayPerHour < 0 {
		return fmt.Errorf("ranking.decay_per_hour must not be negative, got %g", c.Ranking.DecayPerHour)
	}
	if c.Ranking.RelatedLimit < 0 || c.Ranking.TrendingLimit < 0 || c.Ranking.TrendingWindowDays < 0 {
		return fmt.Errorf("ranking limits and window must not be negative")
	}
	if c.Ranking.CandidatePoolSize < 0 {
		return fmt.Errorf("ranking.candidate_pool_size must not be negative, got %d", c.Ranking.CandidatePoolSize)
	}
	if hasKey(c.Auth.APIKeys) && !hasKey(c.Auth.AdminKeys) {
		return fmt.Errorf("auth.admin_keys is required when auth.api_keys is set")
	}
	return nil
}

func hasKey(keys []string) bool {
	for _, k := range keys {
		if k != "" {
			return true
		}
	}
	return false
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
