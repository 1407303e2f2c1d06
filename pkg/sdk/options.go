package knowsphere

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string
	db       int

	keyPrefix string

	embedder     Embedder
	embedTimeout time.Duration
	tagger       Tagger
	tagTimeout   time.Duration
	maxTags      int

	ranking RankingOptions

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

const defaultKeyPrefix = "knowsphere:"

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithDB selects a logical database number.
func WithDB(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = n
	})
}

// WithKeyPrefix namespaces every stored key. Default: "knowsphere:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEmbedder sets the text embedding provider and the per-call timeout
// (0 = no timeout).
func WithEmbedder(e Embedder, timeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.embedTimeout = timeout
	})
}

// WithTagger sets the AI tag provider and the per-call timeout (0 = no timeout).
// Without it tags are always suggested by keyword extraction.
func WithTagger(t Tagger, timeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.tagger = t
		c.tagTimeout = timeout
	})
}

// WithMaxTags caps the number of suggested tags. Default: 5.
func WithMaxTags(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTags = n
	})
}

// WithRanking overrides ranking defaults.
func WithRanking(r RankingOptions) Option {
	return optionFunc(func(c *clientConfig) {
		c.ranking = r
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
