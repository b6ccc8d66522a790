package pivotlog

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
	addrs    []string
	password string

	owner string

	embedder Embedder
	answerer Answerer

	semanticMinSimilarity float64
	hybridMinScore        float64
	askMinSimilarity      float64

	backfillInterval time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithOwner sets the owner scope for all operations.
// Defaults to "default".
func WithOwner(owner string) Option {
	return optionFunc(func(c *clientConfig) {
		c.owner = owner
	})
}

// WithEmbedder sets the text embedding provider.
// Required for semantic search and embedding backfill.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithAnswerer sets the answer synthesis provider used by Ask.
func WithAnswerer(a Answerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.answerer = a
	})
}

// WithThresholds overrides the default minimum scores per search mode.
// Defaults: semantic 0.5, hybrid 0.3, ask 0.3.
func WithThresholds(semanticMinSimilarity, hybridMinScore, askMinSimilarity float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.semanticMinSimilarity = semanticMinSimilarity
		c.hybridMinScore = hybridMinScore
		c.askMinSimilarity = askMinSimilarity
	})
}

// WithBackfillInterval sets the delay between embedding calls during backfill.
// Default: 100ms.
func WithBackfillInterval(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.backfillInterval = d
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
