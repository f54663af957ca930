package fuzzysuggest

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/analysis"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "elastic", "redis" or "memory"
	addrs    []string
	username string
	password string

	namespace string
	analysis  analysis.Options

	msm       string
	fuzziness int
	size      int

	queryTimeout      time.Duration
	retryAttempts     int
	retryInitial      time.Duration
	retryMax          time.Duration
	ingestConcurrency int
	visibilityTimeout time.Duration
	readinessTimeout  time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		namespace:         "cities",
		analysis:          analysis.Default(),
		msm:               "60%",
		fuzziness:         2,
		size:              10,
		readinessTimeout:  defaultReadinessTimeout,
		visibilityTimeout: 10 * time.Second,
	}
}

// WithElastic connects to an Elasticsearch cluster.
func WithElastic(addrs []string, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "elastic"
		c.addrs = addrs
		c.username = username
		c.password = password
	})
}

// WithRedis connects to a Redis 8+ instance with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory uses an in-process catalog. Data lives as long as the Client.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
	})
}

// WithNamespace sets the catalog namespace. Default: "cities".
func WithNamespace(ns string) Option {
	return optionFunc(func(c *clientConfig) {
		c.namespace = ns
	})
}

// WithAlphanumeric keeps digits in trigrams. Default: letters only.
func WithAlphanumeric() Option {
	return optionFunc(func(c *clientConfig) {
		c.analysis.CharClass = analysis.CharClassAlnum
	})
}

// WithMinimumShouldMatch sets the trigram overlap policy, e.g. "60%" or "2<-25% 9<-3".
// Default: "60%".
func WithMinimumShouldMatch(policy string) Option {
	return optionFunc(func(c *clientConfig) {
		c.msm = policy
	})
}

// WithFuzziness sets the completion edit distance (0 to 2). Default: 2.
func WithFuzziness(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.fuzziness = n
	})
}

// WithSize caps the number of completion options per query. Default: 10.
func WithSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.size = n
	})
}

// WithQueryTimeout bounds each query attempt. Default: 2s.
func WithQueryTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryTimeout = d
	})
}

// WithRetry configures retries of transient catalog failures.
// Default: 3 attempts, 50ms initial and 500ms max backoff.
func WithRetry(attempts int, initial, maxInterval time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.retryAttempts = attempts
		c.retryInitial = initial
		c.retryMax = maxInterval
	})
}

// WithIngestConcurrency bounds parallel writes during Ingest. Default: 8.
func WithIngestConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.ingestConcurrency = n
	})
}

// WithVisibilityTimeout bounds the wait for written records to become searchable.
// Default: 10s.
func WithVisibilityTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.visibilityTimeout = d
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
