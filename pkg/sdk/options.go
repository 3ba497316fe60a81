package cpfvariants

import (
	"log/slog"

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
	maxChanges    int
	workers       int
	progressEvery int
	yieldEvery    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMaxChanges sets the highest number of changed digits searched by
// default (1-3). Default: 3.
func WithMaxChanges(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxChanges = k
	})
}

// WithWorkers evaluates change sets on n goroutines. Results are identical
// to a sequential search. Default: 1.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithProgressEvery sets how many candidates pass between progress reports.
// Default: 250.
func WithProgressEvery(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.progressEvery = n
	})
}

// WithYieldEvery sets how many candidates pass between cancellation checks.
// Default: 2000.
func WithYieldEvery(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.yieldEvery = n
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

// SearchOption narrows a single search.
type SearchOption func(*searchConfig)

type searchConfig struct {
	maxChanges int
	state      string
	digits     []uint8
	progress   func(Progress)
}

// UpTo overrides the client's highest number of changed digits.
func UpTo(k int) SearchOption {
	return func(c *searchConfig) {
		c.maxChanges = k
	}
}

// InState keeps only variants whose region digit belongs to the state.
// "ANY" or "" means unrestricted.
func InState(uf string) SearchOption {
	return func(c *searchConfig) {
		c.state = uf
	}
}

// WithRegionDigits keeps only variants with one of the given region digits.
// Combined with InState, the allowed digits are the union of both.
func WithRegionDigits(digits ...uint8) SearchOption {
	return func(c *searchConfig) {
		c.digits = append(c.digits, digits...)
	}
}

// OnProgress receives progress snapshots. The callback runs on the search
// goroutine; a panic in it is logged and the search continues.
func OnProgress(fn func(Progress)) SearchOption {
	return func(c *searchConfig) {
		c.progress = fn
	}
}
