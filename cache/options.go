package cache

import "github.com/prometheus/client_golang/prometheus"

// Option configures store behavior using the functional options pattern.
type Option func(*storeOptions)

// storeOptions holds internal configuration for store instances.
// Stats are ALWAYS collected; Prometheus export is optional via WithMetrics.
type storeOptions struct {
	metricsReg    prometheus.Registerer
	metricsPrefix string
}

// WithMetrics enables Prometheus export for store statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics(registry prometheus.Registerer, prefix string) Option {
	return func(opts *storeOptions) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// applyOptions applies functional options to create final store configuration.
func applyOptions(options ...Option) *storeOptions {
	opts := &storeOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
