package knowledge

import "time"

// Default search configuration.
const (
	DefaultTopK    = 5
	MaxTopK        = 20
	defaultTimeout = 10 * time.Second
)

// searchConfig holds resolved search parameters.
type searchConfig struct {
	topK    int32
	timeout time.Duration
}

// SearchOption customizes a single Search call.
type SearchOption func(*searchConfig)

// WithTopK sets the maximum number of results. Values outside [1, MaxTopK]
// are clamped rather than rejected; the store owns the bound.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k < 1 {
			return
		}
		if k > MaxTopK {
			k = MaxTopK
		}
		c.topK = int32(k)
	}
}

// WithTimeout overrides the per-search timeout.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// buildSearchConfig applies options over defaults.
func buildSearchConfig(opts []SearchOption) searchConfig {
	cfg := searchConfig{
		topK:    DefaultTopK,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
