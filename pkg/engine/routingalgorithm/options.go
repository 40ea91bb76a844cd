package routingalgorithm

// DefaultStepLimit caps state expansions of a single search.
const DefaultStepLimit = 1_000_000

// the context is polled every ctxCheckInterval expansions
const ctxCheckInterval = 1024

type searchConfig struct {
	stepLimit         int
	withoutTurnAround bool
}

type SearchOption func(*searchConfig)

// WithStepLimit overrides DefaultStepLimit, n <= 0 removes the limit.
func WithStepLimit(n int) SearchOption {
	return func(c *searchConfig) {
		c.stepLimit = n
	}
}

// WithoutTurnAround forbids leaving a node over an edge that leads straight back
// to where the arrival edge came from (A-B-A), so routes cannot dodge turn
// restrictions by turning around in the middle of the road.
func WithoutTurnAround() SearchOption {
	return func(c *searchConfig) {
		c.withoutTurnAround = true
	}
}

func newSearchConfig(opts []SearchOption) searchConfig {
	cfg := searchConfig{stepLimit: DefaultStepLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
