package scoring

import "time"

// Config holds the Scoring Engine's tunables (§4.4).
type Config struct {
	// BatchSize is the number of candidates grouped per scoring request.
	// Default: 6.
	BatchSize int

	// InterRequestDelay is the minimum delay enforced between requests
	// (skipped before the first batch). Default: 1.5s.
	InterRequestDelay time.Duration

	// MaxCooldownThreshold is the retry-after ceiling above which the
	// engine stops and spills state instead of waiting. Default: 60s.
	MaxCooldownThreshold time.Duration

	// Temperature is the sampling temperature sent to the remote model.
	// Default: 0.2.
	Temperature float64

	// PreFilterCount is how many candidates survive the heuristic
	// pre-filter before scoring. Default: 20.
	PreFilterCount int

	// CircuitBreakerThreshold is the number of consecutive failures of a
	// scorer backend that opens its circuit breaker. After the breaker's
	// 30s reset timeout the backend is probed again; it is not disabled for
	// the rest of the run. The Engine does not read this field: the breakers
	// live in the FallbackGroup passed to [NewEngine]. Default: 3.
	CircuitBreakerThreshold int

	// MaxRetries is the retry budget for transient per-batch failures.
	// Default: 2.
	MaxRetries int

	// PerAttemptTimeout bounds a single remote call's wall-clock time.
	// Default: 120s.
	PerAttemptTimeout time.Duration

	// MinPromptChars is the minimum accepted prompt template length
	// (§4.8). Default: 10.
	MinPromptChars int

	// PromptTemplate is the validated prompt template embedded in every
	// batch request alongside the candidate segments.
	PromptTemplate string

	// Credential is the remote scorer's API credential. Required unless
	// only the local scorer is used.
	Credential string
}

// WithDefaults returns a copy of cfg with zero-value fields replaced by the
// spec's documented defaults.
func (c Config) WithDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 6
	}
	if c.InterRequestDelay <= 0 {
		c.InterRequestDelay = 1500 * time.Millisecond
	}
	if c.MaxCooldownThreshold <= 0 {
		c.MaxCooldownThreshold = 60 * time.Second
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.PreFilterCount <= 0 {
		c.PreFilterCount = 20
	}
	if c.CircuitBreakerThreshold <= 0 {
		c.CircuitBreakerThreshold = 3
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.PerAttemptTimeout <= 0 {
		c.PerAttemptTimeout = 120 * time.Second
	}
	if c.MinPromptChars <= 0 {
		c.MinPromptChars = 10
	}
	return c
}
