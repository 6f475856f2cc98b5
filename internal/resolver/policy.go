package resolver

import "time"

const (
	// DefaultMaxAttempts is one initial fetch plus two retries.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the wait after the first failed attempt.
	DefaultBaseDelay = time.Second
	// DefaultAttemptTimeout bounds each catalog fetch.
	DefaultAttemptTimeout = 10 * time.Second
)

// RetryPolicy drives the fetch loop. Backoff grows linearly with the attempt number.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy returns 3 attempts, 1s/2s backoff and a 10s attempt timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    DefaultMaxAttempts,
		BaseDelay:      DefaultBaseDelay,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BaseDelay * time.Duration(attempt)
}

// CanRetry reports whether another attempt is allowed after attempt failed.
func (p RetryPolicy) CanRetry(attempt int) bool {
	return attempt < p.MaxAttempts
}

// WorstCase is the total latency of a resolution that fails every attempt by timeout.
func (p RetryPolicy) WorstCase() time.Duration {
	var total time.Duration
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		total += p.AttemptTimeout
		if p.CanRetry(attempt) {
			total += p.Backoff(attempt)
		}
	}
	return total
}

func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = def.AttemptTimeout
	}
	return p
}
