package infra

import (
	"time"
)

const (
	// Standard backoff constants
	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// Backoff computes exponential reconnect delays.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff is 1s doubling up to 60s.
func DefaultBackoff() Backoff {
	return Backoff{Base: baseDelay, Max: maxDelay}
}

// Delay returns Base * 2^retryCount, capped at Max.
// If retryCount is negative, it returns Base.
func (b Backoff) Delay(retryCount int) time.Duration {
	if retryCount < 0 {
		return b.Base
	}

	// 2^30 seconds already exceeds any sane cap; stop shifting early.
	if retryCount > 30 {
		return b.Max
	}

	backoff := b.Base * time.Duration(1<<retryCount)

	if backoff > b.Max || backoff <= 0 {
		return b.Max
	}

	return backoff
}
