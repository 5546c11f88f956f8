// Package limiter provides token-bucket rate limiting and concurrency caps
// for generative model calls.
package limiter

import (
	"fmt"
	"sync"
	"time"
)

var (
	// ErrRateLimit is returned when token rate limits are exceeded.
	ErrRateLimit = fmt.Errorf("rate limit exceeded")
	// ErrConcurrencyLimit is returned when the concurrent call cap is reached.
	ErrConcurrencyLimit = fmt.Errorf("concurrency limit exceeded")
)

// Limiter enforces a tokens-per-minute budget and a concurrent-call cap for
// one generative provider. The token bucket starts full and refills once per
// elapsed minute.
type Limiter struct {
	mu              sync.Mutex
	tokensPerMinute int
	currentTokens   int
	maxConcurrent   int
	inFlight        int
	lastRefill      time.Time
}

func NewLimiter(tokensPerMinute, maxConcurrent int) *Limiter {
	return &Limiter{
		tokensPerMinute: tokensPerMinute,
		currentTokens:   tokensPerMinute,
		maxConcurrent:   maxConcurrent,
		lastRefill:      time.Now(),
	}
}

// Reserve attempts to take tokens from the bucket.
func (l *Limiter) Reserve(tokens int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()

	if l.currentTokens < tokens {
		return ErrRateLimit
	}
	l.currentTokens -= tokens
	return nil
}

// Acquire claims a concurrent-call slot. Callers must Release when done.
func (l *Limiter) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight >= l.maxConcurrent {
		return ErrConcurrencyLimit
	}
	l.inFlight++
	return nil
}

// Release frees a concurrent-call slot.
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight > 0 {
		l.inFlight--
	}
}

// Status returns the remaining tokens and in-flight call count.
func (l *Limiter) Status() (tokens, inFlight int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.currentTokens, l.inFlight
}

func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill)

	if elapsed >= time.Minute {
		minutes := int(elapsed / time.Minute)
		l.currentTokens += minutes * l.tokensPerMinute
		if l.currentTokens > l.tokensPerMinute {
			l.currentTokens = l.tokensPerMinute
		}
		l.lastRefill = l.lastRefill.Add(time.Duration(minutes) * time.Minute)
	}
}
