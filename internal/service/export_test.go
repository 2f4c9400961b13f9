package service

import "time"

// SetClock replaces the limiter's time source.
func (tb *TokenBucket) SetClock(now func() time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.now = now
}

// EvictIdle runs one sweep immediately.
func (tb *TokenBucket) EvictIdle() { tb.evictIdle() }
