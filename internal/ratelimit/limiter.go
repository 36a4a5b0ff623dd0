// Package ratelimit throttles MCP tool calls with per-key token buckets.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is returned when a call has no token left.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter keeps one token bucket per key. All buckets share a refill
// rate and capacity. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // capacity and starting tokens
	nowFunc func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLimiter refills rate tokens per second up to burst.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute is NewLimiter with the rate given in calls per minute.
func PerMinute(n float64, burst int) *Limiter {
	return NewLimiter(n/60, burst)
}

// Allow takes a token from key's bucket and reports whether one was there.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), last: now}
		l.buckets[key] = b
	}
	if dt := now.Sub(b.last).Seconds(); dt > 0 {
		b.tokens = min(b.tokens+l.rate*dt, float64(l.burst))
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// ToolLimiters maps MCP tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters returns the limits used by the neurofig MCP server.
// Rendering is the only tool that writes files, so it is the tightest.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"neurofig_list":    PerMinute(120, 20),
		"neurofig_render":  PerMinute(30, 5),
		"neurofig_history": PerMinute(60, 10),
	}
}

// Check spends a token for tool. A non-empty key gives the caller its own
// bucket inside the tool's limit, e.g. one per figure. Tools without a
// limiter always pass.
func (t ToolLimiters) Check(tool, key string) error {
	l, ok := t[tool]
	if !ok {
		return nil
	}
	bucketKey := tool
	if key != "" {
		bucketKey += ":" + key
	}
	if !l.Allow(bucketKey) {
		return fmt.Errorf("%s: %w, try again shortly", tool, ErrLimited)
	}
	return nil
}
