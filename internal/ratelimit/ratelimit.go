// Package ratelimit implements provider daily-budget counters: each
// provider declares a daily_limit (0 = unlimited), and the registry
// keeps per-provider per-day counters in memory, reset on UTC date
// change. It replaces the per-class mutable counters of the original
// Python base provider with a single lock-protected map keyed by
// provider name, plus a token-bucket limiter for per-second API spacing.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// dailyCounter tracks calls made today against a daily budget.
type dailyCounter struct {
	limit       int
	callsToday  int
	lastResetAt string // UTC date string, e.g. "2026-07-30"
}

// Budgets is the process-wide, lock-protected map of per-provider daily
// counters.
type Budgets struct {
	mu       sync.Mutex
	counters map[string]*dailyCounter
}

// NewBudgets creates an empty registry. Providers register their daily
// limit the first time they check RateLimitOK/Track.
func NewBudgets() *Budgets {
	return &Budgets{counters: make(map[string]*dailyCounter)}
}

func todayUTC() string {
	return time.Now().UTC().Format("2006-01-02")
}

func (b *Budgets) counter(provider string, dailyLimit int) *dailyCounter {
	c, ok := b.counters[provider]
	if !ok {
		c = &dailyCounter{limit: dailyLimit, lastResetAt: todayUTC()}
		b.counters[provider] = c
	}
	today := todayUTC()
	if c.lastResetAt != today {
		c.callsToday = 0
		c.lastResetAt = today
	}
	return c
}

// RateLimitOK reports whether provider has remaining daily budget. A
// dailyLimit of 0 means unlimited.
func (b *Budgets) RateLimitOK(provider string, dailyLimit int) bool {
	if dailyLimit <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.counter(provider, dailyLimit)
	return c.callsToday < c.limit
}

// Track records one call against provider's daily budget.
func (b *Budgets) Track(provider string, dailyLimit int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.counter(provider, dailyLimit)
	c.callsToday++
}

// CallsToday returns how many calls have been tracked today for provider,
// for observability/testing.
func (b *Budgets) CallsToday(provider string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.counters[provider]
	if !ok {
		return 0
	}
	today := todayUTC()
	if c.lastResetAt != today {
		return 0
	}
	return c.callsToday
}

// PerSecondLimiter builds a token-bucket limiter enforcing a requests-
// per-second cap with a burst of one. No provider calls it: the SEC
// provider builds its own rate.Limiter with 120ms spacing.
func PerSecondLimiter(requestsPerSecond float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}
