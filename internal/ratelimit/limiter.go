package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bytecroft/crewmeter/internal/monitoring"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimitPerMin   int // IP-based rate limit per minute
	BurstMultiplier int // Burst capacity multiplier
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:   60,
		BurstMultiplier: 2,
	}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides in-memory token bucket rate limiting keyed by client IP.
type RateLimiter struct {
	config  Config
	metrics *monitoring.Metrics

	mu       sync.Mutex
	limiters map[string]*limiterEntry
}

// NewRateLimiter creates a new in-memory rate limiter
func NewRateLimiter(config Config, metrics *monitoring.Metrics) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		metrics:  metrics,
		limiters: make(map[string]*limiterEntry),
	}

	go rl.cleanupLimiters()

	return rl
}

// AllowIP checks if an IP address is allowed to make a request (per-minute limit)
func (rl *RateLimiter) AllowIP(ip string) *Result {
	return rl.allow("ip:"+ip, rl.config.IPLimitPerMin, time.Minute)
}

// allow performs a token bucket check for the given key
func (rl *RateLimiter) allow(key string, limit int, period time.Duration) *Result {
	rl.mu.Lock()
	entry, exists := rl.limiters[key]
	if !exists {
		rps := rate.Limit(float64(limit) / period.Seconds())
		burst := limit * rl.config.BurstMultiplier
		if burst < 5 {
			burst = 5
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(rps, burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	limiter := entry.limiter
	rl.mu.Unlock()

	allowed := limiter.Allow()

	tokens := limiter.Tokens()
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(period),
	}

	if !allowed {
		result.RetryAfter = time.Until(result.ResetAt)
	}

	return result
}

// cleanupLimiters periodically removes limiters that have been idle
func (rl *RateLimiter) cleanupLimiters() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-30 * time.Minute)

		rl.mu.Lock()
		before := len(rl.limiters)
		for key, entry := range rl.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(rl.limiters, key)
			}
		}
		removed := before - len(rl.limiters)
		rl.mu.Unlock()

		if removed > 0 {
			slog.Info("Cleaned up idle rate limiters", "removed", removed)
		}
	}
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	count := len(rl.limiters)
	rl.mu.Unlock()

	return map[string]interface{}{
		"active_limiters":  count,
		"ip_limit_per_min": rl.config.IPLimitPerMin,
	}
}
