package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bytecroft/crewmeter/internal/monitoring"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	config := Config{
		IPLimitPerMin:   5,
		BurstMultiplier: 1,
	}
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(config, metrics)

	// First 5 requests fit the burst capacity.
	for i := 0; i < 5; i++ {
		result := limiter.AllowIP("10.0.0.1")
		assert.True(t, result.Allowed, "Request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	// 6th request should be blocked
	result := limiter.AllowIP("10.0.0.1")
	assert.False(t, result.Allowed, "6th request should be blocked")
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestRateLimiterBurstCapacity(t *testing.T) {
	config := Config{
		IPLimitPerMin:   5,
		BurstMultiplier: 2,
	}
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(config, metrics)

	// With burst multiplier of 2, roughly 10 requests pass initially.
	allowedCount := 0
	for i := 0; i < 15; i++ {
		if limiter.AllowIP("10.0.0.2").Allowed {
			allowedCount++
		}
	}

	assert.GreaterOrEqual(t, allowedCount, 5, "Should allow at least limit amount")
	assert.LessOrEqual(t, allowedCount, 12, "Should not exceed burst + small margin")
}

func TestRateLimiterIndependentKeys(t *testing.T) {
	config := Config{
		IPLimitPerMin:   3,
		BurstMultiplier: 1,
	}
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(config, metrics)

	// Different IPs have independent buckets. Burst floor is 5.
	ips := []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"}

	for _, ip := range ips {
		for i := 0; i < 5; i++ {
			result := limiter.AllowIP(ip)
			assert.True(t, result.Allowed, "IP %s request %d should be allowed", ip, i+1)
		}

		result := limiter.AllowIP(ip)
		assert.False(t, result.Allowed, "IP %s 6th request should be blocked", ip)
	}
}

func TestRateLimiterStats(t *testing.T) {
	config := DefaultConfig()
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(config, metrics)

	limiter.AllowIP("10.0.0.3")
	limiter.AllowIP("10.0.0.4")

	stats := limiter.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, 60, stats["ip_limit_per_min"])
}

func TestRateLimiterEndpointKeysAreScoped(t *testing.T) {
	config := Config{
		IPLimitPerMin:   60,
		BurstMultiplier: 1,
	}
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(config, metrics)

	// Exhaust a tight endpoint bucket without touching the IP bucket.
	for i := 0; i < 5; i++ {
		limiter.allow("endpoint:evaluations:10.0.0.5", 5, time.Minute)
	}
	result := limiter.allow("endpoint:evaluations:10.0.0.5", 5, time.Minute)
	assert.False(t, result.Allowed)

	assert.True(t, limiter.AllowIP("10.0.0.5").Allowed)
}

func TestRateLimiterConcurrency(t *testing.T) {
	config := DefaultConfig()
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(config, metrics)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				result := limiter.AllowIP("10.0.0.6")
				assert.NotNil(t, result)
			}
		}()
	}
	wg.Wait()
}
