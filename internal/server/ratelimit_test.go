package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for the rate limiter.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(perMin, perHour, perDay int, dataPerDay int64) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMin, perHour, perDay, dataPerDay)
	rl.now = clock.now
	return rl, clock
}

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10, 100, 1000, 1024*1024)

	assert.Equal(t, 10, rl.requestsPerMinute)
	assert.Equal(t, 100, rl.requestsPerHour)
	assert.Equal(t, 1000, rl.maxRequestsPerDay)
	assert.Equal(t, int64(1024*1024), rl.maxDataPerDay)
	assert.NotNil(t, rl.clients)
}

func TestRateLimiter_NoLimits(t *testing.T) {
	rl, _ := newTestLimiter(0, 0, 0, 0)

	for i := 0; i < 100; i++ {
		require.NoError(t, rl.CheckRateLimit("client", 100))
	}
	usage := rl.GetUsage("client")
	assert.Equal(t, 100, usage.RequestsToday)
	assert.Equal(t, int64(10000), usage.BytesToday)
}

func TestRateLimiter_RequestsPerMinute(t *testing.T) {
	rl, clock := newTestLimiter(2, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("client", 0))
	clock.advance(10 * time.Second)
	require.NoError(t, rl.CheckRateLimit("client", 0))
	clock.advance(10 * time.Second)

	err := rl.CheckRateLimit("client", 0)
	var rateErr *RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "minute", rateErr.Type)
	assert.Equal(t, 2, rateErr.Limit)
	assert.Equal(t, 40*time.Second, rateErr.RetryAfter, "the window opened by the first request")

	// Rejected requests are not counted.
	assert.Equal(t, 2, rl.GetUsage("client").RequestsLastMinute)

	clock.advance(40 * time.Second)
	assert.NoError(t, rl.CheckRateLimit("client", 0))
}

func TestRateLimiter_RequestsPerHour(t *testing.T) {
	rl, clock := newTestLimiter(0, 3, 0, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.CheckRateLimit("client", 0))
		clock.advance(5 * time.Minute)
	}

	err := rl.CheckRateLimit("client", 0)
	var rateErr *RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "hour", rateErr.Type)
	assert.Equal(t, 45*time.Minute, rateErr.RetryAfter)

	clock.advance(45 * time.Minute)
	assert.NoError(t, rl.CheckRateLimit("client", 0))
}

func TestRateLimiter_MaxRequestsPerDay(t *testing.T) {
	rl, clock := newTestLimiter(0, 0, 2, 0)

	require.NoError(t, rl.CheckRateLimit("client", 0))
	require.NoError(t, rl.CheckRateLimit("client", 0))

	err := rl.CheckRateLimit("client", 0)
	var quotaErr *QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, "requests", quotaErr.Type)
	assert.Equal(t, int64(2), quotaErr.Limit)
	assert.Equal(t, int64(2), quotaErr.Used)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), quotaErr.Resets)

	// The quota resets at midnight.
	clock.advance(12 * time.Hour)
	assert.NoError(t, rl.CheckRateLimit("client", 0))
	assert.Equal(t, 1, rl.GetUsage("client").RequestsToday)
}

func TestRateLimiter_MaxDataPerDay(t *testing.T) {
	rl, _ := newTestLimiter(0, 0, 0, 1000)

	require.NoError(t, rl.CheckRateLimit("client", 600))

	err := rl.CheckRateLimit("client", 500)
	var quotaErr *QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, "data", quotaErr.Type)
	assert.Equal(t, int64(600), quotaErr.Used)

	assert.NoError(t, rl.CheckRateLimit("client", 400), "exactly the limit is allowed")
}

func TestRateLimiter_MultipleClients(t *testing.T) {
	rl, _ := newTestLimiter(1, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("a", 0))
	require.NoError(t, rl.CheckRateLimit("b", 0))
	assert.Error(t, rl.CheckRateLimit("a", 0))
	assert.Error(t, rl.CheckRateLimit("b", 0))
}

func TestRateLimiter_GetUsage(t *testing.T) {
	rl, clock := newTestLimiter(0, 0, 0, 0)

	assert.Equal(t, Usage{}, rl.GetUsage("unknown"))

	require.NoError(t, rl.CheckRateLimit("client", 42))
	usage := rl.GetUsage("client")
	assert.Equal(t, 1, usage.RequestsLastMinute)
	assert.Equal(t, 1, usage.RequestsLastHour)
	assert.Equal(t, int64(42), usage.BytesToday)
	assert.Equal(t, clock.t, usage.LastRequest)
}

func TestRateLimiter_Prune(t *testing.T) {
	rl, clock := newTestLimiter(0, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("old", 0))
	clock.advance(2 * time.Hour)
	require.NoError(t, rl.CheckRateLimit("fresh", 0))

	assert.Equal(t, 1, rl.Prune(time.Hour))
	assert.Equal(t, Usage{}, rl.GetUsage("old"))
	assert.Equal(t, 1, rl.GetUsage("fresh").RequestsToday)
}

func TestRateLimitError_Error(t *testing.T) {
	err := &RateLimitError{Type: "minute", Limit: 10, RetryAfter: 30 * time.Second}
	assert.Equal(t, "rate limit exceeded for minute (limit: 10, retry after: 30s)", err.Error())
}

func TestQuotaExceededError_Error(t *testing.T) {
	resets := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	err := &QuotaExceededError{Type: "data", Limit: 1000, Used: 900, Resets: resets}
	assert.Equal(t, "quota exceeded for data (used: 900, limit: 1000, resets: 2026-01-02T00:00:00Z)", err.Error())
}
