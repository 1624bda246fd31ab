package folioadmin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedLimiter(max int, window time.Duration) (*LoginLimiter, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(max, window)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	limiter, _ := fixedLimiter(2, time.Minute)
	ip := "203.0.113.10"

	assert.True(t, limiter.Check(ip))
	limiter.Record(ip)
	assert.True(t, limiter.Check(ip))
	limiter.Record(ip)
	assert.False(t, limiter.Check(ip), "third attempt should be blocked")
}

func TestLoginLimiterResetsAfterWindow(t *testing.T) {
	limiter, now := fixedLimiter(1, time.Minute)
	ip := "203.0.113.20"

	limiter.Record(ip)
	assert.False(t, limiter.Check(ip))

	*now = now.Add(61 * time.Second)
	assert.True(t, limiter.Check(ip))
	assert.Empty(t, limiter.attempts, "expired attempts should be pruned")
}

func TestLoginLimiterIsPerIP(t *testing.T) {
	limiter, _ := fixedLimiter(1, time.Minute)

	limiter.Record("203.0.113.30")
	assert.True(t, limiter.Check("203.0.113.31"))
	assert.False(t, limiter.Check("203.0.113.30"))
}

func TestLoginLimiterReset(t *testing.T) {
	limiter, _ := fixedLimiter(1, time.Minute)

	limiter.Record("203.0.113.40")
	limiter.Reset("203.0.113.40")
	assert.True(t, limiter.Check("203.0.113.40"))
}
