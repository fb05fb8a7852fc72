package ratelimiter

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(rate, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := newInMemory(clock.Now, time.Hour)
	rl := New(Options{
		MaxRatePerSecond: rate,
		MaxBurst:         burst,
		Cache:            cache,
		CacheTTL:         time.Minute,
	})
	rl.now = clock.Now
	return rl, clock
}

func Test_RateLimiter_Burst(t *testing.T) {
	req := require.New(t)

	// Given a limiter with a burst of 3
	rl, _ := newTestLimiter(1, 3)

	// When four requests arrive at once
	// Then the fourth is refused
	req.True(rl.Allow("a"))
	req.True(rl.Allow("a"))
	req.True(rl.Allow("a"))
	req.False(rl.Allow("a"))
	req.Zero(rl.Remaining("a"))

	// And other sources are unaffected
	req.True(rl.Allow("b"))
}

func Test_RateLimiter_Refill(t *testing.T) {
	req := require.New(t)

	// Given an exhausted bucket refilling at 10 per second
	rl, clock := newTestLimiter(10, 2)
	req.True(rl.Allow("a"))
	req.True(rl.Allow("a"))
	req.False(rl.Allow("a"))

	// When 50ms pass, half a token accrues
	clock.Advance(50 * time.Millisecond)
	req.False(rl.Allow("a"))

	// And after another 50ms the partial progress completes one token
	clock.Advance(50 * time.Millisecond)
	req.True(rl.Allow("a"))
	req.False(rl.Allow("a"))

	// And a long pause caps at the burst
	clock.Advance(time.Hour)
	req.Equal(2, rl.Remaining("a"))
}

func Test_RateLimiter_GetSourceKey(t *testing.T) {
	req := require.New(t)

	rl := New(Options{MaxRatePerSecond: 1, SourceHeaderKey: "X-Forwarded-For"})

	r := httptest.NewRequest("GET", "/api/health", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	req.Equal("10.0.0.1", rl.GetSourceKey(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Equal("203.0.113.7", rl.GetSourceKey(r))
}

func Test_InMemory_Expiry(t *testing.T) {
	req := require.New(t)

	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := newInMemory(clock.Now, time.Hour)
	defer cache.Close()

	req.NoError(cache.SetWithExpiration("k", 7, time.Second))
	req.NoError(cache.Set("forever", 1))

	v, err := cache.Get("k")
	req.NoError(err)
	req.Equal(7, v)

	clock.Advance(2 * time.Second)
	_, err = cache.Get("k")
	req.ErrorIs(err, ErrCacheMiss)

	cache.removeExpired()
	req.Equal(1, cache.Len())
	req.NoError(cache.Close())
	req.NoError(cache.Close())
}
