package ratelimiter

import (
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get for a source with no bucket yet.
var ErrCacheMiss = errors.New("cache miss")

// GetterSetter holds token bucket state as plain integers: the token count
// under "rl:bucket:<source>" and the last refill in Unix milliseconds under
// "rl:fill:<source>". Both are written with the limiter's TTL so idle sources
// expire on their own. InMemory and Redis implement it.
type GetterSetter interface {
	Get(key string) (int, error)
	Set(key string, value int) error
	SetWithExpiration(key string, value int, expiration time.Duration) error
	Close() error
}
