package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter keeps one INCR counter per (window, key) with a TTL equal to
// the window period. A counter found without a TTL gets one on the next hit,
// so a failed EXPIRE cannot pin a caller at the limit.
type RedisLimiter struct {
	rdb     *redis.Client
	prefix  string
	windows []Window
}

// NewRedisLimiter returns a Limiter backed by rdb. prefix namespaces the keys
// so several services can share one Redis.
func NewRedisLimiter(rdb *redis.Client, prefix string, windows []Window) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, windows: windows}
}

// Connect parses a redis:// URL and verifies the server answers PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ratelimit: redis ping: %w", err)
	}
	return rdb, nil
}

// Allow increments every window's counter and reports the first breached one.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	for _, w := range l.windows {
		rkey := fmt.Sprintf("rl:%s:%d:%s", l.prefix, int64(w.Period.Seconds()), key)

		var (
			incr *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			incr = p.Incr(ctx, rkey)
			ttl = p.TTL(ctx, rkey)
			return nil
		})
		if err != nil {
			return Decision{}, fmt.Errorf("ratelimit: incr %s: %w", rkey, err)
		}

		remaining := ttl.Val()
		if remaining < 0 {
			if err := l.rdb.Expire(ctx, rkey, w.Period).Err(); err != nil {
				return Decision{}, fmt.Errorf("ratelimit: expire %s: %w", rkey, err)
			}
			remaining = w.Period
		}

		if incr.Val() > int64(w.Limit) {
			return Decision{Allowed: false, Breached: w, RetryAfter: remaining}, nil
		}
	}
	return Decision{Allowed: true}, nil
}
