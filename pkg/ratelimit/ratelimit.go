// Package ratelimit implements the two-tier per-user-per-level and
// per-user-global request counters backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zkcarel/core/pkg/cerr"
)

// Level identifies which per-level bucket a request consumes from.
type Level int

const (
	Level1 Level = iota + 1
	Level2
	Level3
)

// Limiter enforces level and global counters keyed by user and window.
type Limiter struct {
	rdb    *redis.Client
	window time.Duration

	levelLimit  map[Level]int
	globalLimit int
}

// Config carries the per-tier limits, sourced from Config.RateLimit*.
type Config struct {
	WindowSeconds int
	Level1        int
	Level2        int
	Level3        int
	Global        int
}

// New builds a Limiter against an already-connected redis.Client.
func New(rdb *redis.Client, cfg Config) *Limiter {
	return &Limiter{
		rdb:    rdb,
		window: time.Duration(cfg.WindowSeconds) * time.Second,
		levelLimit: map[Level]int{
			Level1: cfg.Level1,
			Level2: cfg.Level2,
			Level3: cfg.Level3,
		},
		globalLimit: cfg.Global,
	}
}

// Allow increments both the per-level and the global counter for user and
// returns cerr.KindRateLimitExceeded if either bucket is now over its
// limit. Counters are atomic INCR; EXPIRE is only set the moment a
// counter is freshly created, never refreshed on every hit, so a burst
// within a window cannot extend its own deadline.
func (l *Limiter) Allow(ctx context.Context, userAddress string, level Level) error {
	levelKey := fmt.Sprintf("ratelimit:level:%d:%s", level, userAddress)
	globalKey := fmt.Sprintf("ratelimit:global:%s", userAddress)

	levelCount, err := l.incrWithExpiry(ctx, levelKey)
	if err != nil {
		return cerr.Wrap(cerr.KindTransientUpstream, "rate limit level counter", err)
	}
	globalCount, err := l.incrWithExpiry(ctx, globalKey)
	if err != nil {
		return cerr.Wrap(cerr.KindTransientUpstream, "rate limit global counter", err)
	}

	limit, ok := l.levelLimit[level]
	if ok && levelCount > int64(limit) {
		return cerr.New(cerr.KindRateLimitExceeded, fmt.Sprintf("level %d limit exceeded for %s", level, userAddress))
	}
	if globalCount > int64(l.globalLimit) {
		return cerr.New(cerr.KindRateLimitExceeded, fmt.Sprintf("global limit exceeded for %s", userAddress))
	}
	return nil
}

// incrWithExpiry increments key and, only when the increment created the
// key (count == 1), sets its expiry to the configured window.
func (l *Limiter) incrWithExpiry(ctx context.Context, key string) (int64, error) {
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return count, nil
}
