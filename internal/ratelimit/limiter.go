// Package ratelimit implements fixed-window request limits keyed by client.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key fits in the current window.
// When it doesn't, retryAfter tells how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type window struct {
	count int
	reset time.Time
}

// MemoryLimiter counts requests in process memory.
type MemoryLimiter struct {
	limit   int
	window  time.Duration
	mu      sync.Mutex
	windows *cache.Cache
	now     func() time.Time
}

func NewMemoryLimiter(limit int, windowSize time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  windowSize,
		windows: cache.New(windowSize, 2*windowSize),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.current(key, now)
	if !ok {
		w = &window{reset: now.Add(l.window)}
		l.windows.Set(key, w, l.window)
	}
	w.count++
	if w.count > l.limit {
		return false, w.reset.Sub(now), nil
	}
	return true, 0, nil
}

func (l *MemoryLimiter) current(key string, now time.Time) (*window, bool) {
	v, found := l.windows.Get(key)
	if !found {
		return nil, false
	}
	w := v.(*window)
	if !now.Before(w.reset) {
		return nil, false
	}
	return w, true
}

// RedisLimiter shares counters through redis: INCR, and EXPIRE on the first hit.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, windowSize time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: windowSize}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := "ratelimit:" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit expiry failed: %w", err)
		}
	}
	if count <= int64(l.limit) {
		return true, 0, nil
	}

	ttl, err := l.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return false, l.window, nil
	}
	if ttl <= 0 {
		// the first hit's EXPIRE was lost; never let a counter live forever
		l.client.Expire(ctx, redisKey, l.window)
		ttl = l.window
	}
	return false, ttl, nil
}
