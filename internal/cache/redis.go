// Package cache connects to the optional redis shared by the revocation set and the
// rate limiter.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/axellelanca/shortlink/internal/config"
)

// NewRedisClient connects to cfg.Redis.Addr and checks it answers.
// Addr may be a plain host:port or a redis:// URL.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	var opt *redis.Options
	if parsed, err := redis.ParseURL(cfg.Redis.Addr); err == nil {
		opt = parsed
	} else {
		opt = &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 2

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
