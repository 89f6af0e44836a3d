package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Blacklist is the revocation set. Entries only need to live until the token's own
// expiry; after that, signature verification rejects the token anyway.
type Blacklist interface {
	Add(ctx context.Context, token string, until time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}

// MemoryBlacklist keeps revoked tokens in process memory. Only suitable for a single instance.
type MemoryBlacklist struct {
	entries *cache.Cache
}

// NewMemoryBlacklist purges expired entries every cleanupInterval.
func NewMemoryBlacklist(cleanupInterval time.Duration) *MemoryBlacklist {
	return &MemoryBlacklist{entries: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (b *MemoryBlacklist) Add(_ context.Context, token string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	b.entries.Set(tokenKey(token), struct{}{}, ttl)
	return nil
}

func (b *MemoryBlacklist) Contains(_ context.Context, token string) (bool, error) {
	_, found := b.entries.Get(tokenKey(token))
	return found, nil
}

// RedisBlacklist shares revocations between every instance using the same redis.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Add(ctx context.Context, token string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, "revoked:"+tokenKey(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revoked token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, "revoked:"+tokenKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up revoked token: %w", err)
	}
	return n > 0, nil
}

// tokenKey hashes the token so the raw credential is never stored.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
