package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/axellelanca/shortlink/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, addr := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		cfg := &config.Config{}
		cfg.Redis.Addr = addr

		client, err := NewRedisClient(context.Background(), cfg)
		if err != nil {
			t.Fatalf("connect %s: %v", addr, err)
		}
		if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
			t.Fatalf("set via %s: %v", addr, err)
		}
		_ = client.Close()
	}
}

func TestNewRedisClientUnreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Addr = "127.0.0.1:1"
	if _, err := NewRedisClient(context.Background(), cfg); err == nil {
		t.Fatal("expected connection error")
	}
}
