package database

import (
	"context"
	"errors"
	"testing"

	"github.com/vm2656/travel-itinerary-generator/internal/config"
)

// TestOpenRedisInvalidURL проверяет ошибку разбора адреса.
func TestOpenRedisInvalidURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), config.SessionsConfig{RedisURL: "http://localhost:6379"}, nil)
	if err == nil {
		t.Fatal("expected parse error")
	}
}

// TestOpenRedisCancelled проверяет, что отмена контекста прерывает ретраи.
func TestOpenRedisCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := OpenRedis(ctx, config.SessionsConfig{RedisURL: "redis://127.0.0.1:1/0"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
