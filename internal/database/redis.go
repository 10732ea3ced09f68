package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vm2656/travel-itinerary-generator/internal/config"
)

const (
	connectRetries = 5
	pingTimeout    = 5 * time.Second
)

// OpenRedis открывает клиент Redis с ретраями и проверкой ping.
func OpenRedis(ctx context.Context, cfg config.SessionsConfig, logger *slog.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	backoff := time.Second

	for i := 0; i < connectRetries; i++ {
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			return client, nil
		}

		_ = client.Close()

		logger.Warn("redis connection attempt failed",
			slog.Int("attempt", i+1),
			slog.Int("retries", connectRetries),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("connect to redis after %d attempts: %w", connectRetries, err)
}
