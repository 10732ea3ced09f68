// Package fetcher вызывает внешний API с ротацией ключей, повторами при 429
// и строго последовательной очередью запросов.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vm2656/travel-itinerary-generator/internal/retry"
	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

const (
	DefaultMaxKeys        = 3
	DefaultRetriesPerKey  = 3
	DefaultInitialBackoff = 500 * time.Millisecond
)

var (
	ErrNoKeys        = errors.New("no API keys configured")
	ErrKeysExhausted = errors.New("all API keys exhausted")
)

type Config struct {
	Keys           []string
	MinInterval    time.Duration
	MaxKeys        int
	RetriesPerKey  int
	InitialBackoff time.Duration
}

type Fetcher struct {
	keys           []string
	maxKeys        int
	retriesPerKey  int
	initialBackoff time.Duration
	queue          *Queue
	logger         *slog.Logger

	mu     sync.Mutex
	cursor int
}

// ParseKeys разбирает список ключей через запятую, пустые значения отбрасываются.
func ParseKeys(raw string) []string {
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		if key := strings.TrimSpace(part); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// New создает fetcher и запускает его очередь.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = DefaultMaxKeys
	}
	if cfg.RetriesPerKey <= 0 {
		cfg.RetriesPerKey = DefaultRetriesPerKey
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}

	keys := make([]string, len(cfg.Keys))
	copy(keys, cfg.Keys)

	return &Fetcher{
		keys:           keys,
		maxKeys:        cfg.MaxKeys,
		retriesPerKey:  cfg.RetriesPerKey,
		initialBackoff: cfg.InitialBackoff,
		queue:          NewQueue(cfg.MinInterval),
		logger:         logger,
	}
}

func (f *Fetcher) KeyCount() int {
	return len(f.keys)
}

func (f *Fetcher) Queue() *Queue {
	return f.queue
}

func (f *Fetcher) Close() {
	f.queue.Close()
}

func (f *Fetcher) nextKey() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	index := f.cursor
	f.cursor = (f.cursor + 1) % len(f.keys)
	return f.keys[index], index
}

// FetchWithRotation пробует attempt с очередным ключом. При 429 запрос повторяется
// с тем же ключом с экспоненциальной задержкой, после исчерпания повторов
// берется следующий ключ. Прочие ошибки возвращаются сразу, без ротации.
// maxRetriesPerKey <= 0 означает RetriesPerKey из конфигурации Fetcher.
func FetchWithRotation[T any](ctx context.Context, f *Fetcher, attempt func(ctx context.Context, key string) (T, error), maxRetriesPerKey int) (T, error) {
	var zero T
	if len(f.keys) == 0 {
		return zero, upstream.Wrap(upstream.KindConfigMissing, "fetcher", ErrNoKeys)
	}
	if maxRetriesPerKey <= 0 {
		maxRetriesPerKey = f.retriesPerKey
	}

	policy := retry.RateLimited(maxRetriesPerKey-1, f.initialBackoff)

	keysToTry := min(len(f.keys), f.maxKeys)
	var lastErr error
	for i := 0; i < keysToTry; i++ {
		key, index := f.nextKey()
		policy.Notify = func(err error, wait time.Duration) {
			f.logger.Warn("rate limited, retrying with same key",
				slog.Int("key_index", index),
				slog.Duration("wait", wait),
			)
		}

		value, err := retry.Do(ctx, policy, func(ctx context.Context) (T, error) {
			return attempt(ctx, key)
		})
		if err == nil {
			return value, nil
		}
		if !upstream.Is(err, upstream.KindRateLimited) {
			return zero, err
		}

		lastErr = err
		f.logger.Warn("api key exhausted, rotating", slog.Int("key_index", index))
	}

	return zero, fmt.Errorf("%w after %d keys: %w", ErrKeysExhausted, keysToTry, lastErr)
}

// Do выполняет FetchWithRotation через очередь: запросы к API никогда не идут параллельно.
func Do[T any](ctx context.Context, f *Fetcher, attempt func(ctx context.Context, key string) (T, error), maxRetriesPerKey int) (T, error) {
	var (
		value T
		err   error
	)

	if qerr := f.queue.Enqueue(ctx, func(ctx context.Context) {
		value, err = FetchWithRotation(ctx, f, attempt, maxRetriesPerKey)
	}); qerr != nil {
		var zero T
		return zero, qerr
	}

	return value, err
}

// Dedupe убирает повторяющиеся и пустые URL, сохраняя порядок первого появления.
func Dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}
	return out
}
