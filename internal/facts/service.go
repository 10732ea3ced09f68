// Package facts выдает короткие факты о направлении, пока строится маршрут.
package facts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/vm2656/travel-itinerary-generator/internal/normalize"
	"github.com/vm2656/travel-itinerary-generator/internal/retry"
)

const (
	DefaultCount   = 3
	DefaultTimeout = 90 * time.Second
)

var ErrDestinationRequired = errors.New("destination is required")

// Generator возвращает сырой ответ модели с фактами о направлении.
type Generator interface {
	TravelFacts(ctx context.Context, destination string, count int) (string, error)
}

type Config struct {
	Count  int
	Policy normalize.Policy
	Retry  retry.Policy
	// Timeout ограничивает общий запрос к модели, который не зависит от отдельного клиента.
	Timeout time.Duration
}

type Service struct {
	generator Generator
	cache     *Cache
	group     singleflight.Group
	count     int
	policy    normalize.Policy
	retry     retry.Policy
	timeout   time.Duration
	logger    *slog.Logger
}

// NewService создает сервис фактов поверх генератора и кэша.
func NewService(generator Generator, cache *Cache, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
	if cfg.Policy == "" {
		cfg.Policy = normalize.FallbackToEmpty
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialDelay == 0 {
		cfg.Retry = retry.Overload(3, 2*time.Second)
	}
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &Service{
		generator: generator,
		cache:     cache,
		count:     cfg.Count,
		policy:    cfg.Policy,
		retry:     cfg.Retry,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
	s.retry.Notify = func(err error, wait time.Duration) {
		logger.Warn("facts model overloaded, retrying", slog.Duration("wait", wait), slog.String("error", err.Error()))
	}

	return s
}

// Facts возвращает факты из кэша или запрашивает их у модели. В кэш попадают
// только непустые результаты, разобранные из ответа модели. Одновременные
// промахи по одному направлению выполняют один запрос.
func (s *Service) Facts(ctx context.Context, destination string) ([]string, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, ErrDestinationRequired
	}

	if cached, ok := s.cache.Get(destination); ok {
		s.logger.Debug("travel facts cache hit", slog.String("destination", destination))
		return cached, nil
	}

	// Общий запрос не зависит от отмены контекста первого клиента.
	results := s.group.DoChan(Key(destination), func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.generate(shared, destination)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("travel facts request shared", slog.String("destination", destination))
		}
		return clone(res.Val.([]string)), nil
	}
}

func (s *Service) generate(ctx context.Context, destination string) ([]string, error) {
	ctx, span := otel.Tracer("FactsService").Start(ctx, "GenerateTravelFacts", trace.WithAttributes(
		attribute.String("destination", destination),
	))
	defer span.End()

	text, err := retry.Do(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.generator.TravelFacts(ctx, destination, s.count)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate travel facts")
		return nil, fmt.Errorf("generate travel facts: %w", err)
	}
	span.SetAttributes(attribute.Int("response.length", len(text)))

	facts, err := normalize.Facts(text, s.count, normalize.FailHard, nil)
	if err == nil && len(facts) > 0 {
		s.cache.Set(destination, facts)
		span.SetAttributes(attribute.Int("facts.count", len(facts)))
		span.SetStatus(codes.Ok, "Travel facts generated")
		return facts, nil
	}

	s.logger.Warn("travel facts response unparseable, applying fallback",
		slog.String("destination", destination),
		slog.String("policy", string(s.policy)),
	)
	span.SetAttributes(attribute.String("facts.fallback", string(s.policy)))

	return normalize.Facts(text, s.count, s.policy, DefaultFacts(destination))
}

// DefaultFacts возвращает общие факты для политики FallbackToDefault.
func DefaultFacts(destination string) []string {
	return []string{
		fmt.Sprintf("Locals in %s often know the best food spots, so asking for recommendations pays off.", destination),
		fmt.Sprintf("Public transport is usually the fastest way to move around %s at rush hour.", destination),
		fmt.Sprintf("Many museums and landmarks in %s offer reduced prices on certain days of the week.", destination),
	}
}
