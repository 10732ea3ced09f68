package ai

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

	"github.com/vm2656/travel-itinerary-generator/internal/models"
	"github.com/vm2656/travel-itinerary-generator/internal/normalize"
	"github.com/vm2656/travel-itinerary-generator/internal/retry"
	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

const (
	itineraryTemperature = 0.7
	factsTemperature     = 0.9
)

var ErrInvalidInput = errors.New("invalid itinerary request")

type Config struct {
	Retry          retry.Policy
	DurationPolicy DurationPolicy
	Grounding      bool
}

type Service struct {
	client         Client
	retry          retry.Policy
	durationPolicy DurationPolicy
	grounding      bool
	logger         *slog.Logger
}

// NewService создает сервис генерации маршрутов поверх AI-клиента.
func NewService(client Client, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialDelay == 0 {
		cfg.Retry = retry.Overload(3, 2*time.Second)
	}
	if cfg.DurationPolicy == "" {
		cfg.DurationPolicy = DurationFromDates
	}

	policy := cfg.Retry
	policy.Notify = func(err error, wait time.Duration) {
		logger.Warn("model overloaded, retrying",
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}

	return &Service{
		client:         client,
		retry:          policy,
		durationPolicy: cfg.DurationPolicy,
		grounding:      cfg.Grounding,
		logger:         logger,
	}
}

// GenerateItinerary запрашивает у модели маршрут и приводит ответ к типизированному виду.
// Длительность вычисляется один раз по датам запроса и согласуется с ответом по DurationPolicy.
func (s *Service) GenerateItinerary(ctx context.Context, input GenerateInput) (models.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GenerateItinerary", trace.WithAttributes(
		attribute.String("destination", input.Destination),
		attribute.String("pace", string(input.Pace)),
	))
	defer span.End()

	start, duration, err := validateInput(input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid input")
		return models.Itinerary{}, err
	}
	span.SetAttributes(attribute.Int("duration", duration))

	prompt := buildItineraryPrompt(input, duration)
	span.SetAttributes(attribute.Int("prompt.length", len(prompt)))

	messages := []Message{
		{Role: "system", Content: "You are a professional travel planner. Respond with JSON only, without extra text."},
		{Role: "user", Content: prompt},
	}

	opts := []ChatOption{WithTemperature(itineraryTemperature)}
	if s.grounding {
		opts = append(opts, WithGrounding())
	} else {
		opts = append(opts, WithJSONResponse())
	}

	startedAt := time.Now()
	content, err := retry.Do(ctx, s.retry, func(ctx context.Context) (string, error) {
		text, _, err := s.client.Chat(ctx, messages, opts...)
		return text, err
	})
	span.SetAttributes(attribute.Int64("response.latency_ms", time.Since(startedAt).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate itinerary")
		return models.Itinerary{}, err
	}
	span.SetAttributes(attribute.Int("response.length", len(content)))

	itinerary, err := normalize.Itinerary(content)
	if err != nil {
		s.logger.Error("failed to parse itinerary response",
			slog.String("destination", input.Destination),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to parse itinerary JSON")
		return models.Itinerary{}, err
	}

	fillDefaults(&itinerary, input, start)
	if err := s.applyDurationPolicy(&itinerary, duration); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Day count mismatch")
		return models.Itinerary{}, err
	}

	span.SetAttributes(
		attribute.Int("itinerary.days", len(itinerary.Days)),
		attribute.Int("itinerary.leaves", itinerary.LeafCount()),
	)
	span.SetStatus(codes.Ok, "Itinerary generated")

	return itinerary, nil
}

// TravelFacts запрашивает у модели короткие факты о направлении и возвращает сырой текст.
func (s *Service) TravelFacts(ctx context.Context, destination string, count int) (string, error) {
	messages := []Message{
		{Role: "user", Content: buildFactsPrompt(destination, count)},
	}

	text, _, err := s.client.Chat(ctx, messages, WithTemperature(factsTemperature))
	return text, err
}

func validateInput(input GenerateInput) (time.Time, int, error) {
	if strings.TrimSpace(input.Destination) == "" {
		return time.Time{}, 0, fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}

	start, err := models.ParseDate(input.StartDate)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: invalid startDate format", ErrInvalidInput)
	}
	end, err := models.ParseDate(input.EndDate)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: invalid endDate format", ErrInvalidInput)
	}
	if end.Before(start) {
		return time.Time{}, 0, fmt.Errorf("%w: endDate must not be before startDate", ErrInvalidInput)
	}

	switch input.Pace {
	case models.PaceRelaxed, models.PaceModerate, models.PacePacked:
	default:
		return time.Time{}, 0, fmt.Errorf("%w: unknown pace %q", ErrInvalidInput, input.Pace)
	}

	return start, models.DurationBetween(start, end), nil
}

// fillDefaults дополняет поля, которые модель могла опустить.
func fillDefaults(it *models.Itinerary, input GenerateInput, start time.Time) {
	if strings.TrimSpace(it.Destination) == "" {
		it.Destination = input.Destination
	}
	if it.StartDate == "" {
		it.StartDate = input.StartDate
	}
	if it.EndDate == "" {
		it.EndDate = input.EndDate
	}
	if strings.TrimSpace(it.Title) == "" {
		it.Title = "Trip to " + input.Destination
	}

	for i := range it.Days {
		day := &it.Days[i]
		if day.Day <= 0 {
			day.Day = i + 1
		}
		if day.Date == "" {
			day.Date = start.AddDate(0, 0, day.Day-1).Format(models.DateLayout)
		}
		if day.Activities == nil {
			day.Activities = []models.Activity{}
		}
		if day.Restaurants == nil {
			day.Restaurants = []models.Restaurant{}
		}
	}
}

func (s *Service) applyDurationPolicy(it *models.Itinerary, duration int) error {
	days := len(it.Days)

	switch s.durationPolicy {
	case DurationFromDays:
		it.Duration = days
		return nil
	case DurationStrict:
		if days != duration {
			return upstream.New(upstream.KindMalformedResponse, "model",
				fmt.Sprintf("itinerary has %d days, expected %d", days, duration))
		}
		it.Duration = duration
		return nil
	default:
		if it.Duration != duration {
			s.logger.Info("overriding model duration",
				slog.Int("model_duration", it.Duration),
				slog.Int("duration", duration),
			)
		}
		if days != duration {
			s.logger.Warn("model returned unexpected number of days",
				slog.Int("days", days),
				slog.Int("duration", duration),
			)
		}
		it.Duration = duration
		return nil
	}
}
