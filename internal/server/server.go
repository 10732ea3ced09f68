package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/vm2656/travel-itinerary-generator/internal/ai"
	"github.com/vm2656/travel-itinerary-generator/internal/config"
	"github.com/vm2656/travel-itinerary-generator/internal/enrich"
	"github.com/vm2656/travel-itinerary-generator/internal/facts"
	"github.com/vm2656/travel-itinerary-generator/internal/fetcher"
	"github.com/vm2656/travel-itinerary-generator/internal/handlers"
	"github.com/vm2656/travel-itinerary-generator/internal/imagesearch"
	"github.com/vm2656/travel-itinerary-generator/internal/normalize"
	"github.com/vm2656/travel-itinerary-generator/internal/notifications"
	"github.com/vm2656/travel-itinerary-generator/internal/retry"
	"github.com/vm2656/travel-itinerary-generator/internal/sessions"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями. Возвращаемая
// функция останавливает фоновые задачи и очередь запросов поиска.
// rdb может быть nil, тогда сессии хранятся в памяти.
func New(cfg config.Config, logger *slog.Logger, rdb *redis.Client) (*echo.Echo, func()) {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	retryPolicy := retry.Overload(cfg.Retry.MaxRetries, cfg.Retry.InitialDelay)
	durationPolicy, _ := ai.ParseDurationPolicy(cfg.AI.DurationPolicy)
	factsPolicy, err := normalize.ParsePolicy(cfg.Facts.FallbackPolicy)
	if err != nil {
		logger.Warn("unknown facts fallback policy, using default", slog.String("error", err.Error()))
		factsPolicy = normalize.FallbackToEmpty
	}

	aiService := ai.NewService(newAIClient(cfg.AI), ai.Config{
		Retry:          retryPolicy,
		DurationPolicy: durationPolicy,
		Grounding:      cfg.AI.Grounding,
	}, logger)

	searchFetcher := fetcher.New(fetcher.Config{
		Keys:           cfg.ImageSearch.APIKeys,
		MinInterval:    cfg.ImageSearch.MinInterval,
		MaxKeys:        cfg.ImageSearch.MaxKeys,
		RetriesPerKey:  cfg.ImageSearch.RetriesPerKey,
		InitialBackoff: cfg.ImageSearch.InitialBackoff,
	}, logger)
	searcher := imagesearch.New(imagesearch.Config{
		EngineID: cfg.ImageSearch.EngineID,
		Endpoint: cfg.ImageSearch.BaseURL,
	}, searchFetcher, logger)
	if !searcher.Configured() {
		logger.Warn("image search is not configured, placeholders will be used")
	}

	factsService := facts.NewService(aiService, facts.NewCache(cfg.Facts.TTL), facts.Config{
		Count:   cfg.Facts.Count,
		Policy:  factsPolicy,
		Retry:   retryPolicy,
		Timeout: cfg.AI.Timeout,
	}, logger)

	hub := notifications.NewHub()
	orchestrator := enrich.NewOrchestrator(searcher, cfg.ImageSearch.ImagesPerItem, logger)
	jobs := enrich.NewJobs(orchestrator, hub, cfg.Enrichment.JobTTL, cfg.Enrichment.JobTimeout, logger)

	var sessionStore sessions.Store = sessions.NewMemoryStore(cfg.Sessions.TTL)
	sessionBackend := "memory"
	if rdb != nil {
		sessionStore = sessions.NewRedisStore(rdb, cfg.Sessions.TTL)
		sessionBackend = "redis"
	}

	registerRoutes(e, routeHandlers{
		health: &handlers.HealthHandler{
			LLMConfigured:         cfg.AI.APIKey != "",
			ImageSearchConfigured: searcher.Configured(),
			SessionBackend:        sessionBackend,
		},
		itineraries: handlers.NewItineraryHandler(aiService, logger),
		images:      handlers.NewImageHandler(searcher),
		facts:       handlers.NewFactsHandler(factsService, logger),
		enrichments: handlers.NewEnrichmentHandler(orchestrator, jobs, hub),
		sessions:    handlers.NewSessionHandler(sessionStore),
		exports:     handlers.NewExportHandler(logger),
	}, aiRateLimiter(cfg.AI))

	closer := func() {
		jobs.Close()
		searchFetcher.Close()
	}

	return e, closer
}

func newAIClient(cfg config.AIConfig) ai.Client {
	switch cfg.Provider {
	case config.ProviderGemini:
		return ai.NewGeminiClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens)
	case config.ProviderGenAI:
		return ai.NewGenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return ai.NewGroqClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens)
	}
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// WithCORS оборачивает обработчик CORS-политикой для веб-клиента.
func WithCORS(cfg config.CORSConfig, handler http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID},
		ExposedHeaders: []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
	}).Handler(handler)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func aiRateLimiter(cfg config.AIConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
