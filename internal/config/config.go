package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderGenAI  = "genai"
)

type Config struct {
	Env         string
	Server      ServerConfig
	AI          AIConfig
	Retry       RetryConfig
	ImageSearch ImageSearchConfig
	Facts       FactsConfig
	Enrichment  EnrichmentConfig
	Sessions    SessionsConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimit    string
}

type AIConfig struct {
	Provider           string
	APIKey             string
	BaseURL            string
	Model              string
	Timeout            time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxOutputTokens    int
	Grounding          bool
	DurationPolicy     string
}

type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
}

type ImageSearchConfig struct {
	APIKeys        []string
	EngineID       string
	BaseURL        string
	MinInterval    time.Duration
	RetriesPerKey  int
	MaxKeys        int
	InitialBackoff time.Duration
	ImagesPerItem  int
}

type FactsConfig struct {
	TTL            time.Duration
	Count          int
	FallbackPolicy string
}

type EnrichmentConfig struct {
	JobTTL     time.Duration
	JobTimeout time.Duration
}

type SessionsConfig struct {
	TTL      time.Duration
	RedisURL string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load загружает конфигурацию приложения из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	var err error
	if cfg.Server, err = loadServer(); err != nil {
		return cfg, err
	}
	if cfg.AI, err = loadAI(); err != nil {
		return cfg, err
	}
	if cfg.Retry, err = loadRetry(); err != nil {
		return cfg, err
	}
	if cfg.ImageSearch, err = loadImageSearch(); err != nil {
		return cfg, err
	}
	if cfg.Facts, err = loadFacts(); err != nil {
		return cfg, err
	}
	if cfg.Enrichment, err = loadEnrichment(); err != nil {
		return cfg, err
	}
	if cfg.Sessions, err = loadSessions(); err != nil {
		return cfg, err
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS"),
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadServer() (ServerConfig, error) {
	serverPort, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return ServerConfig{}, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 5*time.Minute)
	if err != nil {
		return ServerConfig{}, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		Port:         serverPort,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		BodyLimit:    getEnv("SERVER_BODY_LIMIT", "10M"),
	}, nil
}

func loadAI() (AIConfig, error) {
	aiTimeout, err := parseDurationEnv("AI_TIMEOUT", 90*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	aiRateLimitPerMinute, err := parseIntEnv("AI_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return AIConfig{}, err
	}

	aiRateLimitBurst, err := parseIntEnv("AI_RATE_LIMIT_BURST", 10)
	if err != nil {
		return AIConfig{}, err
	}

	aiMaxOutputTokens, err := parseIntEnv("AI_MAX_OUTPUT_TOKENS", 8192)
	if err != nil {
		return AIConfig{}, err
	}

	grounding, err := parseBoolEnv("AI_GROUNDING", true)
	if err != nil {
		return AIConfig{}, err
	}

	aiProvider := strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini))
	defaultBaseURL := "https://api.groq.com/openai/v1"
	defaultModel := "llama-3.1-8b-instant"
	switch aiProvider {
	case ProviderGemini:
		defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
		defaultModel = "gemini-2.5-flash"
	case ProviderGenAI:
		defaultBaseURL = ""
		defaultModel = "gemini-2.5-flash"
	}

	aiAPIKey := getEnv("AI_API_KEY", "")
	if aiAPIKey == "" {
		switch aiProvider {
		case ProviderGemini, ProviderGenAI:
			aiAPIKey = getEnv("GEMINI_API_KEY", "")
		case ProviderGroq:
			aiAPIKey = getEnv("GROQ_API_KEY", "")
		}
	}

	return AIConfig{
		Provider:           aiProvider,
		APIKey:             aiAPIKey,
		BaseURL:            getEnv("AI_BASE_URL", defaultBaseURL),
		Model:              getEnv("AI_MODEL", defaultModel),
		Timeout:            aiTimeout,
		RateLimitPerMinute: aiRateLimitPerMinute,
		RateLimitBurst:     aiRateLimitBurst,
		MaxOutputTokens:    aiMaxOutputTokens,
		Grounding:          grounding,
		DurationPolicy:     strings.ToLower(getEnv("ITINERARY_DURATION_POLICY", "dates")),
	}, nil
}

func loadRetry() (RetryConfig, error) {
	maxRetries, err := parseIntEnv("AI_MAX_RETRIES", 3)
	if err != nil {
		return RetryConfig{}, err
	}

	initialDelay, err := parseDurationEnv("AI_RETRY_INITIAL_DELAY", 2*time.Second)
	if err != nil {
		return RetryConfig{}, err
	}

	return RetryConfig{MaxRetries: maxRetries, InitialDelay: initialDelay}, nil
}

func loadImageSearch() (ImageSearchConfig, error) {
	minInterval, err := parseDurationEnv("IMAGE_SEARCH_MIN_INTERVAL", 100*time.Millisecond)
	if err != nil {
		return ImageSearchConfig{}, err
	}

	retriesPerKey, err := parseIntEnv("IMAGE_SEARCH_RETRIES_PER_KEY", 3)
	if err != nil {
		return ImageSearchConfig{}, err
	}

	maxKeys, err := parseIntEnv("IMAGE_SEARCH_MAX_KEYS", 3)
	if err != nil {
		return ImageSearchConfig{}, err
	}

	initialBackoff, err := parseDurationEnv("IMAGE_SEARCH_INITIAL_BACKOFF", 500*time.Millisecond)
	if err != nil {
		return ImageSearchConfig{}, err
	}

	imagesPerItem, err := parseIntEnv("ENRICH_IMAGES_PER_ITEM", 3)
	if err != nil {
		return ImageSearchConfig{}, err
	}

	keys := parseListEnv("GOOGLE_SEARCH_API_KEYS")
	if len(keys) == 0 {
		keys = parseListEnv("GOOGLE_SEARCH_API_KEY")
	}

	return ImageSearchConfig{
		APIKeys:        keys,
		EngineID:       strings.TrimSpace(getEnv("GOOGLE_SEARCH_ENGINE_ID", "")),
		BaseURL:        getEnv("IMAGE_SEARCH_BASE_URL", ""),
		MinInterval:    minInterval,
		RetriesPerKey:  retriesPerKey,
		MaxKeys:        maxKeys,
		InitialBackoff: initialBackoff,
		ImagesPerItem:  imagesPerItem,
	}, nil
}

func loadFacts() (FactsConfig, error) {
	ttl, err := parseDurationEnv("FACTS_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return FactsConfig{}, err
	}

	count, err := parseIntEnv("FACTS_COUNT", 3)
	if err != nil {
		return FactsConfig{}, err
	}

	return FactsConfig{
		TTL:            ttl,
		Count:          count,
		FallbackPolicy: strings.ToLower(getEnv("FACTS_FALLBACK_POLICY", "empty")),
	}, nil
}

func loadEnrichment() (EnrichmentConfig, error) {
	jobTTL, err := parseDurationEnv("ENRICH_JOB_TTL", time.Hour)
	if err != nil {
		return EnrichmentConfig{}, err
	}

	jobTimeout, err := parseDurationEnv("ENRICH_JOB_TIMEOUT", 10*time.Minute)
	if err != nil {
		return EnrichmentConfig{}, err
	}

	return EnrichmentConfig{JobTTL: jobTTL, JobTimeout: jobTimeout}, nil
}

func loadSessions() (SessionsConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return SessionsConfig{}, err
	}

	return SessionsConfig{
		TTL:      ttl,
		RedisURL: getEnv("REDIS_URL", ""),
	}, nil
}

// Enabled сообщает, настроен ли поиск изображений.
func (c ImageSearchConfig) Enabled() bool {
	return len(c.APIKeys) > 0 && c.EngineID != ""
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	switch c.AI.Provider {
	case ProviderGemini, ProviderGroq, ProviderGenAI:
	default:
		return fmt.Errorf("AI_PROVIDER must be one of gemini, groq, genai")
	}

	if c.AI.Provider != ProviderGenAI && c.AI.BaseURL == "" {
		return fmt.Errorf("AI_BASE_URL is required")
	}

	switch c.AI.DurationPolicy {
	case "dates", "days", "strict":
	default:
		return fmt.Errorf("ITINERARY_DURATION_POLICY must be one of dates, days, strict")
	}

	switch c.Facts.FallbackPolicy {
	case "fail", "default", "empty":
	default:
		return fmt.Errorf("FACTS_FALLBACK_POLICY must be one of fail, default, empty")
	}

	if c.ImageSearch.ImagesPerItem > 10 {
		return fmt.Errorf("ENRICH_IMAGES_PER_ITEM cannot exceed 10")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}

	return parsed, nil
}

// parseListEnv разбирает список через запятую с сохранением регистра.
func parseListEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func parseCSVEnv(key string) []string {
	values := parseListEnv(key)
	for i, value := range values {
		values[i] = strings.ToLower(value)
	}
	return values
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
