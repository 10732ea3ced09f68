package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vm2656/travel-itinerary-generator/internal/config"
	"github.com/vm2656/travel-itinerary-generator/internal/handlers"
)

func testConfig() config.Config {
	return config.Config{
		Env:    "test",
		Server: config.ServerConfig{BodyLimit: "1M"},
		AI: config.AIConfig{
			Provider:           config.ProviderGemini,
			BaseURL:            "http://127.0.0.1:1",
			Model:              "gemini-2.5-flash",
			Timeout:            time.Second,
			RateLimitPerMinute: 600,
			RateLimitBurst:     10,
			MaxOutputTokens:    1024,
			DurationPolicy:     "dates",
		},
		Retry: config.RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond},
		ImageSearch: config.ImageSearchConfig{
			MinInterval:    time.Millisecond,
			RetriesPerKey:  1,
			MaxKeys:        1,
			InitialBackoff: time.Millisecond,
			ImagesPerItem:  1,
		},
		Facts:      config.FactsConfig{TTL: time.Minute, Count: 3, FallbackPolicy: "empty"},
		Enrichment: config.EnrichmentConfig{JobTTL: time.Minute, JobTimeout: time.Minute},
		Sessions:   config.SessionsConfig{TTL: time.Minute},
		CORS:       config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := testConfig()
	e, closer := New(cfg, nil, nil)
	t.Cleanup(closer)

	return WithCORS(cfg.CORS, e)
}

// TestHealthRoute проверяет маршрут /health.
func TestHealthRoute(t *testing.T) {
	handler := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var health handlers.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.LLM != "missing_key" || health.ImageSearch != "placeholder" || health.Sessions != "memory" {
		t.Fatalf("unexpected health %+v", health)
	}
}

// TestGenerateValidationMessages проверяет сообщения валидации по полям JSON.
func TestGenerateValidationMessages(t *testing.T) {
	handler := newTestServer(t)
	body := `{"destination":"Kyoto","startDate":"01.04.2025","endDate":"2025-04-03","pace":"fast","budget":"budget"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/itineraries/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error  string                `json:"error"`
		Fields []handlers.FieldError `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.Error, "startDate must be a date in YYYY-MM-DD format") {
		t.Fatalf("expected startDate message, got %q", resp.Error)
	}
	if !strings.Contains(resp.Error, "pace must be one of: relaxed, moderate, packed") {
		t.Fatalf("expected pace message, got %q", resp.Error)
	}
	if len(resp.Fields) != 2 || resp.Fields[0].Field != "startDate" || resp.Fields[1].Field != "pace" {
		t.Fatalf("unexpected fields %+v", resp.Fields)
	}
}

// TestGenerateWithoutKey проверяет 503 с подсказкой при отсутствии ключа модели.
func TestGenerateWithoutKey(t *testing.T) {
	handler := newTestServer(t)
	body := `{"destination":"Kyoto","startDate":"2025-04-01","endDate":"2025-04-03","pace":"relaxed","budget":"budget"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/itineraries/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "aistudio.google.com") {
		t.Fatalf("expected remediation hint, got %s", rec.Body.String())
	}
}

// TestImageSearchNotConfigured проверяет заглушку при ненастроенном поиске.
func TestImageSearchNotConfigured(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images/search", strings.NewReader(`{"query":"Kyoto temples","count":3}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		ImageURL string   `json:"imageUrl"`
		Images   []string `json:"images"`
		Error    string   `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(body.ImageURL, "https://placehold.co/") || body.Error == "" {
		t.Fatalf("unexpected body %+v", body)
	}
}

// TestCORSPreflight проверяет ответ на preflight-запрос разрешенного origin.
func TestCORSPreflight(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/travel-facts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
