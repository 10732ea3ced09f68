package imagesearch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vm2656/travel-itinerary-generator/internal/fetcher"
)

type fakeCSE struct {
	mu       sync.Mutex
	keys     []string
	queries  []string
	limited  map[string]bool
	links    []string
	lastNum  string
	lastType string
}

func (f *fakeCSE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := r.URL.Query()
	key := query.Get("key")
	f.keys = append(f.keys, key)
	f.queries = append(f.queries, query.Get("q"))
	f.lastNum = query.Get("num")
	f.lastType = query.Get("searchType")

	w.Header().Set("Content-Type", "application/json")
	if f.limited[key] {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"Quota exceeded"}}`)
		return
	}

	items := make([]map[string]string, 0, len(f.links))
	for _, link := range f.links {
		items = append(items, map[string]string{"link": link})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func newSearcher(t *testing.T, handler http.Handler, keys []string) *Searcher {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := fetcher.New(fetcher.Config{
		Keys:           keys,
		MinInterval:    time.Millisecond,
		RetriesPerKey:  1,
		InitialBackoff: time.Millisecond,
	}, logger)
	t.Cleanup(f.Close)

	return New(Config{EngineID: "engine", Endpoint: srv.URL + "/"}, f, logger)
}

// TestSearchReturnsDedupedLinks проверяет параметры запроса и удаление дублей.
func TestSearchReturnsDedupedLinks(t *testing.T) {
	cse := &fakeCSE{links: []string{"https://img/a.jpg", "https://img/b.jpg", "https://img/a.jpg"}}
	s := newSearcher(t, cse, []string{"key-1"})

	result := s.Search(context.Background(), "Fushimi Inari Kyoto attraction", 25)

	if result.ImageURL != "https://img/a.jpg" {
		t.Fatalf("unexpected primary image %q", result.ImageURL)
	}
	if len(result.Images) != 2 {
		t.Fatalf("expected 2 unique images, got %v", result.Images)
	}
	if cse.lastNum != "10" {
		t.Fatalf("expected count capped at 10, got %s", cse.lastNum)
	}
	if cse.lastType != "image" {
		t.Fatalf("expected image search type, got %s", cse.lastType)
	}
}

// TestSearchRotatesOnRateLimit проверяет переход на следующий ключ после 429.
func TestSearchRotatesOnRateLimit(t *testing.T) {
	cse := &fakeCSE{
		limited: map[string]bool{"key-1": true},
		links:   []string{"https://img/c.jpg"},
	}
	s := newSearcher(t, cse, []string{"key-1", "key-2"})

	result, err := s.SearchDetailed(context.Background(), "Nishiki Market", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ImageURL != "https://img/c.jpg" {
		t.Fatalf("unexpected image %q", result.ImageURL)
	}
	if strings.Join(cse.keys, ",") != "key-1,key-2" {
		t.Fatalf("unexpected key order %v", cse.keys)
	}
}

// TestSearchPlaceholderOnExhaustion проверяет заглушку, когда все ключи исчерпаны.
func TestSearchPlaceholderOnExhaustion(t *testing.T) {
	cse := &fakeCSE{limited: map[string]bool{"key-1": true}}
	s := newSearcher(t, cse, []string{"key-1"})

	result, err := s.SearchDetailed(context.Background(), "Gion at night", 3)
	if err == nil {
		t.Fatal("expected error to be reported")
	}
	if result.ImageURL != Placeholder("Gion at night") {
		t.Fatalf("expected placeholder, got %q", result.ImageURL)
	}
	if result.Images == nil || len(result.Images) != 0 {
		t.Fatalf("expected empty image list, got %#v", result.Images)
	}
}

// TestSearchNotConfigured проверяет заглушку без ключей и без обращений к API.
func TestSearchNotConfigured(t *testing.T) {
	cse := &fakeCSE{}
	s := newSearcher(t, cse, nil)

	result := s.Search(context.Background(), "Arashiyama", 3)
	if result.ImageURL != Placeholder("Arashiyama") {
		t.Fatalf("expected placeholder, got %q", result.ImageURL)
	}
	if len(cse.keys) != 0 {
		t.Fatalf("expected no API calls, got %d", len(cse.keys))
	}
}

// TestPlaceholder проверяет кодирование запроса в URL заглушки.
func TestPlaceholder(t *testing.T) {
	got := Placeholder("Tea & Temples")
	want := "https://placehold.co/800x600/e2e8f0/64748b?text=Tea+%26+Temples"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
