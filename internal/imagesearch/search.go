// Package imagesearch ищет фотографии мест через Google Custom Search.
package imagesearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/vm2656/travel-itinerary-generator/internal/fetcher"
	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

const (
	MaxCount        = 10
	placeholderBase = "https://placehold.co/800x600/e2e8f0/64748b?text="
	provider        = "customsearch"
)

var ErrNotConfigured = errors.New("image search is not configured")

type Result struct {
	ImageURL string   `json:"imageUrl"`
	Images   []string `json:"images"`
}

type Config struct {
	EngineID string
	// Endpoint переопределяет адрес API, пусто означает адрес по умолчанию.
	Endpoint string
}

type Searcher struct {
	fetcher  *fetcher.Fetcher
	engineID string
	endpoint string
	logger   *slog.Logger

	mu       sync.Mutex
	services map[string]*customsearch.Service
}

// New создает клиент поиска поверх fetcher с ротацией ключей.
func New(cfg Config, f *fetcher.Fetcher, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		fetcher:  f,
		engineID: strings.TrimSpace(cfg.EngineID),
		endpoint: cfg.Endpoint,
		logger:   logger,
		services: make(map[string]*customsearch.Service),
	}
}

// Placeholder возвращает URL заглушки с текстом запроса.
func Placeholder(query string) string {
	return placeholderBase + url.QueryEscape(query)
}

func (s *Searcher) Configured() bool {
	return s.engineID != "" && s.fetcher != nil && s.fetcher.KeyCount() > 0
}

// Search никогда не возвращает ошибку: при любом сбое отдается заглушка.
func (s *Searcher) Search(ctx context.Context, query string, count int) Result {
	result, _ := s.SearchDetailed(ctx, query, count)
	return result
}

// SearchDetailed работает как Search, но дополнительно сообщает причину
// подстановки заглушки.
func (s *Searcher) SearchDetailed(ctx context.Context, query string, count int) (Result, error) {
	fallback := Result{ImageURL: Placeholder(query), Images: []string{}}

	if !s.Configured() {
		return fallback, ErrNotConfigured
	}

	count = max(1, min(count, MaxCount))

	links, err := fetcher.Do(ctx, s.fetcher, func(ctx context.Context, key string) ([]string, error) {
		return s.searchWithKey(ctx, key, query, count)
	}, 0)
	if err != nil {
		s.logger.Warn("image search failed, using placeholder",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return fallback, err
	}

	links = fetcher.Dedupe(links)
	if len(links) == 0 {
		return fallback, nil
	}

	return Result{ImageURL: links[0], Images: links}, nil
}

func (s *Searcher) searchWithKey(ctx context.Context, key, query string, count int) ([]string, error) {
	svc, err := s.service(ctx, key)
	if err != nil {
		return nil, upstream.Wrap(upstream.KindConfigMissing, provider, err)
	}

	resp, err := svc.Cse.List().
		Cx(s.engineID).
		Q(query).
		SearchType("image").
		Num(int64(count)).
		ImgSize("large").
		ImgType("photo").
		Safe("active").
		FileType("jpg,png").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}

	links := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item != nil && item.Link != "" {
			links = append(links, item.Link)
		}
	}
	return links, nil
}

func (s *Searcher) service(ctx context.Context, key string) (*customsearch.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if svc, ok := s.services[key]; ok {
		return svc, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(key)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create customsearch service: %w", err)
	}

	s.services[key] = svc
	return svc, nil
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		classified := upstream.FromStatus(provider, apiErr.Code, apiErr.Message)
		classified.Err = err
		return classified
	}
	return upstream.Wrap(upstream.KindOther, provider, err)
}
