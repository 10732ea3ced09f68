// Package enrich дополняет маршрут фотографиями и ссылками на карты и поиск.
package enrich

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vm2656/travel-itinerary-generator/internal/imagesearch"
	"github.com/vm2656/travel-itinerary-generator/internal/models"
)

const DefaultImagesPerItem = 3

type LeafKind string

const (
	LeafActivity   LeafKind = "activity"
	LeafRestaurant LeafKind = "restaurant"
)

// Leaf указывает на активность или ресторан внутри маршрута.
type Leaf struct {
	DayIndex int
	Kind     LeafKind
	Index    int
}

type Progress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
}

type ImageFinder interface {
	Search(ctx context.Context, query string, count int) imagesearch.Result
}

type Orchestrator struct {
	finder        ImageFinder
	imagesPerItem int
	logger        *slog.Logger
}

// NewOrchestrator создает оркестратор обогащения.
func NewOrchestrator(finder ImageFinder, imagesPerItem int, logger *slog.Logger) *Orchestrator {
	if imagesPerItem <= 0 {
		imagesPerItem = DefaultImagesPerItem
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{finder: finder, imagesPerItem: imagesPerItem, logger: logger}
}

// Flatten строит список листьев: по дням, в каждом дне сначала активности, потом рестораны.
func Flatten(it models.Itinerary) []Leaf {
	leaves := make([]Leaf, 0, it.LeafCount())
	for d, day := range it.Days {
		for i := range day.Activities {
			leaves = append(leaves, Leaf{DayIndex: d, Kind: LeafActivity, Index: i})
		}
		for i := range day.Restaurants {
			leaves = append(leaves, Leaf{DayIndex: d, Kind: LeafRestaurant, Index: i})
		}
	}
	return leaves
}

// Enrich возвращает копию маршрута с изображениями и ссылками. Исходный маршрут
// не изменяется. Листья обрабатываются по одному, после каждого вызывается onProgress.
// Ошибка возвращается только при отмене контекста, вместе с частично обогащенной копией.
func (o *Orchestrator) Enrich(ctx context.Context, it models.Itinerary, onProgress func(Progress)) (models.Itinerary, error) {
	ctx, span := otel.Tracer("EnrichmentOrchestrator").Start(ctx, "Enrich", trace.WithAttributes(
		attribute.String("itinerary.destination", it.Destination),
	))
	defer span.End()

	out := it.Clone()
	leaves := Flatten(out)
	total := len(leaves)
	span.SetAttributes(attribute.Int("enrich.leaves", total))

	report := func(completed int) {
		if onProgress == nil {
			return
		}
		fraction := 1.0
		if total > 0 {
			fraction = float64(completed) / float64(total)
		}
		onProgress(Progress{Completed: completed, Total: total, Fraction: fraction})
	}

	if total == 0 {
		report(0)
		span.SetStatus(codes.Ok, "nothing to enrich")
		return out, nil
	}

	for i, leaf := range leaves {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "enrichment canceled")
			return out, err
		}

		day := &out.Days[leaf.DayIndex]
		switch leaf.Kind {
		case LeafActivity:
			activity := &day.Activities[leaf.Index]
			query := ActivityQuery(*activity, out.Destination)
			activity.Enrichment = o.enrichment(ctx, query, activity.Location, out.Destination,
				joinNonEmpty(activity.Title, activity.Location, out.Destination))
		case LeafRestaurant:
			restaurant := &day.Restaurants[leaf.Index]
			query := RestaurantQuery(*restaurant, out.Destination)
			restaurant.Enrichment = o.enrichment(ctx, query, restaurant.Location, out.Destination,
				joinNonEmpty(restaurant.Name, restaurant.Location, out.Destination, "restaurant"))
		}

		report(i + 1)
	}

	span.SetStatus(codes.Ok, "itinerary enriched")
	return out, nil
}

func (o *Orchestrator) enrichment(ctx context.Context, query, location, destination, searchQuery string) models.Enrichment {
	result := o.finder.Search(ctx, query, o.imagesPerItem)
	if result.ImageURL == "" {
		result.ImageURL = imagesearch.Placeholder(query)
	}

	images := result.Images
	if len(images) == 0 {
		images = []string{result.ImageURL}
	}

	return models.Enrichment{
		Image:     result.ImageURL,
		Images:    images,
		MapURL:    MapURL(location, destination),
		SearchURL: SearchURL(searchQuery),
	}
}

// ActivityQuery строит поисковый запрос фотографии для активности.
func ActivityQuery(a models.Activity, destination string) string {
	return joinNonEmpty(a.Title, a.Location, destination, "attraction")
}

// RestaurantQuery строит поисковый запрос фотографии для ресторана.
func RestaurantQuery(r models.Restaurant, destination string) string {
	return joinNonEmpty(r.Name, "restaurant", r.Location, destination, r.Cuisine)
}

func MapURL(location, destination string) string {
	return "https://www.google.com/maps/search/?api=1&query=" + encodeComponent(location+", "+destination)
}

func SearchURL(query string) string {
	return "https://www.google.com/search?q=" + encodeComponent(query)
}

func encodeComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}
