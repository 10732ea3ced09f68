package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vm2656/travel-itinerary-generator/internal/imagesearch"
	"github.com/vm2656/travel-itinerary-generator/internal/models"
	"github.com/vm2656/travel-itinerary-generator/internal/notifications"
)

type stubFinder struct {
	mu      sync.Mutex
	queries []string
	fail    map[string]bool
}

func (s *stubFinder) Search(_ context.Context, query string, count int) imagesearch.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, query)
	if s.fail[query] {
		return imagesearch.Result{ImageURL: imagesearch.Placeholder(query), Images: []string{}}
	}

	images := make([]string, 0, count)
	for i := 0; i < count; i++ {
		images = append(images, "https://img.example/"+strings.ReplaceAll(query, " ", "-")+"/"+string(rune('a'+i))+".jpg")
	}
	return imagesearch.Result{ImageURL: images[0], Images: images}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleItinerary() models.Itinerary {
	return models.Itinerary{
		Title:       "Kyoto",
		Destination: "Kyoto",
		StartDate:   "2025-11-01",
		EndDate:     "2025-11-02",
		Duration:    2,
		Days: []models.Day{
			{
				Day: 1,
				Activities: []models.Activity{
					{Title: "Fushimi Inari", Location: "Fushimi"},
					{Title: "Tofuku-ji", Location: "Higashiyama"},
				},
				Restaurants: []models.Restaurant{
					{Name: "Vermillion", Location: "Fushimi", Cuisine: "Cafe"},
				},
			},
			{
				Day:        2,
				Activities: []models.Activity{{Title: "Arashiyama", Location: "Ukyo"}},
			},
		},
	}
}

// TestFlattenOrder проверяет порядок обхода листьев.
func TestFlattenOrder(t *testing.T) {
	leaves := Flatten(sampleItinerary())
	want := []Leaf{
		{DayIndex: 0, Kind: LeafActivity, Index: 0},
		{DayIndex: 0, Kind: LeafActivity, Index: 1},
		{DayIndex: 0, Kind: LeafRestaurant, Index: 0},
		{DayIndex: 1, Kind: LeafActivity, Index: 0},
	}
	if !reflect.DeepEqual(leaves, want) {
		t.Fatalf("expected %v, got %v", want, leaves)
	}
}

// TestEnrichDoesNotMutateInput проверяет, что вход не меняется, а копия обогащена.
func TestEnrichDoesNotMutateInput(t *testing.T) {
	input := sampleItinerary()
	snapshot := input.Clone()

	o := NewOrchestrator(&stubFinder{}, 3, discardLogger())
	out, err := o.Enrich(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(input, snapshot) {
		t.Fatal("input itinerary was mutated")
	}

	first := out.Days[0].Activities[0]
	if first.Image == "" || len(first.Images) != 3 {
		t.Fatalf("expected enriched activity, got %+v", first.Enrichment)
	}
	if first.MapURL != "https://www.google.com/maps/search/?api=1&query=Fushimi%2C%20Kyoto" {
		t.Fatalf("unexpected map url %s", first.MapURL)
	}
	if first.SearchURL != "https://www.google.com/search?q=Fushimi%20Inari%20Fushimi%20Kyoto" {
		t.Fatalf("unexpected search url %s", first.SearchURL)
	}

	restaurant := out.Days[0].Restaurants[0]
	if restaurant.Image == "" || restaurant.MapURL == "" {
		t.Fatalf("expected enriched restaurant, got %+v", restaurant.Enrichment)
	}
}

// TestEnrichQueries проверяет формат запросов для активностей и ресторанов.
func TestEnrichQueries(t *testing.T) {
	finder := &stubFinder{}
	o := NewOrchestrator(finder, 3, discardLogger())

	if _, err := o.Enrich(context.Background(), sampleItinerary(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"Fushimi Inari Fushimi Kyoto attraction",
		"Tofuku-ji Higashiyama Kyoto attraction",
		"Vermillion restaurant Fushimi Kyoto Cafe",
		"Arashiyama Ukyo Kyoto attraction",
	}
	if !reflect.DeepEqual(finder.queries, want) {
		t.Fatalf("expected %q, got %q", want, finder.queries)
	}
}

// TestEnrichProgressMonotone проверяет монотонный прогресс, заканчивающийся ровно 1.0.
func TestEnrichProgressMonotone(t *testing.T) {
	o := NewOrchestrator(&stubFinder{}, 3, discardLogger())

	var reports []Progress
	if _, err := o.Enrich(context.Background(), sampleItinerary(), func(p Progress) {
		reports = append(reports, p)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(reports) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(reports))
	}
	for i := 1; i < len(reports); i++ {
		if reports[i].Fraction < reports[i-1].Fraction {
			t.Fatalf("progress decreased: %v", reports)
		}
	}
	if last := reports[len(reports)-1]; last.Fraction != 1.0 || last.Completed != 4 {
		t.Fatalf("expected final progress 1.0, got %+v", last)
	}
}

// TestEnrichEmptyItinerary проверяет единственный отчет 1.0 при отсутствии листьев.
func TestEnrichEmptyItinerary(t *testing.T) {
	o := NewOrchestrator(&stubFinder{}, 3, discardLogger())

	var reports []Progress
	_, err := o.Enrich(context.Background(), models.Itinerary{Title: "Empty"}, func(p Progress) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 1 || reports[0].Fraction != 1.0 {
		t.Fatalf("expected a single 1.0 report, got %v", reports)
	}
}

// TestEnrichPlaceholderOnFailure проверяет заглушку только для неудачного листа.
func TestEnrichPlaceholderOnFailure(t *testing.T) {
	failing := "Tofuku-ji Higashiyama Kyoto attraction"
	o := NewOrchestrator(&stubFinder{fail: map[string]bool{failing: true}}, 3, discardLogger())

	out, err := o.Enrich(context.Background(), sampleItinerary(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failed := out.Days[0].Activities[1]
	if failed.Image != imagesearch.Placeholder(failing) {
		t.Fatalf("expected placeholder, got %s", failed.Image)
	}
	if len(failed.Images) != 1 || failed.Images[0] != failed.Image {
		t.Fatalf("expected placeholder as the only image, got %v", failed.Images)
	}
	if strings.HasPrefix(out.Days[0].Activities[0].Image, "https://placehold.co") {
		t.Fatal("neighbouring leaf must keep its real image")
	}
}

// TestEnrichCanceled проверяет остановку при отмене контекста.
func TestEnrichCanceled(t *testing.T) {
	o := NewOrchestrator(&stubFinder{}, 3, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.Enrich(ctx, sampleItinerary(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

// TestJobsLifecycle проверяет фоновую задачу, события хаба и итоговый снимок.
func TestJobsLifecycle(t *testing.T) {
	hub := notifications.NewHub()
	jobs := NewJobs(NewOrchestrator(&stubFinder{}, 3, discardLogger()), hub, time.Minute, time.Minute, discardLogger())
	defer jobs.Close()

	job := jobs.Start(sampleItinerary())
	if job.Status != JobRunning || job.Progress.Total != 4 {
		t.Fatalf("unexpected initial snapshot %+v", job)
	}

	jobs.Wait()

	final, err := jobs.Get(job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Status != JobDone || final.Result == nil {
		t.Fatalf("expected finished job with result, got %+v", final)
	}
	if final.Progress.Fraction != 1.0 {
		t.Fatalf("expected full progress, got %+v", final.Progress)
	}
	if final.Result.Days[1].Activities[0].Image == "" {
		t.Fatal("expected enriched result")
	}
	if hub.Subscribers(job.ID) != 0 {
		t.Fatal("expected topic to be closed")
	}
}

// TestJobsGetUnknown проверяет ошибку для неизвестной задачи.
func TestJobsGetUnknown(t *testing.T) {
	jobs := NewJobs(NewOrchestrator(&stubFinder{}, 3, discardLogger()), nil, time.Minute, time.Minute, discardLogger())
	defer jobs.Close()

	if _, err := jobs.Get(uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
