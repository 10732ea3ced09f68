package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vm2656/travel-itinerary-generator/internal/enrich"
	"github.com/vm2656/travel-itinerary-generator/internal/models"
	"github.com/vm2656/travel-itinerary-generator/internal/notifications"
)

type Enricher interface {
	Enrich(ctx context.Context, it models.Itinerary, onProgress func(enrich.Progress)) (models.Itinerary, error)
}

type EnrichmentJobs interface {
	Start(it models.Itinerary) enrich.Job
	Get(id uuid.UUID) (enrich.Job, error)
}

type EnrichmentHandler struct {
	Enricher Enricher
	Jobs     EnrichmentJobs
	Hub      *notifications.Hub
}

// NewEnrichmentHandler создает обработчик обогащения маршрутов изображениями.
func NewEnrichmentHandler(enricher Enricher, jobs EnrichmentJobs, hub *notifications.Hub) *EnrichmentHandler {
	return &EnrichmentHandler{Enricher: enricher, Jobs: jobs, Hub: hub}
}

type EnrichmentStartedResponse struct {
	ID       uuid.UUID        `json:"id"`
	Status   enrich.JobStatus `json:"status"`
	Progress enrich.Progress  `json:"progress"`
}

func bindItinerary(c echo.Context) (models.Itinerary, error) {
	var it models.Itinerary
	if err := c.Bind(&it); err != nil {
		return models.Itinerary{}, errors.New("invalid payload")
	}
	if err := it.Validate(); err != nil {
		return models.Itinerary{}, err
	}
	return it, nil
}

// Start запускает фоновое обогащение и возвращает идентификатор задачи.
func (h *EnrichmentHandler) Start(c echo.Context) error {
	it, err := bindItinerary(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	job := h.Jobs.Start(it)
	return c.JSON(http.StatusAccepted, EnrichmentStartedResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	})
}

// Get возвращает снимок задачи обогащения.
func (h *EnrichmentHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid job id")
	}

	job, err := h.Jobs.Get(id)
	if err != nil {
		if errors.Is(err, enrich.ErrJobNotFound) {
			return notFound(c, "enrichment job not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, job)
}

// Sync обогащает маршрут в рамках запроса и возвращает результат.
func (h *EnrichmentHandler) Sync(c echo.Context) error {
	it, err := bindItinerary(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	enriched, err := h.Enricher.Enrich(c.Request().Context(), it, nil)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, enriched)
}
