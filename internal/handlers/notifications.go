package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vm2656/travel-itinerary-generator/internal/enrich"
	"github.com/vm2656/travel-itinerary-generator/internal/notifications"
)

// Stream открывает SSE-поток прогресса задачи обогащения.
// Первым событием идет снимок задачи; поток закрывается после события done.
func (h *EnrichmentHandler) Stream(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid job id")
	}

	if _, err := h.Jobs.Get(id); err != nil {
		if errors.Is(err, enrich.ErrJobNotFound) {
			return notFound(c, "enrichment job not found")
		}
		return serverError(c)
	}

	// Подписка до чтения снимка: задача, завершившаяся между ними, видна в снимке.
	ch, unsubscribe := h.Hub.Subscribe(id)
	defer unsubscribe()

	job, err := h.Jobs.Get(id)
	if err != nil {
		return notFound(c, "enrichment job not found")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return serverError(c)
	}

	_ = writeSSE(c, notifications.Event{Type: notifications.EventSnapshot, Data: job})
	if job.Finished() {
		_ = writeSSE(c, notifications.Event{Type: notifications.EventDone, Data: job})
		flusher.Flush()
		return nil
	}
	flusher.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				// Канал закрыт после завершения; done мог не поместиться в буфер.
				if job, err := h.Jobs.Get(id); err == nil && job.Finished() {
					_ = writeSSE(c, notifications.Event{Type: notifications.EventDone, Data: job})
					flusher.Flush()
				}
				return nil
			}
			if err := writeSSE(c, event); err != nil {
				return nil
			}
			flusher.Flush()
			if event.Type == notifications.EventDone {
				return nil
			}
		}
	}
}

func writeSSE(c echo.Context, event notifications.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := c.Response().Write([]byte("event: " + event.Type + "\n")); err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}

	return nil
}
