package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vm2656/travel-itinerary-generator/internal/facts"
	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

type FactsProvider interface {
	Facts(ctx context.Context, destination string) ([]string, error)
}

type FactsHandler struct {
	Facts  FactsProvider
	Logger *slog.Logger
}

// NewFactsHandler создает обработчик фактов о направлении.
func NewFactsHandler(provider FactsProvider, logger *slog.Logger) *FactsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FactsHandler{Facts: provider, Logger: logger}
}

type TravelFactsRequest struct {
	Destination string `json:"destination"`
}

type TravelFactsResponse struct {
	Facts []string `json:"facts"`
}

// Create возвращает короткие факты для экрана ожидания.
func (h *FactsHandler) Create(c echo.Context) error {
	var req TravelFactsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}

	items, err := h.Facts.Facts(c.Request().Context(), req.Destination)
	if err != nil {
		switch {
		case errors.Is(err, facts.ErrDestinationRequired):
			return badRequest(c, "Destination is required")
		case upstream.Is(err, upstream.KindConfigMissing):
			return serviceUnavailable(c, missingKeyMessage)
		}

		h.Logger.Error("travel facts failed",
			slog.String("destination", req.Destination),
			slog.String("error", err.Error()),
		)
		return badGateway(c, "Failed to generate travel facts")
	}

	if items == nil {
		items = []string{}
	}
	return c.JSON(http.StatusOK, TravelFactsResponse{Facts: items})
}
