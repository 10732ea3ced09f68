package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vm2656/travel-itinerary-generator/internal/ai"
	"github.com/vm2656/travel-itinerary-generator/internal/importer"
	"github.com/vm2656/travel-itinerary-generator/internal/models"
	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

const (
	missingKeyMessage = "AI API key not configured. Set GEMINI_API_KEY (get a free key at https://aistudio.google.com/app/apikey) or AI_API_KEY for the selected provider"
	maxImportBytes    = 10 << 20
)

type ItineraryGenerator interface {
	GenerateItinerary(ctx context.Context, input ai.GenerateInput) (models.Itinerary, error)
}

type ItineraryHandler struct {
	Generator ItineraryGenerator
	Logger    *slog.Logger
}

// NewItineraryHandler создает обработчик генерации и импорта маршрутов.
func NewItineraryHandler(generator ItineraryGenerator, logger *slog.Logger) *ItineraryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItineraryHandler{Generator: generator, Logger: logger}
}

// Generate создает маршрут по пожеланиям пользователя.
func (h *ItineraryHandler) Generate(c echo.Context) error {
	var req ai.GenerateInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	itinerary, err := h.Generator.GenerateItinerary(c.Request().Context(), req)
	if err != nil {
		return h.generationError(c, req, err)
	}

	return c.JSON(http.StatusOK, itinerary)
}

func (h *ItineraryHandler) generationError(c echo.Context, req ai.GenerateInput, err error) error {
	switch {
	case errors.Is(err, ai.ErrInvalidInput):
		return badRequest(c, err.Error())
	case upstream.Is(err, upstream.KindConfigMissing):
		h.Logger.Error("itinerary generation is not configured", slog.String("error", err.Error()))
		return serviceUnavailable(c, missingKeyMessage)
	}

	h.Logger.Error("itinerary generation failed",
		slog.String("destination", req.Destination),
		slog.String("kind", string(upstream.KindOf(err))),
		slog.String("error", err.Error()),
	)
	return badGateway(c, "Failed to generate itinerary: "+err.Error())
}

// Import разбирает загруженную книгу xlsx в маршрут.
func (h *ItineraryHandler) Import(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".xlsx" && ext != ".xlsm" {
		return badRequest(c, "only .xlsx files are supported")
	}
	if file.Size > maxImportBytes {
		return badRequest(c, "file is too large")
	}

	src, err := file.Open()
	if err != nil {
		return serverError(c)
	}
	defer src.Close()

	itinerary, err := importer.Parse(src)
	if err != nil {
		h.Logger.Warn("spreadsheet import failed",
			slog.String("file", file.Filename),
			slog.String("error", err.Error()),
		)
		return badRequest(c, "Failed to parse Excel file: "+err.Error())
	}

	return c.JSON(http.StatusOK, itinerary)
}
