package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vm2656/travel-itinerary-generator/internal/imagesearch"
)

type ImageSearcher interface {
	SearchDetailed(ctx context.Context, query string, count int) (imagesearch.Result, error)
}

type ImageHandler struct {
	Searcher ImageSearcher
}

// NewImageHandler создает обработчик поиска изображений.
func NewImageHandler(searcher ImageSearcher) *ImageHandler {
	return &ImageHandler{Searcher: searcher}
}

type ImageSearchRequest struct {
	Query string `json:"query" validate:"required,max=500"`
	Count int    `json:"count" validate:"gte=0"`
}

type ImageSearchResponse struct {
	ImageURL string   `json:"imageUrl"`
	Images   []string `json:"images"`
	Error    string   `json:"error,omitempty"`
}

// Search ищет изображения по запросу. Сбои поиска не превращаются в 5xx:
// клиент получает заглушку и текст ошибки.
func (h *ImageHandler) Search(c echo.Context) error {
	var req ImageSearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	if req.Count == 0 {
		req.Count = 1
	}

	result, err := h.Searcher.SearchDetailed(c.Request().Context(), req.Query, req.Count)
	response := ImageSearchResponse{ImageURL: result.ImageURL, Images: result.Images}
	if response.Images == nil {
		response.Images = []string{}
	}
	if err != nil {
		response.Error = err.Error()
	}

	return c.JSON(http.StatusOK, response)
}
