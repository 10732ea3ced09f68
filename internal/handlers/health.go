package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	componentConfigured  = "configured"
	componentMissingKey  = "missing_key"
	componentPlaceholder = "placeholder"
)

type HealthResponse struct {
	Status      string `json:"status"`
	LLM         string `json:"llm"`
	ImageSearch string `json:"imageSearch"`
	Sessions    string `json:"sessions"`
}

// HealthHandler сообщает, какие внешние зависимости настроены. Сервис живой
// и без ключей: генерация отвечает 503, поиск изображений отдает заглушки.
type HealthHandler struct {
	LLMConfigured         bool
	ImageSearchConfigured bool
	SessionBackend        string
}

// Check возвращает статус сервиса и его зависимостей.
func (h *HealthHandler) Check(c echo.Context) error {
	response := HealthResponse{
		Status:      "ok",
		LLM:         componentMissingKey,
		ImageSearch: componentPlaceholder,
		Sessions:    h.SessionBackend,
	}
	if h.LLMConfigured {
		response.LLM = componentConfigured
	}
	if h.ImageSearchConfigured {
		response.ImageSearch = componentConfigured
	}
	if response.Sessions == "" {
		response.Sessions = "memory"
	}

	return c.JSON(http.StatusOK, response)
}
