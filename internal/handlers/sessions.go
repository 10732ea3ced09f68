package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
	"github.com/vm2656/travel-itinerary-generator/internal/sessions"
)

type SessionHandler struct {
	Store sessions.Store
}

// NewSessionHandler создает обработчик сохраненного текущего маршрута.
func NewSessionHandler(store sessions.Store) *SessionHandler {
	return &SessionHandler{Store: store}
}

type SaveSessionRequest struct {
	Itinerary models.Itinerary     `json:"itinerary"`
	Mode      models.ItineraryMode `json:"mode" validate:"required,oneof=generate import"`
}

// Put сохраняет маршрут и режим, в котором он получен.
func (h *SessionHandler) Put(c echo.Context) error {
	var req SaveSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	if err := req.Itinerary.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	session, err := h.Store.Save(c.Request().Context(), sessions.Session{
		ID:        c.Param("id"),
		Itinerary: req.Itinerary,
		Mode:      req.Mode,
	})
	if err != nil {
		if errors.Is(err, sessions.ErrInvalidID) {
			return badRequest(c, "invalid session id")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, session)
}

// Get возвращает сохраненный маршрут.
func (h *SessionHandler) Get(c echo.Context) error {
	session, err := h.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, sessions.ErrNotFound):
			return notFound(c, "session not found")
		case errors.Is(err, sessions.ErrInvalidID):
			return badRequest(c, "invalid session id")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, session)
}

// Delete очищает сохраненный маршрут, чтобы начать заново.
func (h *SessionHandler) Delete(c echo.Context) error {
	if err := h.Store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, sessions.ErrInvalidID) {
			return badRequest(c, "invalid session id")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
