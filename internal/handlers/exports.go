package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vm2656/travel-itinerary-generator/internal/exports"
	"github.com/vm2656/travel-itinerary-generator/internal/models"
)

type ExportHandler struct {
	Logger *slog.Logger
}

// NewExportHandler создает обработчик выгрузки маршрута в файл.
func NewExportHandler(logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{Logger: logger}
}

// Export отдает маршрут вложением в формате json, csv или pdf.
func (h *ExportHandler) Export(c echo.Context) error {
	format, err := exports.ParseFormat(c.Param("format"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	var it models.Itinerary
	if err := c.Bind(&it); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := it.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	var buf bytes.Buffer
	if err := exports.Write(&buf, it, format); err != nil {
		h.Logger.Error("itinerary export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()),
		)
		return serverError(c)
	}

	filename := exports.Filename(it, format)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
