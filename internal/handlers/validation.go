package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// FieldError описывает нарушение правила для одного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError собирает нарушения по полям. Валидатор сервера возвращает
// его вместо сырых ошибок go-playground/validator.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		messages = append(messages, field.Message)
	}
	return strings.Join(messages, "; ")
}

type validationResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

func validationFailed(c echo.Context, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		return c.JSON(http.StatusBadRequest, validationResponse{
			Error:  "validation failed: " + verr.Error(),
			Fields: verr.Fields,
		})
	}
	return badRequest(c, "validation failed")
}
