// Package normalize превращает свободный текст ответа модели в типизированные значения.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

// Policy определяет поведение при невозможности разобрать ответ.
type Policy string

const (
	FailHard          Policy = "fail"
	FallbackToDefault Policy = "default"
	FallbackToEmpty   Policy = "empty"
)

const maxResponseLen = 500

var errEmpty = errors.New("empty result")

// ParsePolicy разбирает значение из конфигурации.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case FailHard:
		return FailHard, nil
	case FallbackToDefault:
		return FallbackToDefault, nil
	case FallbackToEmpty, "":
		return FallbackToEmpty, nil
	default:
		return "", fmt.Errorf("unknown fallback policy %q", value)
	}
}

// Error описывает неразборчивый ответ модели и хранит его усеченный текст.
type Error struct {
	Response string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return upstream.Wrap(upstream.KindMalformedResponse, "normalizer", e.Err)
}

func malformed(response string, err error) *Error {
	if len(response) > maxResponseLen {
		response = response[:maxResponseLen] + "..."
	}
	return &Error{Response: response, Err: err}
}

// DecodeObject извлекает первый JSON-объект из текста и декодирует его в T.
// Валидный JSON декодируется без изменений, ремонт применяется только при ошибке.
func DecodeObject[T any](text string) (T, error) {
	return decode[T](text, '{', '}')
}

// DecodeArray извлекает JSON-массив из текста и декодирует его в T.
func DecodeArray[T any](text string) (T, error) {
	return decode[T](text, '[', ']')
}

func decode[T any](text string, open, close byte) (T, error) {
	var zero T

	spans := candidates(text, open, close)
	if len(spans) == 0 {
		return zero, malformed(text, fmt.Errorf("no %c...%c span found", open, close))
	}

	var lastErr error
	for _, span := range spans {
		for _, payload := range []string{span, Repair(span)} {
			var value T
			if err := json.Unmarshal([]byte(payload), &value); err != nil {
				lastErr = err
				continue
			}
			return value, nil
		}
	}

	return zero, malformed(text, lastErr)
}

// Itinerary разбирает ответ модели в маршрут. Для маршрутов действует
// только FailHard: подставлять выдуманный маршрут нельзя.
func Itinerary(text string) (models.Itinerary, error) {
	itinerary, err := DecodeObject[models.Itinerary](text)
	if err != nil {
		return models.Itinerary{}, err
	}
	if itinerary.Title == "" && itinerary.Destination == "" && len(itinerary.Days) == 0 {
		return models.Itinerary{}, malformed(text, errEmpty)
	}
	return itinerary, nil
}

// Facts разбирает ответ модели в список фактов. Сначала ищется JSON-массив
// строк, затем применяется построчная эвристика, затем policy.
func Facts(text string, n int, policy Policy, defaults []string) ([]string, error) {
	if values, err := DecodeArray[[]string](text); err == nil {
		if facts := cleanFacts(values, n); len(facts) > 0 {
			return facts, nil
		}
	}

	if facts := Lines(text, n); len(facts) > 0 {
		return facts, nil
	}

	switch policy {
	case FallbackToDefault:
		return limit(append([]string(nil), defaults...), n), nil
	case FallbackToEmpty:
		return []string{}, nil
	default:
		return nil, malformed(text, errEmpty)
	}
}

func cleanFacts(values []string, n int) []string {
	facts := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(citationPattern.ReplaceAllString(value, ""))
		if value == "" {
			continue
		}
		facts = append(facts, value)
	}
	return limit(facts, n)
}

func limit(values []string, n int) []string {
	if n > 0 && len(values) > n {
		return values[:n]
	}
	return values
}
