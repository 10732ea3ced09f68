package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

const (
	defaultMaxTokens   = 8192
	defaultTemperature = 0.2
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions задает параметры одного запроса к модели.
type ChatOptions struct {
	Grounding   bool
	JSON        bool
	Temperature float64
}

type ChatOption func(*ChatOptions)

// WithGrounding включает поиск Google как инструмент модели, если провайдер его поддерживает.
func WithGrounding() ChatOption {
	return func(o *ChatOptions) { o.Grounding = true }
}

// WithJSONResponse просит провайдера вернуть ответ в формате JSON.
func WithJSONResponse() ChatOption {
	return func(o *ChatOptions) { o.JSON = true }
}

func WithTemperature(value float64) ChatOption {
	return func(o *ChatOptions) { o.Temperature = value }
}

type Client interface {
	Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, []byte, error)
}

func resolveOptions(opts []ChatOption) ChatOptions {
	options := ChatOptions{Temperature: defaultTemperature}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func resolveMaxTokens(value int) int {
	if value > 0 {
		return value
	}

	return defaultMaxTokens
}

type apiErrorBody struct {
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// statusError классифицирует неуспешный HTTP-ответ провайдера.
func statusError(provider string, status int, body []byte) error {
	message := strings.TrimSpace(string(body))

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		message = parsed.Error.Message
		if parsed.Error.Status != "" {
			message = parsed.Error.Status + ": " + message
		}
	}

	return upstream.FromStatus(provider, status, message)
}

func transportError(provider string, err error) error {
	return upstream.Wrap(upstream.KindOther, provider, fmt.Errorf("send request: %w", err))
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
