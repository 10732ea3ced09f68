package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

const groqProvider = "groq"

// GroqClient calls the Groq OpenAI-compatible chat completions API.
type GroqClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type groqChatRequest struct {
	Model          string              `json:"model"`
	Messages       []Message           `json:"messages"`
	Temperature    float64             `json:"temperature,omitempty"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *groqResponseFormat `json:"response_format,omitempty"`
}

type groqResponseFormat struct {
	Type string `json:"type"`
}

type groqChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// NewGroqClient создает клиент Groq с заданными параметрами.
func NewGroqClient(apiKey, baseURL, model string, timeout time.Duration, maxTokens int) *GroqClient {
	trimmedURL := strings.TrimRight(baseURL, "/")
	return &GroqClient{
		apiKey:    apiKey,
		baseURL:   trimmedURL,
		model:     model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Chat отправляет сообщения в Groq и возвращает текст ответа и сырой ответ API.
// Поиск Google Groq не поддерживает, WithGrounding игнорируется.
func (c *GroqClient) Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, []byte, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", nil, upstream.ConfigMissing(groqProvider, "GROQ_API_KEY is not set")
	}

	options := resolveOptions(opts)
	reqBody := groqChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: options.Temperature,
		MaxTokens:   resolveMaxTokens(c.maxTokens),
	}
	if options.JSON {
		reqBody.ResponseFormat = &groqResponseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}

	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", nil, transportError(groqProvider, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", nil, transportError(groqProvider, err)
	}

	if !isSuccess(response.StatusCode) {
		return "", body, statusError(groqProvider, response.StatusCode, body)
	}

	var parsed groqChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", body, upstream.Wrap(upstream.KindMalformedResponse, groqProvider, err)
	}

	if len(parsed.Choices) == 0 {
		return "", body, upstream.New(upstream.KindMalformedResponse, groqProvider, "response missing choices")
	}

	return parsed.Choices[0].Message.Content, body, nil
}
