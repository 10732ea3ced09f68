package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

const genaiProvider = "genai"

// GenAIClient вызывает Gemini через официальный SDK google.golang.org/genai.
type GenAIClient struct {
	apiKey  string
	baseURL string
	model   string

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGenAIClient создает клиент SDK. Подключение выполняется при первом запросе.
func NewGenAIClient(apiKey, baseURL, model string) *GenAIClient {
	return &GenAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSpace(baseURL),
		model:   strings.TrimPrefix(model, "models/"),
	}
}

func (c *GenAIClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		if c.baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
		}
		c.client, c.initErr = genai.NewClient(ctx, cfg)
	})
	return c.client, c.initErr
}

// Chat отправляет сообщения через SDK и возвращает текст ответа.
// Сырой ответ SDK не предоставляет, второй результат всегда nil.
func (c *GenAIClient) Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, []byte, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", nil, upstream.ConfigMissing(genaiProvider, "GEMINI_API_KEY is not set")
	}

	client, err := c.sdk(ctx)
	if err != nil {
		return "", nil, upstream.Wrap(upstream.KindConfigMissing, genaiProvider, err)
	}

	options := resolveOptions(opts)
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](float32(options.Temperature)),
	}
	if options.Grounding {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if options.JSON {
		config.ResponseMIMEType = "application/json"
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, message := range messages {
		text := strings.TrimSpace(message.Content)
		if text == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(message.Role)) {
		case "system":
			system = append(system, text)
		case "assistant", "model":
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return "", nil, fmt.Errorf("genai request has no user content")
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", nil, classifyGenAIError(err)
	}

	text := extractGenAIText(resp)
	if text == "" {
		return "", nil, upstream.New(upstream.KindMalformedResponse, genaiProvider, "response missing content")
	}

	return text, nil, nil
}

func extractGenAIText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				text.WriteString(part.Text)
			}
		}
		break
	}
	return text.String()
}

func classifyGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		classified := upstream.FromStatus(genaiProvider, apiErr.Code, apiErr.Status+": "+apiErr.Message)
		classified.Err = err
		return classified
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		classified := upstream.FromStatus(genaiProvider, apiErrPtr.Code, apiErrPtr.Status+": "+apiErrPtr.Message)
		classified.Err = err
		return classified
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return upstream.Wrap(upstream.KindOther, genaiProvider, err)
}
