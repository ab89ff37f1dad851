package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

// CompatClient talks to any OpenAI-compatible chat completions endpoint:
// OpenAI itself, Gemini, Mistral and Together-hosted Llama.
type CompatClient struct {
	name        domain.ProviderID
	model       string
	temperature float32
	maxTokens   int
	jsonMode    bool
	timeout     time.Duration
	client      *openai.Client
}

type CompatOption func(*CompatClient)

func WithTemperature(t float32) CompatOption {
	return func(c *CompatClient) {
		c.temperature = t
	}
}

func WithMaxTokens(n int) CompatOption {
	return func(c *CompatClient) {
		c.maxTokens = n
	}
}

// WithHTTPTimeout bounds each HTTP request to the endpoint.
func WithHTTPTimeout(d time.Duration) CompatOption {
	return func(c *CompatClient) {
		c.timeout = d
	}
}

// WithJSONMode asks the endpoint for a JSON object response format.
func WithJSONMode(enabled bool) CompatOption {
	return func(c *CompatClient) {
		c.jsonMode = enabled
	}
}

func NewCompatClient(pc ProviderConfig, opts ...CompatOption) (*CompatClient, error) {
	if pc.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", pc.Provider, ErrMissingAPIKey)
	}

	cfg := openai.DefaultConfig(pc.APIKey)
	if pc.BaseURL != "" {
		cfg.BaseURL = pc.BaseURL
	}

	c := &CompatClient{
		name:        pc.Provider,
		model:       pc.Model,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		jsonMode:    pc.Provider != Llama,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: c.timeout}
	}
	c.client = openai.NewClientWithConfig(cfg)

	slog.Info("initialized llm provider", "provider", c.name, "model", c.model, "base_url", cfg.BaseURL)
	return c, nil
}

func (c *CompatClient) Name() domain.ProviderID { return c.name }

func (c *CompatClient) Model() string { return c.model }

func (c *CompatClient) Analyze(ctx context.Context, req Request) (*Response, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.ArticleText},
		},
	}
	if c.name == OpenAI {
		chatReq.MaxCompletionTokens = c.maxTokens
	} else {
		chatReq.MaxTokens = c.maxTokens
	}
	// reasoning models reject a custom temperature
	if !isReasoningModel(model) {
		chatReq.Temperature = c.temperature
	}
	if c.jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		slog.Debug("chat completion failed", "provider", c.name, "model", model, "error", err)
		return nil, newProviderError(c.name, statusOf(err), err)
	}

	if len(resp.Choices) == 0 {
		return nil, newProviderError(c.name, 0, errors.New("no choices returned"))
	}

	slog.Debug("received chat completion", "provider", c.name, "finish_reason", resp.Choices[0].FinishReason)
	return &Response{
		Raw:      resp.Choices[0].Message.Content,
		Provider: c.name,
		Model:    model,
		Usage: Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
		Duration: time.Since(start),
	}, nil
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"gpt-5", "o1", "o3", "o4"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
