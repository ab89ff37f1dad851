package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

type AnthropicClient struct {
	model       string
	temperature float64
	maxTokens   int64
	client      sdk.Client
}

// NewAnthropicClient builds the Claude provider. SDK retries are disabled;
// the experiment runner owns retry policy.
func NewAnthropicClient(pc ProviderConfig, temperature float32, maxTokens int, timeout time.Duration) (*AnthropicClient, error) {
	if pc.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", Claude, ErrMissingAPIKey)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(pc.APIKey),
		option.WithMaxRetries(0),
	}
	if pc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(pc.BaseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	slog.Info("initialized llm provider", "provider", Claude, "model", pc.Model)
	return &AnthropicClient{
		model:       pc.Model,
		temperature: float64(temperature),
		maxTokens:   int64(maxTokens),
		client:      sdk.NewClient(opts...),
	}, nil
}

func (c *AnthropicClient) Name() domain.ProviderID { return Claude }

func (c *AnthropicClient) Model() string { return c.model }

func (c *AnthropicClient) Analyze(ctx context.Context, req Request) (*Response, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.ArticleText)),
		},
		Temperature: sdk.Float(c.temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return nil, newProviderError(Claude, status, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return nil, newProviderError(Claude, 0, errors.New("no text content returned"))
	}

	return &Response{
		Raw:      b.String(),
		Provider: Claude,
		Model:    string(msg.Model),
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
		Duration: time.Since(start),
	}, nil
}
