// Package llm calls hosted language models to select notable sentences from
// an article and parses their structured output.
package llm

import (
	"context"
	"time"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

const (
	Gemini  domain.ProviderID = "gemini"
	OpenAI  domain.ProviderID = "openai"
	Claude  domain.ProviderID = "claude"
	Mistral domain.ProviderID = "mistral"
	Llama   domain.ProviderID = "llama"
)

// KnownProviders lists every provider the factory can build.
var KnownProviders = []domain.ProviderID{Gemini, OpenAI, Claude, Mistral, Llama}

type Request struct {
	ArticleText  string
	SystemPrompt string
	// Model overrides the provider's configured model when set.
	Model string
}

type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// Response is the raw text a provider produced. Parsing is left to ParseSelection.
type Response struct {
	Raw      string
	Provider domain.ProviderID
	Model    string
	Usage    Usage
	Duration time.Duration
}

type Provider interface {
	Name() domain.ProviderID
	Model() string
	Analyze(ctx context.Context, req Request) (*Response, error)
}
