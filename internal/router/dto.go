package router

import (
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/metrics"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
)

type SentenceDTO struct {
	Text   string `json:"text"`
	Reason string `json:"reason,omitempty"`
}

type AnalyzeRequest struct {
	ArticleText string            `json:"article_text"`
	Provider    domain.ProviderID `json:"provider,omitempty"`
	Model       string            `json:"model,omitempty"`
	PromptType  llm.PromptType    `json:"prompt_type,omitempty"`
}

type AnalyzeResponse struct {
	Success   bool              `json:"success"`
	Provider  domain.ProviderID `json:"provider"`
	Model     string            `json:"model"`
	JSONValid bool              `json:"json_valid"`
	Sentences []SentenceDTO     `json:"sentences"`
	Count     int               `json:"count"`
	Error     string            `json:"error,omitempty"`
}

type ConsensusRequest struct {
	// Providers is the configured set. Defaults to the keys of Selections.
	Providers  []domain.ProviderID                 `json:"providers,omitempty"`
	Selections map[domain.ProviderID][]SentenceDTO `json:"selections"`
}

type AnalyzeConsensusRequest struct {
	ArticleText string              `json:"article_text"`
	Providers   []domain.ProviderID `json:"providers,omitempty"`
	PromptType  llm.PromptType      `json:"prompt_type,omitempty"`
}

type ProviderFailure struct {
	Provider domain.ProviderID `json:"provider"`
	Error    string            `json:"error"`
}

type ConsensusResponse struct {
	Success             bool                       `json:"success"`
	TotalProviders      int                        `json:"total_providers"`
	SuccessfulProviders []domain.ProviderID        `json:"successful_providers"`
	FailedProviders     []ProviderFailure          `json:"failed_providers"`
	Sentences           []domain.ConsensusSentence `json:"sentences"`
	Count               int                        `json:"count"`
	Error               string                     `json:"error,omitempty"`
}

type ScoreRequest struct {
	Predicted []string `json:"predicted"`
	Gold      []string `json:"gold"`
	Semantic  bool     `json:"semantic"`
}

type ScoreResponse struct {
	Exact         metrics.Scores  `json:"exact"`
	Semantic      *metrics.Scores `json:"semantic,omitempty"`
	SemanticError string          `json:"semantic_error,omitempty"`
}

type ProvidersResponse struct {
	Providers        []domain.ProviderID `json:"providers"`
	DefaultProviders []domain.ProviderID `json:"default_providers"`
	Semantic         bool                `json:"semantic"`
}
