package runner

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/metrics"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/pkg/utils"
)

const ExperimentIDLayout = "20060102_150405"

// ConditionSpec is one cell of the experiment matrix.
type ConditionSpec struct {
	ID         string            `yaml:"id" json:"condition_id"`
	PromptType llm.PromptType    `yaml:"prompt_type" json:"prompt_type"`
	Provider   domain.ProviderID `yaml:"provider" json:"provider"`
	Model      string            `yaml:"model" json:"model"`
	// PromptFile overrides the default prompt file name for this condition.
	PromptFile string `yaml:"prompt_file,omitempty" json:"prompt_file,omitempty"`
}

func (c ConditionSpec) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("condition id is required")
	}
	if !c.PromptType.Valid() {
		return fmt.Errorf("condition %s: invalid prompt_type %q", c.ID, c.PromptType)
	}
	if c.Provider == "" {
		return fmt.Errorf("condition %s: provider is required", c.ID)
	}
	return nil
}

type ArticleMetrics struct {
	ArticleID string   `json:"article_id"`
	Predicted []string `json:"predicted_sentences"`
	Gold      []string `json:"gold_sentences"`

	Exact metrics.Scores `json:"exact_metrics"`
	// Semantic is nil when semantic scoring is disabled or could not be computed.
	Semantic      *metrics.Scores `json:"semantic_metrics,omitempty"`
	SemanticError string          `json:"semantic_error,omitempty"`

	JSONValid   bool   `json:"json_valid"`
	RawResponse string `json:"raw_response,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	TokensUsed  int64  `json:"tokens_used"`
	Attempts    int    `json:"attempts"`
	Error       string `json:"error,omitempty"`
}

func (a ArticleMetrics) Failed() bool {
	return a.Error != ""
}

// Aggregate holds means and sample standard deviations over scored articles.
type Aggregate struct {
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	PrecisionStd float64 `json:"precision_std"`
	RecallStd    float64 `json:"recall_std"`
	F1Std        float64 `json:"f1_std"`
	N            int     `json:"n"`
}

func aggregate(scores []metrics.Scores) Aggregate {
	if len(scores) == 0 {
		return Aggregate{}
	}

	p := make([]float64, len(scores))
	r := make([]float64, len(scores))
	f := make([]float64, len(scores))
	for i, s := range scores {
		p[i], r[i], f[i] = s.Precision, s.Recall, s.F1
	}

	return Aggregate{
		Precision:    utils.Mean(p),
		Recall:       utils.Mean(r),
		F1:           utils.Mean(f),
		PrecisionStd: utils.StdDev(p),
		RecallStd:    utils.StdDev(r),
		F1Std:        utils.StdDev(f),
		N:            len(scores),
	}
}

type ConditionResult struct {
	ConditionID string            `json:"condition_id"`
	PromptType  llm.PromptType    `json:"prompt_type"`
	Provider    domain.ProviderID `json:"provider"`
	Model       string            `json:"model"`
	State       State             `json:"state"`

	Articles []ArticleMetrics `json:"articles"`

	AggregateExact     Aggregate  `json:"aggregate_exact"`
	AggregateSemantic  *Aggregate `json:"aggregate_semantic,omitempty"`
	JSONComplianceRate float64    `json:"json_compliance_rate"`

	FailedArticles int     `json:"failed_articles"`
	FailureRate    float64 `json:"failure_rate"`
	AvgDurationMs  float64 `json:"avg_duration_ms"`
	TotalTokens    int64   `json:"total_tokens"`
	Latency        CallStats `json:"latency"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

func (c *ConditionResult) Spec() ConditionSpec {
	return ConditionSpec{ID: c.ConditionID, PromptType: c.PromptType, Provider: c.Provider, Model: c.Model}
}

// ArticleByID returns the metrics for id, if present.
func (c *ConditionResult) ArticleByID(id string) (ArticleMetrics, bool) {
	for _, a := range c.Articles {
		if a.ArticleID == id {
			return a, true
		}
	}
	return ArticleMetrics{}, false
}

// Successful returns the articles that were not failed.
func (c *ConditionResult) Successful() []ArticleMetrics {
	out := make([]ArticleMetrics, 0, len(c.Articles))
	for _, a := range c.Articles {
		if !a.Failed() {
			out = append(out, a)
		}
	}
	return out
}

type ExperimentResult struct {
	ExperimentID string            `json:"experiment_id"`
	RunID        uuid.UUID         `json:"run_id"`
	Timestamp    time.Time         `json:"timestamp"`
	Config       Config            `json:"config"`
	Articles     int               `json:"article_count"`
	Conditions   []ConditionResult `json:"conditions"`
}

func NewExperimentID(t time.Time) string {
	return "exp_" + t.Format(ExperimentIDLayout)
}

func (e *ExperimentResult) Condition(id string) (*ConditionResult, bool) {
	for i := range e.Conditions {
		if e.Conditions[i].ConditionID == id {
			return &e.Conditions[i], true
		}
	}
	return nil, false
}
