package report

import (
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/analysis"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
)

type Report struct {
	Meta       BenchMeta          `json:"meta"`
	Conditions []ConditionRow     `json:"conditions"`
	Analysis   *analysis.Analysis `json:"analysis,omitempty"`
}

type BenchMeta struct {
	ExperimentID string          `json:"experiment_id"`
	RunID        uuid.UUID       `json:"run_id"`
	Timestamp    time.Time       `json:"timestamp"`
	ArticleCount int             `json:"article_count"`
	Config       runner.Config   `json:"config"`
	Environment  EnvironmentInfo `json:"environment"`
}

type EnvironmentInfo struct {
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	NumCPU    int    `json:"num_cpu"`
}

func NewEnvironmentInfo() EnvironmentInfo {
	return EnvironmentInfo{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
	}
}

// ConditionRow is the per-condition summary shown in every report format.
type ConditionRow struct {
	ID         string            `json:"condition_id"`
	PromptType llm.PromptType    `json:"prompt_type"`
	Provider   domain.ProviderID `json:"provider"`
	Model      string            `json:"model"`
	State      runner.State      `json:"state"`

	Exact    runner.Aggregate  `json:"exact"`
	Semantic *runner.Aggregate `json:"semantic,omitempty"`

	JSONCompliance float64          `json:"json_compliance_rate"`
	Articles       int              `json:"articles"`
	Failed         int              `json:"failed"`
	TotalTokens    int64            `json:"total_tokens"`
	Latency        runner.CallStats `json:"latency"`
}
