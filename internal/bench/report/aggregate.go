package report

import (
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/analysis"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
)

// Generate builds a report from an experiment and, optionally, its analysis.
func Generate(exp *runner.ExperimentResult, an *analysis.Analysis) *Report {
	r := &Report{
		Meta: BenchMeta{
			ExperimentID: exp.ExperimentID,
			RunID:        exp.RunID,
			Timestamp:    exp.Timestamp,
			ArticleCount: exp.Articles,
			Config:       exp.Config,
			Environment:  NewEnvironmentInfo(),
		},
		Conditions: make([]ConditionRow, 0, len(exp.Conditions)),
		Analysis:   an,
	}

	for _, c := range exp.Conditions {
		r.Conditions = append(r.Conditions, ConditionRow{
			ID:             c.ConditionID,
			PromptType:     c.PromptType,
			Provider:       c.Provider,
			Model:          c.Model,
			State:          c.State,
			Exact:          c.AggregateExact,
			Semantic:       c.AggregateSemantic,
			JSONCompliance: c.JSONComplianceRate,
			Articles:       len(c.Articles),
			Failed:         c.FailedArticles,
			TotalTokens:    c.TotalTokens,
			Latency:        c.Latency,
		})
	}

	return r
}
