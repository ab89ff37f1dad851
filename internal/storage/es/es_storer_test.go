package es

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
)

func TestToDocument(t *testing.T) {
	runID := uuid.New()
	exp := &runner.ExperimentResult{ExperimentID: "exp_1", RunID: runID}
	c := &runner.ConditionResult{
		ConditionID:       "B",
		Provider:          "gemini",
		State:             runner.StateCompleted,
		AggregateExact:    runner.Aggregate{Precision: 0.5, Recall: 0.25, F1: 0.3333},
		AggregateSemantic: &runner.Aggregate{F1: 0.6},
		Latency:           runner.CallStats{MeanMs: 812},
	}
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	doc := toDocument(exp, c, at)
	assert.Equal(t, "exp_1_B", doc.ID)
	assert.Equal(t, runID.String(), doc.RunID)
	assert.Equal(t, "COMPLETED", doc.State)
	assert.Equal(t, 0.25, doc.ExactRecall)
	require.NotNil(t, doc.SemanticF1)
	assert.Equal(t, 0.6, *doc.SemanticF1)
	assert.Equal(t, 812.0, doc.MeanLatencyMs)
	assert.Equal(t, at, doc.IndexedAt)
}
