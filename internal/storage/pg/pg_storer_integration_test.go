//go:build integration

package pg

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage"
	testutil "github.com/DjordjeVuckovic/news-highlight/pkg/testing"
)

func sampleExperiment(id string, at time.Time) *runner.ExperimentResult {
	return &runner.ExperimentResult{
		ExperimentID: id,
		RunID:        uuid.New(),
		Timestamp:    at,
		Config:       runner.DefaultConfig(),
		Articles:     2,
		Conditions: []runner.ConditionResult{
			{
				ConditionID: "A", PromptType: llm.PromptBaseline, Provider: llm.OpenAI, Model: "gpt-5-nano",
				State:          runner.StateCompleted,
				AggregateExact: runner.Aggregate{F1: 0.4, N: 2},
			},
			{
				ConditionID: "D", PromptType: llm.PromptOptimized, Provider: llm.OpenAI, Model: "gpt-5-nano",
				State:             runner.StatePartial,
				AggregateExact:    runner.Aggregate{F1: 0.5, N: 1},
				AggregateSemantic: &runner.Aggregate{F1: 0.7, N: 1},
				FailedArticles:    1,
			},
		},
	}
}

func TestStorer_Integration(t *testing.T) {
	ctx := context.Background()
	container := testutil.NewPGContainerWithCleanup(ctx, t)

	pool, err := NewConnectionPool(ctx, PoolConfig{ConnStr: container.ConnString})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s, err := NewStorer(pool)
	require.NoError(t, err)

	older := sampleExperiment("exp_1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := sampleExperiment("exp_2", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))
	// saving again replaces instead of failing
	require.NoError(t, s.Save(ctx, newer))

	got, err := s.Get(ctx, "exp_2")
	require.NoError(t, err)
	assert.Equal(t, newer.RunID, got.RunID)
	require.Len(t, got.Conditions, 2)
	assert.Equal(t, runner.StatePartial, got.Conditions[1].State)

	_, err = s.Get(ctx, "exp_missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	history, err := s.ModelHistory(ctx, "openai", "gpt-5-nano")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "exp_2", history[0].ExperimentID)
	assert.Equal(t, "A", history[0].ConditionID)
	assert.Nil(t, history[0].SemanticF1)
	require.NotNil(t, history[1].SemanticF1)
	assert.InDelta(t, 0.7, *history[1].SemanticF1, 1e-9)
}
