//go:build integration

package es

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	testutil "github.com/DjordjeVuckovic/news-highlight/pkg/testing"
)

func TestStorer_Integration(t *testing.T) {
	ctx := context.Background()
	container := testutil.NewESContainer(ctx, t)

	s, err := NewStorer(ctx, ClientConfig{
		Addresses: container.Addresses(),
		IndexName: "experiment_conditions_test",
	})
	require.NoError(t, err)

	// a second storer on the same index must not try to recreate it
	_, err = NewStorer(ctx, ClientConfig{
		Addresses: container.Addresses(),
		IndexName: "experiment_conditions_test",
	})
	require.NoError(t, err)

	exp := &runner.ExperimentResult{
		ExperimentID: "exp_1",
		RunID:        uuid.New(),
		Timestamp:    time.Now().UTC(),
		Conditions: []runner.ConditionResult{
			{ConditionID: "D", PromptType: llm.PromptOptimized, Provider: llm.Gemini, Model: "gemini-2.5-flash-lite",
				State: runner.StateCompleted, AggregateExact: runner.Aggregate{F1: 0.5}},
			{ConditionID: "A", PromptType: llm.PromptBaseline, Provider: llm.Gemini, Model: "gemini-2.5-flash-lite",
				State: runner.StateFailed, AggregateSemantic: &runner.Aggregate{F1: 0.2}},
		},
	}
	require.NoError(t, s.Save(ctx, exp))

	docs, err := s.Conditions(ctx, "exp_1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "A", docs[0].ConditionID)
	assert.Equal(t, "exp_1_A", docs[0].ID)
	require.NotNil(t, docs[0].SemanticF1)
	assert.Equal(t, "FAILED", docs[0].State)
	assert.Nil(t, docs[1].SemanticF1)

	none, err := s.Conditions(ctx, "exp_other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
