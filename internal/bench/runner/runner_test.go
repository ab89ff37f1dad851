package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = time.Second
	cfg.RateLimitDelay = 0
	cfg.Retry.InitialBackoff = time.Millisecond
	cfg.Retry.MaxBackoff = 5 * time.Millisecond
	cfg.Retry.JitterFraction = 0
	return cfg
}

var condA = ConditionSpec{ID: "A", PromptType: llm.PromptBaseline, Provider: llm.OpenAI, Model: "gpt-5-nano"}

func articles(n int) []domain.ArticleCase {
	out := make([]domain.ArticleCase, n)
	for i := range out {
		out[i] = domain.ArticleCase{
			ID:   fmt.Sprintf("art_%03d", i),
			Body: "본문",
			Gold: []string{"G1", "G2"},
		}
	}
	return out
}

func respond(raw string) *llm.Response {
	return &llm.Response{Raw: raw, Usage: llm.Usage{InputTokens: 10, OutputTokens: 5}}
}

func TestRunCondition_AllValid(t *testing.T) {
	r := New(testConfig())
	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		return respond(`{"core_sentences":[{"sentence":"G1","reason":"r"},{"sentence":"X","reason":"r"}]}`), nil
	}

	cr := r.RunCondition(context.Background(), condA, articles(3), analyze)

	assert.Equal(t, StateCompleted, cr.State)
	assert.Len(t, cr.Articles, 3)
	assert.Equal(t, 0, cr.FailedArticles)
	assert.Equal(t, 1.0, cr.JSONComplianceRate)
	assert.InDelta(t, 0.5, cr.AggregateExact.Precision, 1e-9)
	assert.InDelta(t, 0.5, cr.AggregateExact.Recall, 1e-9)
	assert.InDelta(t, 0.5, cr.AggregateExact.F1, 1e-9)
	assert.Zero(t, cr.AggregateExact.F1Std)
	assert.Equal(t, int64(45), cr.TotalTokens)
	assert.Nil(t, cr.AggregateSemantic)
	for _, a := range cr.Articles {
		assert.Equal(t, 1, a.Attempts)
		assert.Equal(t, []string{"G1", "X"}, a.Predicted)
	}
}

func TestRunCondition_PreservesInputOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Parallelism = 4
	r := New(cfg)

	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		// later articles finish first
		var idx int
		_, _ = fmt.Sscanf(a.ID, "art_%d", &idx)
		time.Sleep(time.Duration(10-idx) * time.Millisecond)
		return respond(`{"claims":[]}`), nil
	}

	cr := r.RunCondition(context.Background(), condA, articles(8), analyze)
	for i, a := range cr.Articles {
		assert.Equal(t, fmt.Sprintf("art_%03d", i), a.ArticleID)
	}
}

func TestRunCondition_MalformedOutput(t *testing.T) {
	r := New(testConfig())
	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		if a.ID == "art_000" {
			return respond("I think the key sentences are G1 and G2."), nil
		}
		return respond(`{"G1":"r","G2":"r"}`), nil
	}

	cr := r.RunCondition(context.Background(), condA, articles(2), analyze)

	assert.Equal(t, StateCompleted, cr.State)
	assert.False(t, cr.Articles[0].JSONValid)
	assert.Empty(t, cr.Articles[0].Predicted)
	assert.Zero(t, cr.Articles[0].Exact.F1)
	assert.True(t, cr.Articles[1].JSONValid)
	assert.Equal(t, 1.0, cr.Articles[1].Exact.F1)
	assert.Equal(t, 0.5, cr.JSONComplianceRate)
	assert.InDelta(t, 0.5, cr.AggregateExact.F1, 1e-9)
}

func TestRunCondition_RetriesTransientErrors(t *testing.T) {
	r := New(testConfig())
	var calls atomic.Int32
	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		if calls.Add(1) < 3 {
			return nil, &llm.ProviderError{Provider: llm.OpenAI, StatusCode: 429, Transient: true, Err: errors.New("rate limited")}
		}
		return respond(`{"claims":[{"text":"G1","reason":"r"}]}`), nil
	}

	cr := r.RunCondition(context.Background(), condA, articles(1), analyze)

	assert.Equal(t, StateCompleted, cr.State)
	assert.Equal(t, 3, cr.Articles[0].Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunCondition_PermanentErrorIsNotRetried(t *testing.T) {
	r := New(testConfig())
	var calls atomic.Int32
	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		if a.ID == "art_001" {
			calls.Add(1)
			return nil, &llm.ProviderError{Provider: llm.OpenAI, StatusCode: 401, Err: errors.New("bad key")}
		}
		return respond(`{"claims":[{"text":"G1","reason":"r"}]}`), nil
	}

	cr := r.RunCondition(context.Background(), condA, articles(3), analyze)

	assert.Equal(t, StatePartial, cr.State)
	assert.Equal(t, 1, cr.FailedArticles)
	assert.InDelta(t, 1.0/3.0, cr.FailureRate, 1e-9)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, cr.Articles[1].Failed())
	assert.Equal(t, 2, cr.AggregateExact.N)
	assert.Equal(t, 1.0, cr.JSONComplianceRate)
}

func TestRunCondition_AllFailed(t *testing.T) {
	r := New(testConfig())
	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		return nil, &llm.ProviderError{Provider: llm.OpenAI, StatusCode: 503, Transient: true, Err: errors.New("down")}
	}

	cr := r.RunCondition(context.Background(), condA, articles(2), analyze)

	assert.Equal(t, StateFailed, cr.State)
	assert.Equal(t, 2, cr.FailedArticles)
	assert.Equal(t, 1.0, cr.FailureRate)
	assert.Equal(t, DefaultMaxAttempts, cr.Articles[0].Attempts)
	assert.NotEmpty(t, cr.Error)
	assert.Zero(t, cr.JSONComplianceRate)
}

func TestRunCondition_TimeoutCountsAsFailedAttempt(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.Retry.MaxAttempts = 2
	r := New(cfg)

	var calls atomic.Int32
	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		calls.Add(1)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	cr := r.RunCondition(context.Background(), condA, articles(1), analyze)

	assert.Equal(t, StateFailed, cr.State)
	assert.Equal(t, 2, cr.Articles[0].Attempts)
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, cr.Articles[0].Error, "deadline exceeded")
}

func TestRunCondition_BoundedParallelism(t *testing.T) {
	cfg := testConfig()
	cfg.Parallelism = 2
	r := New(cfg)

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		mu.Lock()
		active++
		maxSeen = max(maxSeen, active)
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return respond(`{"claims":[]}`), nil
	}

	cr := r.RunCondition(context.Background(), condA, articles(6), analyze)
	assert.Equal(t, StateCompleted, cr.State)
	assert.LessOrEqual(t, maxSeen, 2)
}

func TestRunCondition_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Parallelism = 4
	cfg.RateLimitDelay = 25 * time.Millisecond
	r := New(cfg)

	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		return respond(`{"claims":[]}`), nil
	}

	start := time.Now()
	r.RunCondition(context.Background(), condA, articles(4), analyze)

	// first call is immediate, the remaining three wait one interval each
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

type fakeSemantic struct {
	fail bool
}

func (f fakeSemantic) Score(_ context.Context, a, b string) (float64, error) {
	if f.fail {
		return 0, &similarity.EmbeddingError{Text: a, Err: errors.New("unavailable")}
	}
	if a == "G1 paraphrase" && b == "G1" {
		return 0.5, nil
	}
	return similarity.ExactScore(a, b), nil
}

func (fakeSemantic) Mode() similarity.Mode { return similarity.ModeSemantic }

func TestRunCondition_SemanticScoring(t *testing.T) {
	r := New(testConfig(), WithSemanticMatcher(fakeSemantic{}))
	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		return respond(`{"claims":[{"text":"G1 paraphrase","reason":"r"}]}`), nil
	}

	cr := r.RunCondition(context.Background(), condA, articles(1), analyze)

	require.NotNil(t, cr.AggregateSemantic)
	assert.Zero(t, cr.AggregateExact.F1)
	assert.InDelta(t, 0.5, cr.AggregateSemantic.Precision, 1e-9)
	assert.InDelta(t, 0.25, cr.AggregateSemantic.Recall, 1e-9)
}

func TestRunCondition_SemanticFailureLeavesArticleUnscored(t *testing.T) {
	r := New(testConfig(), WithSemanticMatcher(fakeSemantic{fail: true}))
	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		return respond(`{"claims":[{"text":"other","reason":"r"}]}`), nil
	}

	cr := r.RunCondition(context.Background(), condA, articles(2), analyze)

	assert.Equal(t, StateCompleted, cr.State)
	assert.Nil(t, cr.AggregateSemantic)
	for _, a := range cr.Articles {
		assert.Nil(t, a.Semantic)
		assert.NotEmpty(t, a.SemanticError)
		assert.False(t, a.Failed())
	}
}

func TestRunCondition_NoArticles(t *testing.T) {
	r := New(testConfig())
	cr := r.RunCondition(context.Background(), condA, nil, nil)
	assert.Equal(t, StateCompleted, cr.State)
	assert.Empty(t, cr.Articles)
}

func TestRun_ValidatesConditions(t *testing.T) {
	r := New(testConfig())

	_, err := r.Run(context.Background(), []ConditionSpec{condA, condA}, articles(1), nil)
	assert.ErrorContains(t, err, "duplicate condition")

	_, err = r.Run(context.Background(), []ConditionSpec{{ID: "X", PromptType: "fancy", Provider: llm.Gemini}}, articles(1), nil)
	assert.ErrorContains(t, err, "prompt_type")

	bad := testConfig()
	bad.Parallelism = 0
	_, err = New(bad).Run(context.Background(), []ConditionSpec{condA}, articles(1), nil)
	assert.ErrorContains(t, err, "parallelism")
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(testConfig())

	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		cancel()
		return respond(`{"claims":[]}`), nil
	}
	condB := ConditionSpec{ID: "B", PromptType: llm.PromptOptimized, Provider: llm.OpenAI, Model: "gpt-5-nano"}

	results, err := r.Run(ctx, []ConditionSpec{condA, condB}, articles(1), analyze)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 1)
}

func TestRunExperiment(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }
	r := New(testConfig(), WithClock(clock))

	analyze := func(ctx context.Context, a domain.ArticleCase, c ConditionSpec) (*llm.Response, error) {
		return respond(`{"claims":[{"text":"G2","reason":"r"}]}`), nil
	}
	condB := ConditionSpec{ID: "B", PromptType: llm.PromptOptimized, Provider: llm.OpenAI, Model: "gpt-5-nano"}

	exp, err := r.RunExperiment(context.Background(), []ConditionSpec{condA, condB}, articles(2), analyze)
	require.NoError(t, err)

	assert.Equal(t, "exp_20250314_092653", exp.ExperimentID)
	assert.NotEqual(t, [16]byte{}, [16]byte(exp.RunID))
	assert.Equal(t, 2, exp.Articles)
	require.Len(t, exp.Conditions, 2)

	b, ok := exp.Condition("B")
	require.True(t, ok)
	assert.Equal(t, llm.PromptOptimized, b.PromptType)
}

func TestState_Transitions(t *testing.T) {
	assert.True(t, StatePending.CanTransition(StateRunning))
	assert.False(t, StatePending.CanTransition(StateCompleted))
	assert.True(t, StateRunning.CanTransition(StatePartial))
	assert.False(t, StateCompleted.CanTransition(StateRunning))
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateRunning.Terminal())

	assert.Equal(t, StateCompleted, finalState(3, 0))
	assert.Equal(t, StatePartial, finalState(3, 1))
	assert.Equal(t, StateFailed, finalState(3, 3))
	assert.Equal(t, StateCompleted, finalState(0, 0))

	sm := &stateMachine{condition: "A", state: StatePending}
	assert.Error(t, sm.transition(StateFailed))
	assert.NoError(t, sm.transition(StateRunning))
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, Multiplier: 2}.withDefaults()
	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 5*time.Second, p.Backoff(3))

	fixed := RetryPolicy{InitialBackoff: time.Second, Multiplier: 1}.withDefaults()
	assert.Equal(t, time.Second, fixed.Backoff(4))
}

func TestRetryVal_OnRetryCallback(t *testing.T) {
	var seen []int
	p := RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		ShouldRetry:    func(error) bool { return true },
		OnRetry:        func(attempt int, _ error, _ time.Duration) { seen = append(seen, attempt) },
	}

	_, attempts, err := retryVal(context.Background(), p, func(context.Context) (int, error) {
		return 0, errors.New("nope")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, seen)
}
