// Package runner executes the experiment matrix: every condition against every
// article, with rate limiting, per-call timeouts, retries and bounded
// parallelism, then scores and aggregates the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/metrics"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
)

// AnalyzeFunc calls the model for one article under one condition.
type AnalyzeFunc func(ctx context.Context, article domain.ArticleCase, cond ConditionSpec) (*llm.Response, error)

type Runner struct {
	config   Config
	semantic similarity.Matcher
	matchOpt []metrics.Option
	now      func() time.Time
}

type Option func(*Runner)

// WithSemanticMatcher enables semantic scoring next to exact scoring.
func WithSemanticMatcher(m similarity.Matcher) Option {
	return func(r *Runner) {
		r.semantic = m
	}
}

func WithMatchOptions(opts ...metrics.Option) Option {
	return func(r *Runner) {
		r.matchOpt = append(r.matchOpt, opts...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

func New(cfg Config, opts ...Option) *Runner {
	r := &Runner{
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Config() Config {
	return r.config
}

// RunExperiment runs every condition and wraps the results with an experiment
// ID derived from the start time.
func (r *Runner) RunExperiment(
	ctx context.Context,
	conditions []ConditionSpec,
	articles []domain.ArticleCase,
	analyze AnalyzeFunc,
) (*ExperimentResult, error) {
	started := r.now()
	exp := &ExperimentResult{
		ExperimentID: NewExperimentID(started),
		RunID:        uuid.New(),
		Timestamp:    started,
		Config:       r.config,
		Articles:     len(articles),
	}

	slog.Info("starting experiment",
		"experiment_id", exp.ExperimentID,
		"run_id", exp.RunID,
		"conditions", len(conditions),
		"articles", len(articles),
	)

	results, err := r.Run(ctx, conditions, articles, analyze)
	exp.Conditions = results
	if err != nil {
		return exp, err
	}

	return exp, nil
}

// Run executes conditions one after another. Per-article failures never abort
// a condition. Cancelling ctx stops the run and returns the conditions that
// were reached together with the context error.
func (r *Runner) Run(
	ctx context.Context,
	conditions []ConditionSpec,
	articles []domain.ArticleCase,
	analyze AnalyzeFunc,
) ([]ConditionResult, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid runner config: %w", err)
	}
	if err := validateConditions(conditions); err != nil {
		return nil, err
	}

	results := make([]ConditionResult, 0, len(conditions))
	for _, cond := range conditions {
		cr := r.RunCondition(ctx, cond, articles, analyze)
		results = append(results, cr)

		if err := ctx.Err(); err != nil {
			return results, err
		}
	}

	return results, nil
}

func validateConditions(conditions []ConditionSpec) error {
	seen := make(map[string]bool, len(conditions))
	for _, c := range conditions {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate condition id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// RunCondition runs one condition over all articles. Articles run concurrently
// up to the configured parallelism and results keep input order.
func (r *Runner) RunCondition(
	ctx context.Context,
	cond ConditionSpec,
	articles []domain.ArticleCase,
	analyze AnalyzeFunc,
) ConditionResult {
	sm := &stateMachine{condition: cond.ID, state: StatePending}
	cr := ConditionResult{
		ConditionID: cond.ID,
		PromptType:  cond.PromptType,
		Provider:    cond.Provider,
		Model:       cond.Model,
		State:       sm.state,
		StartedAt:   r.now(),
	}

	r.mustTransition(sm, StateRunning)
	slog.Info("running condition",
		"condition", cond.ID,
		"prompt_type", cond.PromptType,
		"provider", cond.Provider,
		"model", cond.Model,
		"articles", len(articles),
	)

	limiter := NewLimiter(r.config.RateLimitDelay)
	out := make([]ArticleMetrics, len(articles))

	var g errgroup.Group
	g.SetLimit(r.config.Parallelism)
	for i := range articles {
		g.Go(func() error {
			out[i] = r.runArticle(ctx, limiter, cond, articles[i], analyze)
			return nil
		})
	}
	_ = g.Wait()

	cr.Articles = out
	r.summarize(&cr)

	r.mustTransition(sm, finalState(len(out), cr.FailedArticles))
	cr.State = sm.state
	cr.FinishedAt = r.now()

	slog.Info("condition finished",
		"condition", cond.ID,
		"state", cr.State,
		"failed", cr.FailedArticles,
		"exact_f1", cr.AggregateExact.F1,
		"json_compliance", cr.JSONComplianceRate,
	)

	return cr
}

func (r *Runner) mustTransition(sm *stateMachine, to State) {
	if err := sm.transition(to); err != nil {
		// transitions are driven only by RunCondition
		panic(err)
	}
}

func (r *Runner) runArticle(
	ctx context.Context,
	limiter *rate.Limiter,
	cond ConditionSpec,
	article domain.ArticleCase,
	analyze AnalyzeFunc,
) ArticleMetrics {
	am := ArticleMetrics{
		ArticleID: article.ID,
		Gold:      article.Gold,
		Predicted: []string{},
	}

	policy := r.config.Retry
	if policy.OnRetry == nil {
		policy.OnRetry = logRetry(cond.ID, article.ID)
	}

	start := time.Now()
	resp, attempts, err := retryVal(ctx, policy, func(ctx context.Context) (*llm.Response, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		callCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
		return analyze(callCtx, article, cond)
	})
	am.Attempts = attempts
	am.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		am.Error = err.Error()
		slog.Warn("article failed", "condition", cond.ID, "article", article.ID, "attempts", attempts, "error", err)
		return am
	}

	am.RawResponse = resp.Raw
	am.TokensUsed = resp.Usage.Total()
	if resp.Duration > 0 {
		am.DurationMs = resp.Duration.Milliseconds()
	}

	switch sel := llm.ParseSelection(resp.Raw, cond.Provider).(type) {
	case llm.Valid:
		am.JSONValid = true
		am.Predicted = sel.Texts()
	case llm.Malformed:
		slog.Warn("malformed model output", "condition", cond.ID, "article", article.ID, "error", sel.Err)
	}

	exact, err := metrics.ScoreSets(ctx, am.Predicted, am.Gold, similarity.Exact{}, r.matchOpt...)
	if err != nil {
		am.Error = fmt.Sprintf("exact scoring: %v", err)
		return am
	}
	am.Exact = exact

	if r.semantic != nil {
		sem, err := metrics.ScoreSets(ctx, am.Predicted, am.Gold, r.semantic, r.matchOpt...)
		switch {
		case err == nil:
			am.Semantic = &sem
		case errors.Is(err, similarity.ErrEmbedding):
			am.SemanticError = err.Error()
			slog.Warn("semantic scoring unavailable", "condition", cond.ID, "article", article.ID, "error", err)
		default:
			am.Error = fmt.Sprintf("semantic scoring: %v", err)
		}
	}

	return am
}

// summarize fills aggregate fields once every article has finished.
func (r *Runner) summarize(cr *ConditionResult) {
	var (
		exact     []metrics.Scores
		semantic  []metrics.Scores
		durations []time.Duration
		valid     int
	)

	for _, a := range cr.Articles {
		cr.TotalTokens += a.TokensUsed
		if a.Failed() {
			cr.FailedArticles++
			continue
		}
		exact = append(exact, a.Exact)
		if a.Semantic != nil {
			semantic = append(semantic, *a.Semantic)
		}
		if a.JSONValid {
			valid++
		}
		durations = append(durations, time.Duration(a.DurationMs)*time.Millisecond)
	}

	cr.AggregateExact = aggregate(exact)
	if len(semantic) > 0 {
		agg := aggregate(semantic)
		cr.AggregateSemantic = &agg
	}

	if n := len(exact); n > 0 {
		cr.JSONComplianceRate = float64(valid) / float64(n)
	}
	if n := len(cr.Articles); n > 0 {
		cr.FailureRate = float64(cr.FailedArticles) / float64(n)
	}

	cr.Latency = ComputeCallStats(durations)
	cr.AvgDurationMs = cr.Latency.MeanMs

	if cr.FailedArticles == len(cr.Articles) && len(cr.Articles) > 0 {
		cr.Error = cr.Articles[0].Error
	}
}
