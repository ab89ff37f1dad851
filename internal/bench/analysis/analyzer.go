package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/pkg/utils"
)

type Metric string

const (
	MetricExact    Metric = "exact"
	MetricSemantic Metric = "semantic"
)

// ModelKey identifies one model independent of prompt type.
type ModelKey struct {
	Provider domain.ProviderID `json:"provider"`
	Model    string            `json:"model"`
}

func (k ModelKey) String() string {
	return fmt.Sprintf("%s/%s", k.Provider, k.Model)
}

func keyOf(c *runner.ConditionResult) ModelKey {
	return ModelKey{Provider: c.Provider, Model: c.Model}
}

type PIREntry struct {
	ModelKey
	BaselineID          string   `json:"baseline_condition"`
	OptimizedID         string   `json:"optimized_condition"`
	BaselineF1          float64  `json:"baseline_f1"`
	OptimizedF1         float64  `json:"optimized_f1"`
	AbsoluteImprovement float64  `json:"absolute_improvement"`
	PIR                 *float64 `json:"pir,omitempty"`
	Error               string   `json:"error,omitempty"`
}

type IMAResult struct {
	Overall      *float64                   `json:"overall,omitempty"`
	ByPromptType map[llm.PromptType]float64 `json:"by_prompt_type"`
	// Improvement is optimized minus baseline when both exist.
	Improvement *float64 `json:"improvement,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type SignificanceEntry struct {
	Label      string `json:"label"`
	ConditionA string `json:"condition_a"`
	ConditionB string `json:"condition_b"`
	Pairs      int    `json:"pairs"`
	Test       *TTest `json:"test,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Summary struct {
	TotalConditions int `json:"total_conditions"`
	TotalArticles   int `json:"total_articles"`
	TotalAPICalls   int `json:"total_api_calls"`
	FailedArticles  int `json:"failed_articles"`
}

type Analysis struct {
	ExperimentID string    `json:"experiment_id"`
	Timestamp    time.Time `json:"timestamp"`
	Metric       Metric    `json:"metric"`

	PIR []PIREntry `json:"pir"`
	IMA IMAResult  `json:"ima"`
	// PromptSignificance compares optimized against baseline for each model.
	PromptSignificance []SignificanceEntry `json:"prompt_significance"`
	// ModelSignificance compares models pairwise within each prompt type.
	ModelSignificance []SignificanceEntry `json:"model_significance"`

	Summary Summary `json:"summary"`
}

// IMA is the mean pairwise Jaccard similarity of normalized predicted sets
// over every pair of conditions that share an article and a prompt type but
// differ in provider or model. Pairs with two empty sets are skipped.
func IMA(conditions []runner.ConditionResult) (float64, error) {
	var all []float64
	for _, scores := range imaPairs(conditions) {
		all = append(all, scores...)
	}
	if len(all) == 0 {
		return 0, fmt.Errorf("%w: no comparable condition pairs", ErrInsufficientSamples)
	}
	return utils.Mean(all), nil
}

// IMAByPromptType is IMA restricted to each prompt type. Prompt types without
// comparable pairs are left out.
func IMAByPromptType(conditions []runner.ConditionResult) (map[llm.PromptType]float64, error) {
	out := make(map[llm.PromptType]float64)
	for pt, scores := range imaPairs(conditions) {
		if len(scores) > 0 {
			out[pt] = utils.Mean(scores)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no comparable condition pairs", ErrInsufficientSamples)
	}
	return out, nil
}

func imaPairs(conditions []runner.ConditionResult) map[llm.PromptType][]float64 {
	byType := make(map[llm.PromptType][]*runner.ConditionResult)
	for i := range conditions {
		c := &conditions[i]
		byType[c.PromptType] = append(byType[c.PromptType], c)
	}

	out := make(map[llm.PromptType][]float64)
	for pt, conds := range byType {
		for i := 0; i < len(conds); i++ {
			for j := i + 1; j < len(conds); j++ {
				if keyOf(conds[i]) == keyOf(conds[j]) {
					continue
				}
				for _, a := range conds[i].Articles {
					if a.Failed() {
						continue
					}
					b, ok := conds[j].ArticleByID(a.ArticleID)
					if !ok || b.Failed() {
						continue
					}
					if score, ok := Jaccard(a.Predicted, b.Predicted); ok {
						out[pt] = append(out[pt], score)
					}
				}
			}
		}
	}
	return out
}

type Analyzer struct {
	metric Metric
}

type Option func(*Analyzer)

// WithMetric selects which F1 feeds PIR and significance tests.
func WithMetric(m Metric) Option {
	return func(a *Analyzer) {
		a.metric = m
	}
}

func New(opts ...Option) *Analyzer {
	a := &Analyzer{metric: MetricSemantic}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds the full comparison for an experiment. Statistical
// precondition failures are recorded on the affected entry.
func (a *Analyzer) Analyze(exp *runner.ExperimentResult) *Analysis {
	metric := a.effectiveMetric(exp)

	out := &Analysis{
		ExperimentID: exp.ExperimentID,
		Timestamp:    exp.Timestamp,
		Metric:       metric,
		Summary:      summarize(exp),
	}

	for _, pair := range promptPairs(exp.Conditions) {
		baseline, optimized := pair[0], pair[1]
		out.PIR = append(out.PIR, pirEntry(baseline, optimized, metric))
		out.PromptSignificance = append(out.PromptSignificance,
			significanceEntry(keyOf(baseline).String()+" optimized vs baseline", optimized, baseline, metric))
	}

	out.IMA = imaResult(exp.Conditions)

	for _, pair := range modelPairs(exp.Conditions) {
		label := fmt.Sprintf("%s: %s vs %s", pair[0].PromptType, keyOf(pair[0]), keyOf(pair[1]))
		out.ModelSignificance = append(out.ModelSignificance, significanceEntry(label, pair[0], pair[1], metric))
	}

	slog.Info("analysis complete",
		"experiment_id", exp.ExperimentID,
		"metric", metric,
		"pir_entries", len(out.PIR),
		"model_comparisons", len(out.ModelSignificance),
	)

	return out
}

// effectiveMetric falls back to exact when no condition has semantic scores.
func (a *Analyzer) effectiveMetric(exp *runner.ExperimentResult) Metric {
	if a.metric != MetricSemantic {
		return a.metric
	}
	for _, c := range exp.Conditions {
		if c.AggregateSemantic != nil {
			return MetricSemantic
		}
	}
	return MetricExact
}

func aggregateF1(c *runner.ConditionResult, m Metric) (float64, bool) {
	if m == MetricSemantic {
		if c.AggregateSemantic == nil {
			return 0, false
		}
		return c.AggregateSemantic.F1, true
	}
	return c.AggregateExact.F1, c.AggregateExact.N > 0
}

func articleF1(am runner.ArticleMetrics, m Metric) (float64, bool) {
	if am.Failed() {
		return 0, false
	}
	if m == MetricSemantic {
		if am.Semantic == nil {
			return 0, false
		}
		return am.Semantic.F1, true
	}
	return am.Exact.F1, true
}

func pirEntry(baseline, optimized *runner.ConditionResult, m Metric) PIREntry {
	e := PIREntry{
		ModelKey:    keyOf(baseline),
		BaselineID:  baseline.ConditionID,
		OptimizedID: optimized.ConditionID,
	}

	bF1, okB := aggregateF1(baseline, m)
	oF1, okO := aggregateF1(optimized, m)
	if !okB || !okO {
		e.Error = fmt.Sprintf("%s: no scored articles", ErrInsufficientSamples)
		return e
	}

	e.BaselineF1, e.OptimizedF1 = bF1, oF1
	e.AbsoluteImprovement = oF1 - bF1

	pir, err := PIR(oF1, bF1)
	if err != nil {
		e.Error = err.Error()
		return e
	}
	e.PIR = &pir
	return e
}

// pairedF1 collects per-article F1 for articles scored in both conditions,
// in the order of a.
func pairedF1(a, b *runner.ConditionResult, m Metric) ([]float64, []float64) {
	var xs, ys []float64
	for _, am := range a.Articles {
		x, ok := articleF1(am, m)
		if !ok {
			continue
		}
		bm, ok := b.ArticleByID(am.ArticleID)
		if !ok {
			continue
		}
		y, ok := articleF1(bm, m)
		if !ok {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys
}

func significanceEntry(label string, a, b *runner.ConditionResult, m Metric) SignificanceEntry {
	xs, ys := pairedF1(a, b, m)
	e := SignificanceEntry{
		Label:      label,
		ConditionA: a.ConditionID,
		ConditionB: b.ConditionID,
		Pairs:      len(xs),
	}

	tt, err := Significance(xs, ys)
	if err != nil {
		e.Error = err.Error()
		return e
	}
	e.Test = &tt
	return e
}

func imaResult(conditions []runner.ConditionResult) IMAResult {
	res := IMAResult{ByPromptType: map[llm.PromptType]float64{}}

	overall, err := IMA(conditions)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Overall = &overall

	byType, err := IMAByPromptType(conditions)
	if err != nil && !errors.Is(err, ErrInsufficientSamples) {
		res.Error = err.Error()
		return res
	}
	res.ByPromptType = byType

	b, okB := byType[llm.PromptBaseline]
	o, okO := byType[llm.PromptOptimized]
	if okB && okO {
		diff := o - b
		res.Improvement = &diff
	}
	return res
}

// promptPairs matches baseline and optimized conditions of the same model,
// ordered by model key.
func promptPairs(conditions []runner.ConditionResult) [][2]*runner.ConditionResult {
	baselines := make(map[ModelKey]*runner.ConditionResult)
	optimized := make(map[ModelKey]*runner.ConditionResult)
	for i := range conditions {
		c := &conditions[i]
		switch c.PromptType {
		case llm.PromptBaseline:
			if _, dup := baselines[keyOf(c)]; !dup {
				baselines[keyOf(c)] = c
			}
		case llm.PromptOptimized:
			if _, dup := optimized[keyOf(c)]; !dup {
				optimized[keyOf(c)] = c
			}
		}
	}

	var keys []ModelKey
	for k := range baselines {
		if _, ok := optimized[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	out := make([][2]*runner.ConditionResult, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]*runner.ConditionResult{baselines[k], optimized[k]})
	}
	return out
}

// modelPairs lists condition pairs with the same prompt type and different
// models, in condition order.
func modelPairs(conditions []runner.ConditionResult) [][2]*runner.ConditionResult {
	var out [][2]*runner.ConditionResult
	for i := range conditions {
		for j := i + 1; j < len(conditions); j++ {
			a, b := &conditions[i], &conditions[j]
			if a.PromptType == b.PromptType && keyOf(a) != keyOf(b) {
				out = append(out, [2]*runner.ConditionResult{a, b})
			}
		}
	}
	return out
}

func summarize(exp *runner.ExperimentResult) Summary {
	s := Summary{
		TotalConditions: len(exp.Conditions),
		TotalArticles:   exp.Articles,
	}
	for _, c := range exp.Conditions {
		for _, a := range c.Articles {
			s.TotalAPICalls += a.Attempts
		}
		s.FailedArticles += c.FailedArticles
	}
	if s.TotalArticles == 0 && len(exp.Conditions) > 0 {
		s.TotalArticles = len(exp.Conditions[0].Articles)
	}
	return s
}
