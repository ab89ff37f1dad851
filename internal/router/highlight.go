// Package router exposes sentence selection, consensus and scoring over HTTP.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/DjordjeVuckovic/news-highlight/internal/apperr"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/metrics"
	"github.com/DjordjeVuckovic/news-highlight/internal/consensus"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
)

// DefaultConsensusProviders is used when a request names no providers.
var DefaultConsensusProviders = []domain.ProviderID{llm.Gemini, llm.OpenAI}

const DefaultRequestTimeout = 90 * time.Second

type HighlightRouter struct {
	e          *echo.Echo
	providers  map[domain.ProviderID]llm.Provider
	prompts    *llm.PromptStore
	thresholds consensus.Thresholds
	semantic   similarity.Matcher
	defaults   []domain.ProviderID
	single     domain.ProviderID
	timeout    time.Duration
}

type HighlightRouterOption func(*HighlightRouter)

// WithSemanticMatcher enables semantic scoring and semantic sentence identity
// in consensus merges.
func WithSemanticMatcher(m similarity.Matcher) HighlightRouterOption {
	return func(r *HighlightRouter) {
		r.semantic = m
	}
}

func WithThresholds(t consensus.Thresholds) HighlightRouterOption {
	return func(r *HighlightRouter) {
		r.thresholds = t
	}
}

func WithPromptStore(s *llm.PromptStore) HighlightRouterOption {
	return func(r *HighlightRouter) {
		r.prompts = s
	}
}

func WithDefaultProviders(ids ...domain.ProviderID) HighlightRouterOption {
	return func(r *HighlightRouter) {
		r.defaults = ids
	}
}

// WithAnalyzeProvider sets the provider used by /api/analyze when the request
// names none.
func WithAnalyzeProvider(id domain.ProviderID) HighlightRouterOption {
	return func(r *HighlightRouter) {
		r.single = id
	}
}

func WithRequestTimeout(d time.Duration) HighlightRouterOption {
	return func(r *HighlightRouter) {
		r.timeout = d
	}
}

func NewHighlightRouter(e *echo.Echo, providers map[domain.ProviderID]llm.Provider, opts ...HighlightRouterOption) *HighlightRouter {
	r := &HighlightRouter{
		e:          e,
		providers:  providers,
		prompts:    llm.NewPromptStore(nil),
		thresholds: consensus.DefaultThresholds,
		defaults:   DefaultConsensusProviders,
		single:     llm.DefaultProvider,
		timeout:    DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HighlightRouter) Bind() {
	g := r.e.Group("/api")
	g.GET("/providers", r.providersHandler)
	g.POST("/analyze", r.analyzeHandler)
	g.POST("/consensus", r.consensusHandler)
	g.POST("/analyze_consensus", r.analyzeConsensusHandler)
	g.POST("/score", r.scoreHandler)
}

func (r *HighlightRouter) available() []domain.ProviderID {
	ids := make([]domain.ProviderID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return domain.SortProviders(ids)
}

// providersHandler godoc
// @Summary List configured providers
// @Tags highlight
// @Produce json
// @Success 200 {object} ProvidersResponse
// @Router /api/providers [get]
func (r *HighlightRouter) providersHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, ProvidersResponse{
		Providers:        r.available(),
		DefaultProviders: r.defaults,
		Semantic:         r.semantic != nil,
	})
}

// analyzeHandler godoc
// @Summary Select notable sentences with one provider
// @Tags highlight
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "article"
// @Success 200 {object} AnalyzeResponse
// @Failure 400 {object} apperr.ErrorResponse
// @Failure 502 {object} AnalyzeResponse
// @Router /api/analyze [post]
func (r *HighlightRouter) analyzeHandler(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	if strings.TrimSpace(req.ArticleText) == "" {
		return apperr.NewFieldValidation("article_text", "article_text is required")
	}
	if req.Provider == "" {
		req.Provider = r.single
	}
	if err := validPromptType(req.PromptType); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), r.timeout)
	defer cancel()

	res := r.analyzeOne(ctx, req.Provider, req.Model, req.PromptType, req.ArticleText)
	if res.err != nil && errors.Is(res.err, llm.ErrUnknownProvider) {
		return apperr.NewValidationWrap("unsupported provider", res.err)
	}

	resp := AnalyzeResponse{
		Success:   res.err == nil,
		Provider:  req.Provider,
		Model:     res.model,
		JSONValid: res.jsonValid,
		Sentences: make([]SentenceDTO, 0, len(res.items)),
	}
	for _, it := range res.items {
		resp.Sentences = append(resp.Sentences, SentenceDTO{Text: it.Text, Reason: it.Reason})
	}
	resp.Count = len(resp.Sentences)

	if res.err != nil {
		resp.Error = res.err.Error()
		return c.JSON(http.StatusBadGateway, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// consensusHandler godoc
// @Summary Merge per-provider selections
// @Tags highlight
// @Accept json
// @Produce json
// @Param request body ConsensusRequest true "selections"
// @Success 200 {object} ConsensusResponse
// @Failure 400 {object} apperr.ErrorResponse
// @Router /api/consensus [post]
func (r *HighlightRouter) consensusHandler(c echo.Context) error {
	var req ConsensusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	if len(req.Selections) == 0 {
		return apperr.NewFieldValidation("selections", "selections are required")
	}

	configured := dedupe(req.Providers)
	if len(configured) == 0 {
		for id := range req.Selections {
			configured = append(configured, id)
		}
	}

	selections := make(map[domain.ProviderID][]domain.SentenceItem, len(req.Selections))
	for id, items := range req.Selections {
		for _, it := range items {
			selections[id] = append(selections[id], domain.SentenceItem{Text: it.Text, Reason: it.Reason, Provider: id})
		}
	}

	sentences, err := r.merger(configured).Merge(c.Request().Context(), selections)
	if err != nil {
		return fmt.Errorf("merge selections: %w", err)
	}

	return c.JSON(http.StatusOK, ConsensusResponse{
		Success:             true,
		TotalProviders:      len(domain.SortProviders(configured)),
		SuccessfulProviders: domain.SortProviders(configured),
		FailedProviders:     []ProviderFailure{},
		Sentences:           sentences,
		Count:               len(sentences),
	})
}

// analyzeConsensusHandler godoc
// @Summary Select sentences with several providers and merge them
// @Description Providers run concurrently. Failed providers are reported and
// @Description excluded; the request fails only when every provider fails.
// @Tags highlight
// @Accept json
// @Produce json
// @Param request body AnalyzeConsensusRequest true "article"
// @Success 200 {object} ConsensusResponse
// @Failure 400 {object} apperr.ErrorResponse
// @Failure 502 {object} ConsensusResponse
// @Router /api/analyze_consensus [post]
func (r *HighlightRouter) analyzeConsensusHandler(c echo.Context) error {
	var req AnalyzeConsensusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	if strings.TrimSpace(req.ArticleText) == "" {
		return apperr.NewFieldValidation("article_text", "article_text is required")
	}
	if err := validPromptType(req.PromptType); err != nil {
		return err
	}

	requested := dedupe(req.Providers)
	if len(requested) == 0 {
		requested = r.defaults
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), r.timeout)
	defer cancel()

	results := make([]analyzeResult, len(requested))
	var g errgroup.Group
	for i, id := range requested {
		g.Go(func() error {
			results[i] = r.analyzeOne(ctx, id, "", req.PromptType, req.ArticleText)
			return nil
		})
	}
	_ = g.Wait()

	resp := ConsensusResponse{
		TotalProviders:      len(requested),
		SuccessfulProviders: []domain.ProviderID{},
		FailedProviders:     []ProviderFailure{},
		Sentences:           []domain.ConsensusSentence{},
	}
	selections := make(map[domain.ProviderID][]domain.SentenceItem)
	for i, res := range results {
		id := requested[i]
		if res.err != nil {
			resp.FailedProviders = append(resp.FailedProviders, ProviderFailure{Provider: id, Error: res.err.Error()})
			continue
		}
		resp.SuccessfulProviders = append(resp.SuccessfulProviders, id)
		selections[id] = res.items
	}

	if len(resp.SuccessfulProviders) == 0 {
		resp.Error = "all providers failed"
		slog.Warn("consensus analysis failed", "providers", requested)
		return c.JSON(http.StatusBadGateway, resp)
	}

	// Levels are relative to the providers that answered.
	sentences, err := r.merger(resp.SuccessfulProviders).Merge(ctx, selections)
	if err != nil {
		return fmt.Errorf("merge selections: %w", err)
	}

	resp.Success = true
	resp.Sentences = sentences
	resp.Count = len(sentences)

	slog.Info("consensus analysis complete",
		"requested", len(requested),
		"successful", len(resp.SuccessfulProviders),
		"sentences", resp.Count,
	)
	return c.JSON(http.StatusOK, resp)
}

// scoreHandler godoc
// @Summary Score predicted sentences against a gold set
// @Tags highlight
// @Accept json
// @Produce json
// @Param request body ScoreRequest true "sets"
// @Success 200 {object} ScoreResponse
// @Failure 400 {object} apperr.ErrorResponse
// @Router /api/score [post]
func (r *HighlightRouter) scoreHandler(c echo.Context) error {
	var req ScoreRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	if req.Semantic && r.semantic == nil {
		return apperr.NewValidation("semantic scoring is not enabled")
	}

	ctx := c.Request().Context()
	exact, err := metrics.ScoreSets(ctx, req.Predicted, req.Gold, similarity.Exact{})
	if err != nil {
		return fmt.Errorf("exact scoring: %w", err)
	}
	resp := ScoreResponse{Exact: exact.Rounded()}

	if req.Semantic {
		sem, err := metrics.ScoreSets(ctx, req.Predicted, req.Gold, r.semantic)
		switch {
		case errors.Is(err, similarity.ErrEmbedding):
			resp.SemanticError = err.Error()
		case err != nil:
			return fmt.Errorf("semantic scoring: %w", err)
		default:
			rounded := sem.Rounded()
			resp.Semantic = &rounded
		}
	}

	return c.JSON(http.StatusOK, resp)
}

type analyzeResult struct {
	model     string
	items     []domain.SentenceItem
	jsonValid bool
	err       error
}

func (r *HighlightRouter) analyzeOne(ctx context.Context, id domain.ProviderID, model string, pt llm.PromptType, text string) analyzeResult {
	p, ok := r.providers[id]
	if !ok {
		if slices.Contains(llm.KnownProviders, id) {
			return analyzeResult{err: fmt.Errorf("%s: %w", id, llm.ErrMissingAPIKey)}
		}
		return analyzeResult{err: fmt.Errorf("%w: %s", llm.ErrUnknownProvider, id)}
	}
	if pt == "" {
		pt = llm.PromptOptimized
	}

	prompt, err := r.prompts.Load(pt, id, "")
	if err != nil {
		return analyzeResult{model: p.Model(), err: err}
	}

	resp, err := p.Analyze(ctx, llm.Request{ArticleText: text, SystemPrompt: prompt, Model: model})
	if err != nil {
		slog.Warn("provider call failed", "provider", id, "error", err)
		return analyzeResult{model: p.Model(), err: err}
	}

	switch sel := llm.ParseSelection(resp.Raw, id).(type) {
	case llm.Valid:
		return analyzeResult{model: resp.Model, items: sel.Sentences, jsonValid: true}
	case llm.Malformed:
		slog.Warn("provider returned malformed output", "provider", id, "error", sel.Err)
		return analyzeResult{model: resp.Model, err: fmt.Errorf("%w: %v", llm.ErrMalformedOutput, sel.Err)}
	default:
		return analyzeResult{model: resp.Model, err: llm.ErrMalformedOutput}
	}
}

func (r *HighlightRouter) merger(providers []domain.ProviderID) *consensus.Merger {
	opts := []consensus.Option{consensus.WithThresholds(r.thresholds)}
	if r.semantic != nil {
		opts = append(opts, consensus.WithSemanticIdentity(r.semantic))
	}
	return consensus.New(providers, opts...)
}

func validPromptType(pt llm.PromptType) error {
	if pt != "" && !pt.Valid() {
		return apperr.NewValidationf("invalid prompt_type %q", pt)
	}
	return nil
}

func dedupe(ids []domain.ProviderID) []domain.ProviderID {
	var out []domain.ProviderID
	for _, id := range ids {
		id = domain.ProviderID(strings.TrimSpace(string(id)))
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
