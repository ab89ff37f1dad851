package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/textnorm"
)

// Embedder turns a single sentence into a vector.
type Embedder interface {
	EmbedSentence(ctx context.Context, text string) ([]float32, error)
}

// Bands are the cosine thresholds for full and partial credit. Lower edges
// are inclusive.
type Bands struct {
	Perfect float64 `yaml:"perfect" json:"perfect"`
	Partial float64 `yaml:"partial" json:"partial"`
}

var DefaultBands = Bands{Perfect: 0.85, Partial: 0.70}

func (b Bands) Validate() error {
	if b.Partial <= 0 || b.Perfect > 1 || b.Partial > b.Perfect {
		return fmt.Errorf("invalid similarity bands: partial=%.2f perfect=%.2f", b.Partial, b.Perfect)
	}
	return nil
}

// Credit maps a cosine similarity to its band credit.
func (b Bands) Credit(sim float64) float64 {
	switch {
	case sim >= b.Perfect:
		return domain.FullMatch
	case sim >= b.Partial:
		return domain.PartialMatch
	default:
		return domain.NoMatch
	}
}

type SemanticScorer struct {
	embedder Embedder
	bands    Bands
}

type SemanticOption func(*SemanticScorer)

func WithBands(b Bands) SemanticOption {
	return func(s *SemanticScorer) {
		s.bands = b
	}
}

func NewSemanticScorer(embedder Embedder, opts ...SemanticOption) *SemanticScorer {
	s := &SemanticScorer{
		embedder: embedder,
		bands:    DefaultBands,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SemanticScorer) Mode() Mode { return ModeSemantic }

func (s *SemanticScorer) Bands() Bands { return s.bands }

// Score returns the banded credit for a and b. Identical normalized text
// scores 1 without calling the embedder.
func (s *SemanticScorer) Score(ctx context.Context, a, b string) (float64, error) {
	sim, err := s.Similarity(ctx, a, b)
	if err != nil {
		return domain.NoMatch, err
	}
	return s.bands.Credit(sim), nil
}

// Similarity returns the raw cosine similarity clamped to [-1, 1].
func (s *SemanticScorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	na, nb := textnorm.Normalize(a), textnorm.Normalize(b)
	if na == nb {
		return 1, nil
	}

	va, err := s.embed(ctx, na)
	if err != nil {
		return 0, err
	}
	vb, err := s.embed(ctx, nb)
	if err != nil {
		return 0, err
	}

	if len(va) != len(vb) {
		return 0, &EmbeddingError{
			Text: nb,
			Err:  fmt.Errorf("dimension mismatch: %d vs %d", len(va), len(vb)),
		}
	}

	return Cosine(va, vb), nil
}

func (s *SemanticScorer) embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, &EmbeddingError{Text: text, Err: errors.New("no embedder configured")}
	}

	vec, err := s.embedder.EmbedSentence(ctx, text)
	if err != nil {
		return nil, &EmbeddingError{Text: text, Err: err}
	}
	if err := validateVector(vec); err != nil {
		return nil, &EmbeddingError{Text: text, Err: err}
	}

	return vec, nil
}

func validateVector(vec []float32) error {
	if len(vec) == 0 {
		return errors.New("empty vector")
	}

	var norm float64
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.New("vector contains NaN or Inf")
		}
		norm += f * f
	}
	if norm == 0 {
		return errors.New("zero-norm vector")
	}

	return nil
}

// Cosine assumes equal length, non-zero vectors.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, sim))
}

// CachedEmbedder memoizes vectors per text. Failures are not cached.
type CachedEmbedder struct {
	next Embedder

	mu    sync.RWMutex
	cache map[string][]float32
}

func NewCachedEmbedder(next Embedder) *CachedEmbedder {
	return &CachedEmbedder{
		next:  next,
		cache: make(map[string][]float32),
	}
}

func (c *CachedEmbedder) EmbedSentence(ctx context.Context, text string) ([]float32, error) {
	c.mu.RLock()
	vec, ok := c.cache[text]
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := c.next.EmbedSentence(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[text] = vec
	c.mu.Unlock()

	return vec, nil
}

func (c *CachedEmbedder) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
