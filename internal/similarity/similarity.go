// Package similarity scores how close two sentences are, either by exact
// normalized identity or by embedding cosine similarity.
package similarity

import (
	"context"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/textnorm"
)

type Mode string

const (
	ModeExact    Mode = "exact"
	ModeSemantic Mode = "semantic"
)

// Matcher assigns a credit in {0, 0.5, 1} to a sentence pair.
type Matcher interface {
	Score(ctx context.Context, a, b string) (float64, error)
	Mode() Mode
}

// ExactScore is 1 iff both sentences normalize to the same string.
func ExactScore(a, b string) float64 {
	if textnorm.Normalize(a) == textnorm.Normalize(b) {
		return domain.FullMatch
	}
	return domain.NoMatch
}

type Exact struct{}

func (Exact) Score(_ context.Context, a, b string) (float64, error) {
	return ExactScore(a, b), nil
}

func (Exact) Mode() Mode { return ModeExact }
