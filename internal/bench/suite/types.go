package suite

import (
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

const CacheVersion = "1.0"

type TestSuite struct {
	Name        string    `yaml:"name" json:"name,omitempty"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Version     string    `yaml:"version" json:"version"`
	Articles    []Article `yaml:"articles" json:"articles"`
}

// Article is a suite entry. The body is either inline or read from BodyFile,
// resolved relative to the suite file.
type Article struct {
	domain.ArticleCase `yaml:",inline"`
	BodyFile           string `yaml:"body_file,omitempty" json:"-"`
}

// Cases returns the articles as domain values.
func (s *TestSuite) Cases() []domain.ArticleCase {
	out := make([]domain.ArticleCase, len(s.Articles))
	for i, a := range s.Articles {
		out[i] = a.ArticleCase
	}
	return out
}

// Runnable returns only articles that have body text to analyze.
func (s *TestSuite) Runnable() []domain.ArticleCase {
	out := make([]domain.ArticleCase, 0, len(s.Articles))
	for _, a := range s.Articles {
		if a.HasBody() {
			out = append(out, a.ArticleCase)
		}
	}
	return out
}

func (s *TestSuite) Article(id string) (*Article, bool) {
	for i := range s.Articles {
		if s.Articles[i].ID == id {
			return &s.Articles[i], true
		}
	}
	return nil, false
}
