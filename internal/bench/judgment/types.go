// Package judgment turns pooled predictions into gold sentences, either by
// manual annotation or by trusting high-agreement sentences.
package judgment

import (
	"context"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/pool"
)

// Label values for a judged sentence.
const (
	Unlabeled = -1
	NotCore   = 0
	Core      = 1
)

type Judge interface {
	Grade(ctx context.Context, entry pool.PoolEntry) ([]JudgedSentence, error)
}

type JudgedSentence struct {
	Text    string   `yaml:"text"`
	Sources []string `yaml:"sources,omitempty"`
	Label   int      `yaml:"label"`
}

type JudgmentFile struct {
	Strategy     string          `yaml:"strategy"`
	ExperimentID string          `yaml:"experiment_id,omitempty"`
	Articles     []JudgmentEntry `yaml:"articles"`
}

type JudgmentEntry struct {
	ArticleID string           `yaml:"article_id"`
	Title     string           `yaml:"title,omitempty"`
	Sentences []JudgedSentence `yaml:"sentences"`
	// Extra holds gold sentences the annotator added that no condition predicted.
	Extra []string `yaml:"extra,omitempty"`
}

// Gold returns the sentences labeled core followed by the extra ones.
func (e JudgmentEntry) Gold() []string {
	var out []string
	for _, s := range e.Sentences {
		if s.Label == Core {
			out = append(out, s.Text)
		}
	}
	return append(out, e.Extra...)
}

// Judged reports whether the annotator touched this entry at all.
func (e JudgmentEntry) Judged() bool {
	if len(e.Extra) > 0 {
		return true
	}
	for _, s := range e.Sentences {
		if s.Label != Unlabeled {
			return true
		}
	}
	return false
}
