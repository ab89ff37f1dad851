// Package pool collects the sentences every condition predicted for an
// article so they can be judged by annotators.
package pool

import (
	"context"
	"fmt"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/consensus"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

type PoolFile struct {
	ExperimentID string      `yaml:"experiment_id"`
	SuiteName    string      `yaml:"suite_name,omitempty"`
	Articles     []PoolEntry `yaml:"articles"`
}

type PoolEntry struct {
	ArticleID string           `yaml:"article_id"`
	Title     string           `yaml:"title,omitempty"`
	Sentences []PooledSentence `yaml:"sentences"`
}

type PooledSentence struct {
	Text    string   `yaml:"text"`
	Sources []string `yaml:"sources"`
	Level   string   `yaml:"level"`
}

// Options tune pooling.
type Options struct {
	// Depth caps how many predictions are taken from each condition. 0 takes all.
	Depth int
	// Titles maps article IDs to display titles.
	Titles map[string]string

	Merge []consensus.Option
}

// PoolResults groups each article's predictions across all conditions.
// Identical sentences are pooled once with every condition that chose them
// as a source. Failed articles contribute nothing.
func PoolResults(ctx context.Context, result *runner.ExperimentResult, opts Options) (*PoolFile, error) {
	if result == nil {
		return nil, fmt.Errorf("nil experiment result")
	}

	var order []string
	byArticle := make(map[string]map[domain.ProviderID][]domain.SentenceItem)
	var sources []domain.ProviderID

	for _, c := range result.Conditions {
		src := domain.ProviderID(c.ConditionID)
		sources = append(sources, src)

		for _, a := range c.Articles {
			if a.Failed() {
				continue
			}
			sel, ok := byArticle[a.ArticleID]
			if !ok {
				sel = make(map[domain.ProviderID][]domain.SentenceItem)
				byArticle[a.ArticleID] = sel
				order = append(order, a.ArticleID)
			}

			preds := a.Predicted
			if opts.Depth > 0 && len(preds) > opts.Depth {
				preds = preds[:opts.Depth]
			}
			for _, p := range preds {
				sel[src] = append(sel[src], domain.SentenceItem{Text: p, Provider: src})
			}
		}
	}

	merger := consensus.New(sources, opts.Merge...)
	pf := &PoolFile{ExperimentID: result.ExperimentID}

	for _, id := range order {
		merged, err := merger.Merge(ctx, byArticle[id])
		if err != nil {
			return nil, fmt.Errorf("pool article %s: %w", id, err)
		}

		entry := PoolEntry{
			ArticleID: id,
			Title:     opts.Titles[id],
			Sentences: make([]PooledSentence, 0, len(merged)),
		}
		for _, s := range merged {
			srcs := make([]string, len(s.SelectedBy))
			for i, p := range s.SelectedBy {
				srcs[i] = string(p)
			}
			entry.Sentences = append(entry.Sentences, PooledSentence{
				Text:    s.Text,
				Sources: srcs,
				Level:   string(s.Level),
			})
		}
		pf.Articles = append(pf.Articles, entry)
	}

	return pf, nil
}

// Article returns the pooled entry for id.
func (pf *PoolFile) Article(id string) (PoolEntry, bool) {
	for _, a := range pf.Articles {
		if a.ArticleID == id {
			return a, true
		}
	}
	return PoolEntry{}, false
}
