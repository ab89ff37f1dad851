package judgment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/pool"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

// ExportForAnnotation writes a template with every pooled sentence unlabeled.
func ExportForAnnotation(poolFile *pool.PoolFile, outputPath string) error {
	jf := JudgmentFile{
		Strategy:     "manual",
		ExperimentID: poolFile.ExperimentID,
		Articles:     make([]JudgmentEntry, 0, len(poolFile.Articles)),
	}

	for _, pe := range poolFile.Articles {
		entry := JudgmentEntry{
			ArticleID: pe.ArticleID,
			Title:     pe.Title,
			Sentences: make([]JudgedSentence, 0, len(pe.Sentences)),
		}
		for _, s := range pe.Sentences {
			entry.Sentences = append(entry.Sentences, JudgedSentence{
				Text:    s.Text,
				Sources: s.Sources,
				Label:   Unlabeled,
			})
		}
		jf.Articles = append(jf.Articles, entry)
	}

	return WriteJudgmentFile(&jf, outputPath)
}

func ImportAnnotations(path string) (*JudgmentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read judgment file: %w", err)
	}
	var jf JudgmentFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("parse judgment file: %w", err)
	}
	for _, e := range jf.Articles {
		for _, s := range e.Sentences {
			if s.Label < Unlabeled || s.Label > Core {
				return nil, fmt.Errorf("article %s: invalid label %d for %q", e.ArticleID, s.Label, s.Text)
			}
		}
	}
	return &jf, nil
}

func WriteJudgmentFile(jf *JudgmentFile, path string) error {
	data, err := yaml.Marshal(jf)
	if err != nil {
		return fmt.Errorf("marshal judgment file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create judgment dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write judgment file: %w", err)
	}
	return nil
}

// ConsensusJudge labels pooled sentences core when enough conditions agreed
// on them. It is a stand-in for annotators when bootstrapping a silver set.
type ConsensusJudge struct {
	MinLevel domain.ConsensusLevel
}

func (j ConsensusJudge) Grade(ctx context.Context, entry pool.PoolEntry) ([]JudgedSentence, error) {
	threshold := rank(j.MinLevel)
	if threshold == 0 {
		threshold = rank(domain.ConsensusHigh)
	}

	out := make([]JudgedSentence, 0, len(entry.Sentences))
	for _, s := range entry.Sentences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := NotCore
		if rank(domain.ConsensusLevel(s.Level)) >= threshold {
			label = Core
		}
		out = append(out, JudgedSentence{Text: s.Text, Sources: s.Sources, Label: label})
	}
	return out, nil
}

func rank(l domain.ConsensusLevel) int {
	switch l {
	case domain.ConsensusHigh:
		return 3
	case domain.ConsensusMedium:
		return 2
	case domain.ConsensusLow:
		return 1
	default:
		return 0
	}
}

// GradeAll runs a judge over every pooled article.
func GradeAll(ctx context.Context, j Judge, strategy string, pf *pool.PoolFile) (*JudgmentFile, error) {
	jf := &JudgmentFile{Strategy: strategy, ExperimentID: pf.ExperimentID}
	for _, pe := range pf.Articles {
		graded, err := j.Grade(ctx, pe)
		if err != nil {
			return nil, fmt.Errorf("grade article %s: %w", pe.ArticleID, err)
		}
		jf.Articles = append(jf.Articles, JudgmentEntry{
			ArticleID: pe.ArticleID,
			Title:     pe.Title,
			Sentences: graded,
		})
	}
	return jf, nil
}
