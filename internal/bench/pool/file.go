package pool

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ReadPoolFile loads a pool written by WritePoolFile. Articles must have
// unique IDs and every pooled sentence at least one source condition.
func ReadPoolFile(path string) (*PoolFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pool file: %w", err)
	}
	var pf PoolFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pool file: %w", err)
	}

	seen := make(map[string]bool, len(pf.Articles))
	for i, a := range pf.Articles {
		if a.ArticleID == "" {
			return nil, fmt.Errorf("pool article at index %d has no article_id", i)
		}
		if seen[a.ArticleID] {
			return nil, fmt.Errorf("duplicate pool article %s", a.ArticleID)
		}
		seen[a.ArticleID] = true

		for _, s := range a.Sentences {
			if len(s.Sources) == 0 {
				return nil, fmt.Errorf("article %s: sentence %q has no source condition", a.ArticleID, s.Text)
			}
		}
	}
	return &pf, nil
}

func WritePoolFile(pf *PoolFile, path string) error {
	if pf == nil {
		return fmt.Errorf("nil pool file")
	}
	data, err := yaml.Marshal(pf)
	if err != nil {
		return fmt.Errorf("marshal pool file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create pool dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write pool file: %w", err)
	}
	return nil
}
