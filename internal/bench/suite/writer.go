package suite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type cacheFile struct {
	Version      string    `json:"version"`
	ArticleCount int       `json:"article_count"`
	Articles     []Article `json:"articles"`
}

// WriteJSON stores the suite as a JSON article cache that LoadFromFile reads back.
func WriteJSON(s *TestSuite, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(cacheFile{
		Version:      CacheVersion,
		ArticleCount: len(s.Articles),
		Articles:     s.Articles,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal suite: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write suite cache: %w", err)
	}
	return nil
}
