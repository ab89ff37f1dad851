package suite

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DjordjeVuckovic/news-highlight/pkg/utils"
)

type LoadedSuite struct {
	Suite *TestSuite
	Dir   string
}

// LoadFromFile reads a YAML suite or a JSON article cache, chosen by extension.
func LoadFromFile(path string) (*LoadedSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite file: %w", err)
	}

	var s *TestSuite
	if strings.EqualFold(filepath.Ext(path), ".json") {
		s, err = ParseJSON(data)
	} else {
		s, err = Parse(data)
	}
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := resolveBodies(s, dir); err != nil {
		return nil, err
	}
	if err := validate(s); err != nil {
		return nil, err
	}

	return &LoadedSuite{Suite: s, Dir: dir}, nil
}

func Parse(data []byte) (*TestSuite, error) {
	var s TestSuite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite YAML: %w", err)
	}
	normalize(&s)
	return &s, nil
}

func ParseJSON(data []byte) (*TestSuite, error) {
	var s TestSuite
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite JSON: %w", err)
	}
	normalize(&s)
	return &s, nil
}

func normalize(s *TestSuite) {
	for i := range s.Articles {
		a := &s.Articles[i]
		a.ID = strings.TrimSpace(a.ID)
		a.Gold = utils.RemoveBlankStrings(a.Gold)
	}
}

func resolveBodies(s *TestSuite, dir string) error {
	for i := range s.Articles {
		a := &s.Articles[i]
		if a.BodyFile == "" || a.HasBody() {
			continue
		}
		path := a.BodyFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("article %q: read body file: %w", a.ID, err)
		}
		a.Body = string(data)
	}
	return nil
}

func validate(s *TestSuite) error {
	if len(s.Articles) == 0 {
		return fmt.Errorf("suite has no articles")
	}

	seen := make(map[string]bool, len(s.Articles))
	for i, a := range s.Articles {
		if a.ID == "" {
			return fmt.Errorf("article at index %d has no id", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate article id %q", a.ID)
		}
		seen[a.ID] = true

		if !a.HasGold() {
			slog.Warn("article has no gold sentences", "article", a.ID)
		}
		if !a.HasBody() {
			slog.Warn("article has no body text and will be skipped", "article", a.ID)
		}
	}
	return nil
}
