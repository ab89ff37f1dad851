package spec

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/consensus"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
)

// LoadFromFile parses a spec and resolves its relative paths against the
// spec file's directory.
func LoadFromFile(path string) (*ExperimentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	s.Suite = resolve(dir, s.Suite)
	for pt, p := range s.Prompts {
		s.Prompts[pt] = resolve(dir, p)
	}
	return s, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func Parse(data []byte) (*ExperimentSpec, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse spec YAML: %w", err)
	}
	if len(s.Conditions) == 0 {
		s.Conditions = DefaultConditions()
	}
	if err := validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Default returns a spec with the runner, similarity and consensus defaults
// and no conditions.
func Default() *ExperimentSpec {
	cfg := runner.DefaultConfig()
	return &ExperimentSpec{
		Name:      "experiment",
		OutputDir: "results",
		Runner: RunnerSpec{
			Parallelism:    cfg.Parallelism,
			Timeout:        cfg.Timeout,
			RateLimitDelay: cfg.RateLimitDelay,
			Retry:          cfg.Retry,
		},
		Similarity: SimilaritySpec{Semantic: true, Bands: similarity.DefaultBands},
		Consensus:  ConsensusSpec{Thresholds: consensus.DefaultThresholds},
	}
}

// DefaultConditions is the 2x3 matrix of prompt types and providers.
func DefaultConditions() []runner.ConditionSpec {
	models := []struct {
		provider domain.ProviderID
		model    string
	}{
		{llm.OpenAI, llm.DefaultModels[llm.OpenAI]},
		{llm.Gemini, llm.DefaultModels[llm.Gemini]},
		{llm.Mistral, llm.DefaultModels[llm.Mistral]},
	}

	var out []runner.ConditionSpec
	id := 'A'
	for _, pt := range []llm.PromptType{llm.PromptBaseline, llm.PromptOptimized} {
		for _, m := range models {
			out = append(out, runner.ConditionSpec{
				ID:         string(id),
				PromptType: pt,
				Provider:   m.provider,
				Model:      m.model,
			})
			id++
		}
	}
	return out
}

func validate(s *ExperimentSpec) error {
	if err := s.RunnerConfig().Validate(); err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	if err := s.Consensus.Thresholds.Validate(); err != nil {
		return fmt.Errorf("consensus: %w", err)
	}
	for pt := range s.Prompts {
		if !pt.Valid() {
			return fmt.Errorf("prompts: unknown prompt type %q", pt)
		}
	}

	seen := make(map[string]bool, len(s.Conditions))
	for i, c := range s.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("condition at index %d: %w", i, err)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate condition id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
