package spec

import (
	"time"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/consensus"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
)

// ExperimentSpec describes one experiment matrix and how to run it.
type ExperimentSpec struct {
	Name       string                    `yaml:"name"`
	Suite      string                    `yaml:"suite"`
	OutputDir  string                    `yaml:"output_dir"`
	Runner     RunnerSpec                `yaml:"runner"`
	Similarity SimilaritySpec            `yaml:"similarity"`
	Consensus  ConsensusSpec             `yaml:"consensus"`
	Prompts    map[llm.PromptType]string `yaml:"prompts"`
	Conditions []runner.ConditionSpec    `yaml:"conditions"`
}

type RunnerSpec struct {
	Parallelism    int                `yaml:"parallelism"`
	Timeout        time.Duration      `yaml:"timeout"`
	RateLimitDelay time.Duration      `yaml:"rate_limit_delay"`
	Retry          runner.RetryPolicy `yaml:"retry"`
}

type SimilaritySpec struct {
	Semantic bool             `yaml:"semantic"`
	Bands    similarity.Bands `yaml:"bands"`
	// OptimalAssignment switches small sets from greedy to exhaustive matching.
	OptimalAssignment bool `yaml:"optimal_assignment"`
}

type ConsensusSpec struct {
	Thresholds consensus.Thresholds `yaml:"thresholds"`
}

// RunnerConfig converts the spec into the runner's configuration.
func (s *ExperimentSpec) RunnerConfig() runner.Config {
	return runner.Config{
		Parallelism:    s.Runner.Parallelism,
		Timeout:        s.Runner.Timeout,
		RateLimitDelay: s.Runner.RateLimitDelay,
		Retry:          s.Runner.Retry,
		Bands:          s.Similarity.Bands,
	}
}

// Filter returns the conditions whose IDs are listed, in spec order.
// An empty list returns every condition.
func (s *ExperimentSpec) Filter(ids []string) []runner.ConditionSpec {
	if len(ids) == 0 {
		return s.Conditions
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []runner.ConditionSpec
	for _, c := range s.Conditions {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
