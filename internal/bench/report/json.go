package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/analysis"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
)

func WriteJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func ResultsPath(dir, experimentID string) string {
	return filepath.Join(dir, experimentID+"_results.json")
}

func AnalysisPath(dir, experimentID string) string {
	return filepath.Join(dir, experimentID+"_analysis.json")
}

// WriteResults stores the raw experiment as <experiment_id>_results.json in dir.
func WriteResults(exp *runner.ExperimentResult, dir string) (string, error) {
	path := ResultsPath(dir, exp.ExperimentID)
	return path, WriteJSON(exp, path)
}

func WriteAnalysis(an *analysis.Analysis, dir string) (string, error) {
	path := AnalysisPath(dir, an.ExperimentID)
	return path, WriteJSON(an, path)
}

// ReadResults loads an experiment written by WriteResults.
func ReadResults(path string) (*runner.ExperimentResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var exp runner.ExperimentResult
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &exp, nil
}
