package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/DjordjeVuckovic/news-highlight/internal/embedding"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage/factory"
	"github.com/DjordjeVuckovic/news-highlight/pkg/config/env"
	"github.com/DjordjeVuckovic/news-highlight/pkg/utils"
)

type cliConfig struct {
	Mode          string
	SpecPath      string
	SuitePath     string
	Conditions    string
	OutputDir     string
	Output        string
	ResultsPath   string
	ExperimentID  string
	Provider      string
	Model         string
	PoolPath      string
	JudgmentPath  string
	WorkbookPath  string
	SheetName     string
	JudgeStrategy string
	PoolDepth     int
	Markdown      string
	LogLevel      string
}

func parseFlags() cliConfig {
	cfg := cliConfig{}

	flag.StringVar(&cfg.Mode, "mode", "run", "Run mode: run, analyze, report, pool, judge, merge, import, or history")
	flag.StringVar(&cfg.SpecPath, "spec", "configs/bench/experiment.yaml", "Path to experiment spec YAML")
	flag.StringVar(&cfg.SuitePath, "suite", "", "Path to article suite (YAML or JSON cache), overrides the spec's suite")
	flag.StringVar(&cfg.Conditions, "conditions", "", "Condition IDs to run, comma-separated (default all)")
	flag.StringVar(&cfg.OutputDir, "output-dir", "", "Directory for results and analysis, overrides the spec's output_dir")
	flag.StringVar(&cfg.Output, "output", "", "Output file (pool, judgment, suite or markdown report)")
	flag.StringVar(&cfg.ResultsPath, "results", "", "Path to an experiment results JSON (analyze, report, pool)")
	flag.StringVar(&cfg.ExperimentID, "experiment", "", "Experiment ID to load from the configured storage instead of -results")
	flag.StringVar(&cfg.Provider, "provider", "", "Provider for history mode")
	flag.StringVar(&cfg.Model, "model", "", "Model for history mode")
	flag.StringVar(&cfg.PoolPath, "pool", "", "Path to pool file (judge)")
	flag.StringVar(&cfg.JudgmentPath, "judgment", "", "Path to judgment file (merge)")
	flag.StringVar(&cfg.WorkbookPath, "workbook", "", "Path to annotated dataset workbook (import)")
	flag.StringVar(&cfg.SheetName, "sheet", "", "Workbook sheet name (default first sheet)")
	flag.StringVar(&cfg.JudgeStrategy, "judge", "manual", "Judge strategy: manual or consensus")
	flag.IntVar(&cfg.PoolDepth, "pool-depth", 0, "Max predictions per condition in the pool (0 = all)")
	flag.StringVar(&cfg.Markdown, "markdown", "", "Also write a markdown report to this path")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()
	return cfg
}

func (c cliConfig) conditionIDs() []string {
	return utils.RemoveBlankStrings(strings.Split(c.Conditions, ","))
}

func (c cliConfig) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

type runConfig struct {
	LLM       *llm.Config
	Embedding *embedding.Config
	Storage   *factory.StorageConfig
}

// loadRunConfig reads provider credentials, embedding and storage settings.
func loadRunConfig() (*runConfig, error) {
	err := env.LoadDotEnv(os.Getenv("APP_ENV"), "cmd/bench/.env", ".env")
	if err != nil {
		slog.Info("Failed to .env load environment variables, continuing with existing environment variables", "error", err)
	}

	llmCfg, err := llm.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("llm config: %w", err)
	}
	embCfg, err := embedding.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("embedding config: %w", err)
	}
	storageCfg, err := factory.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("storage config: %w", err)
	}

	return &runConfig{LLM: llmCfg, Embedding: embCfg, Storage: storageCfg}, nil
}
