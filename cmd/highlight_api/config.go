package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/DjordjeVuckovic/news-highlight/internal/consensus"
	"github.com/DjordjeVuckovic/news-highlight/internal/embedding"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
)

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("APP_ENV"),
	}
}

type AppConfig struct {
	ENV string
}

type HighlightConfig struct {
	LogLevel        slog.Level
	LLM             *llm.Config
	EmbeddingConfig *embedding.Config
	Bands           similarity.Bands
	Thresholds      consensus.Thresholds
	PromptDirs      map[llm.PromptType]string
}

// Load reads the API settings. The .env file is loaded by the server config,
// which runs first.
func (as *AppConfig) Load() (*HighlightConfig, error) {
	level, err := parseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	llmCfg, err := llm.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load LLM configuration from environment", "error", err)
		return nil, err
	}

	embCfg, err := embedding.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load embedding configuration from environment", "error", err)
		return nil, err
	}

	bands := similarity.DefaultBands
	if bands.Perfect, err = envFloat("SIMILARITY_PERFECT", bands.Perfect); err != nil {
		return nil, err
	}
	if bands.Partial, err = envFloat("SIMILARITY_PARTIAL", bands.Partial); err != nil {
		return nil, err
	}
	if err := bands.Validate(); err != nil {
		return nil, fmt.Errorf("similarity bands: %w", err)
	}

	thresholds := consensus.DefaultThresholds
	if thresholds.High, err = envFloat("CONSENSUS_HIGH", thresholds.High); err != nil {
		return nil, err
	}
	if thresholds.Medium, err = envFloat("CONSENSUS_MEDIUM", thresholds.Medium); err != nil {
		return nil, err
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("consensus thresholds: %w", err)
	}

	dirs := make(map[llm.PromptType]string)
	if d := os.Getenv("PROMPT_DIR_BASELINE"); d != "" {
		dirs[llm.PromptBaseline] = d
	}
	if d := os.Getenv("PROMPT_DIR_OPTIMIZED"); d != "" {
		dirs[llm.PromptOptimized] = d
	}

	return &HighlightConfig{
		LogLevel:        level,
		LLM:             llmCfg,
		EmbeddingConfig: embCfg,
		Bands:           bands,
		Thresholds:      thresholds,
		PromptDirs:      dirs,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
