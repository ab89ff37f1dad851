package embedding

import (
	"fmt"
	"os"
	"strconv"
)

type Backend string

const (
	BackendOllama Backend = "ollama"
	BackendOpenAI Backend = "openai"
)

type Config struct {
	Enabled   bool
	Backend   Backend
	Model     string
	MaxLength *int
	BaseURL   string
	APIKey    string
	// KeepAlive is passed to Ollama so the model stays loaded between runs.
	KeepAlive string
}

// LoadConfigFromEnv reads EMBEDDING_* variables. When EMBEDDING_ENABLED is not
// "true" the remaining variables are ignored and semantic scoring is off.
func LoadConfigFromEnv() (*Config, error) {
	enabled := os.Getenv("EMBEDDING_ENABLED") == "true"
	if !enabled {
		return &Config{Enabled: false}, nil
	}

	backend := Backend(os.Getenv("EMBEDDING_BACKEND"))
	if backend == "" {
		backend = BackendOllama
	}
	model := os.Getenv("EMBEDDING_MODEL")
	maxLen := os.Getenv("EMBEDDING_MAX_LENGTH")
	baseUrl := os.Getenv("EMBEDDING_BASE_URL")
	apiKey := os.Getenv("EMBEDDING_API_KEY")

	switch backend {
	case BackendOllama:
		if baseUrl == "" {
			return nil, fmt.Errorf("EMBEDDING_BASE_URL environment variable not set")
		}
	case BackendOpenAI:
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("EMBEDDING_API_KEY or OPENAI_API_KEY must be set for the openai backend")
		}
	default:
		return nil, fmt.Errorf("unsupported EMBEDDING_BACKEND %q", backend)
	}

	cfg := &Config{
		Enabled:   true,
		Backend:   backend,
		Model:     model,
		BaseURL:   baseUrl,
		APIKey:    apiKey,
		KeepAlive: os.Getenv("EMBEDDING_KEEP_ALIVE"),
	}
	if maxLen != "" {
		val, err := strconv.Atoi(maxLen)
		if err != nil {
			return nil, fmt.Errorf("invalid EMBEDDING_MAX_LENGTH %q: %w", maxLen, err)
		}
		cfg.MaxLength = &val
	}

	return cfg, nil
}

// NewFromConfig builds the client and embedder for cfg. It returns nil when
// embeddings are disabled.
func NewFromConfig(cfg *Config) (*Embedder, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	var (
		client Client
		err    error
		model  = cfg.Model
	)
	switch cfg.Backend {
	case BackendOpenAI:
		client = NewOpenAIClient(cfg.APIKey, cfg.BaseURL)
		if model == "" {
			model = defaultOpenAIModel
		}
	default:
		var opts []OllamaOption
		if cfg.KeepAlive != "" {
			opts = append(opts, WithKeepAlive(cfg.KeepAlive))
		}
		client, err = NewOllamaClient(cfg.BaseURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
	}

	opts := []EmbedderOption{}
	if model != "" {
		opts = append(opts, WithExecutorModel(model))
	}
	if cfg.MaxLength != nil {
		opts = append(opts, WithExecutorMaxLength(*cfg.MaxLength))
	}

	return NewEmbedder(client, opts...), nil
}
