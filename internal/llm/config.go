package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

const (
	DefaultTemperature = 0.2
	DefaultTimeout     = 40 * time.Second
	DefaultMaxTokens   = 4096
	DefaultProvider    = Gemini
)

var DefaultModels = map[domain.ProviderID]string{
	Gemini:  "gemini-2.5-flash-lite",
	OpenAI:  "gpt-5-nano",
	Claude:  "claude-haiku-4-5",
	Mistral: "ministral-3b-2512",
	Llama:   "meta-llama/Llama-3.1-8B-Instruct",
}

// DefaultBaseURLs are the OpenAI-compatible endpoints per provider.
var DefaultBaseURLs = map[domain.ProviderID]string{
	Gemini:  "https://generativelanguage.googleapis.com/v1beta/openai/",
	OpenAI:  "https://api.openai.com/v1",
	Mistral: "https://api.mistral.ai/v1",
	Llama:   "https://api.together.xyz/v1",
}

type ProviderConfig struct {
	Provider domain.ProviderID
	APIKey   string
	Model    string
	BaseURL  string
}

type Config struct {
	Default     domain.ProviderID
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Providers   map[domain.ProviderID]ProviderConfig
}

// LoadConfigFromEnv reads <PROVIDER>_API_KEY, <PROVIDER>_MODEL and
// <PROVIDER>_BASE_URL for every known provider plus the shared LLM_* settings.
// Providers without an API key are left out.
func LoadConfigFromEnv() (*Config, error) {
	cfg := &Config{
		Default:     domain.ProviderID(envOr("LLM_PROVIDER", string(DefaultProvider))),
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
		Providers:   make(map[domain.ProviderID]ProviderConfig),
	}

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid LLM_TEMPERATURE %q: %w", v, err)
		}
		cfg.Temperature = float32(t)
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LLM_MAX_TOKENS %q: %w", v, err)
		}
		cfg.MaxTokens = n
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LLM_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = time.Duration(secs) * time.Second
	}

	for _, p := range KnownProviders {
		prefix := strings.ToUpper(string(p))
		key := os.Getenv(prefix + "_API_KEY")
		if key == "" {
			continue
		}
		cfg.Providers[p] = ProviderConfig{
			Provider: p,
			APIKey:   key,
			Model:    envOr(prefix+"_MODEL", DefaultModels[p]),
			BaseURL:  envOr(prefix+"_BASE_URL", DefaultBaseURLs[p]),
		}
	}

	return cfg, nil
}

// Configured returns the providers that have credentials, sorted.
func (c *Config) Configured() []domain.ProviderID {
	out := make([]domain.ProviderID, 0, len(c.Providers))
	for p := range c.Providers {
		out = append(out, p)
	}
	return domain.SortProviders(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
