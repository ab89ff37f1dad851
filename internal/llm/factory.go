package llm

import (
	"fmt"
	"strings"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

type Factory struct {
	cfg *Config
}

func NewFactory(cfg *Config) *Factory {
	return &Factory{cfg: cfg}
}

// Create builds the provider for id using its configured credentials.
// model overrides the configured model when non-empty.
func (f *Factory) Create(id domain.ProviderID, model string) (Provider, error) {
	pc, ok := f.cfg.Providers[id]
	if !ok {
		if _, known := DefaultModels[id]; !known {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
		}
		return nil, fmt.Errorf("%s: %w (set %s)", id, ErrMissingAPIKey, envKeyName(id))
	}
	if model != "" {
		pc.Model = model
	}

	switch id {
	case Claude:
		return NewAnthropicClient(pc, f.cfg.Temperature, f.cfg.MaxTokens, f.cfg.Timeout)
	case Gemini, OpenAI, Mistral, Llama:
		return NewCompatClient(pc,
			WithTemperature(f.cfg.Temperature),
			WithMaxTokens(f.cfg.MaxTokens),
			WithHTTPTimeout(f.cfg.Timeout),
		)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
}

// CreateAll builds every configured provider, keyed by ID.
func (f *Factory) CreateAll() (map[domain.ProviderID]Provider, error) {
	out := make(map[domain.ProviderID]Provider, len(f.cfg.Providers))
	for _, id := range f.cfg.Configured() {
		p, err := f.Create(id, "")
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// Available lists the provider IDs the factory can build, sorted.
func (f *Factory) Available() []domain.ProviderID {
	return f.cfg.Configured()
}

func envKeyName(id domain.ProviderID) string {
	return fmt.Sprintf("%s_API_KEY", strings.ToUpper(string(id)))
}
