package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

func TestPromptStore_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base_prompt_ko_gemini.txt"), []byte("  gemini prompt \n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.txt"), []byte("custom"), 0644))

	s := NewPromptStore(map[PromptType]string{PromptOptimized: dir})

	p, err := s.Load(PromptOptimized, Gemini, "")
	require.NoError(t, err)
	assert.Equal(t, "gemini prompt", p)

	p, err = s.Load(PromptOptimized, OpenAI, "custom.txt")
	require.NoError(t, err)
	assert.Equal(t, "custom", p)

	_, err = s.Load(PromptOptimized, Mistral, "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	p, err = s.Load(PromptBaseline, Mistral, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultAnalysisPrompt, p)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("MISTRAL_API_KEY", "m-key")
	t.Setenv("MISTRAL_MODEL", "mistral-small-2506")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CLAUDE_API_KEY", "")
	t.Setenv("LLAMA_API_KEY", "")
	t.Setenv("LLM_TIMEOUT", "60")
	t.Setenv("LLM_TEMPERATURE", "0.5")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 60, int(cfg.Timeout.Seconds()))
	assert.InDelta(t, 0.5, cfg.Temperature, 1e-6)
	assert.Equal(t, []string{"gemini", "mistral"}, func() []string {
		var out []string
		for _, p := range cfg.Configured() {
			out = append(out, string(p))
		}
		return out
	}())
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Providers[Gemini].Model)
	assert.Equal(t, "mistral-small-2506", cfg.Providers[Mistral].Model)
	assert.Equal(t, DefaultBaseURLs[Mistral], cfg.Providers[Mistral].BaseURL)
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")
	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestFactory_Create(t *testing.T) {
	f := NewFactory(&Config{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Providers: map[domain.ProviderID]ProviderConfig{
			Gemini: {Provider: Gemini, APIKey: "k", Model: "gemini-2.5-flash-lite", BaseURL: DefaultBaseURLs[Gemini]},
			Claude: {Provider: Claude, APIKey: "k", Model: "claude-haiku-4-5"},
		},
	})

	p, err := f.Create(Gemini, "gemini-2.5-flash")
	require.NoError(t, err)
	assert.Equal(t, Gemini, p.Name())
	assert.Equal(t, "gemini-2.5-flash", p.Model())

	p, err = f.Create(Claude, "")
	require.NoError(t, err)
	assert.Equal(t, Claude, p.Name())

	_, err = f.Create(OpenAI, "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = f.Create("grok", "")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	all, err := f.CreateAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func newChatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral-small", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"model":   "mistral-small",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		})
	}))
}

func TestCompatClient_Analyze(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, `{"core_sentences":[{"sentence":"A","reason":"r"}]}`)
	defer srv.Close()

	c, err := NewCompatClient(ProviderConfig{Provider: Mistral, APIKey: "k", Model: "mistral-small", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Analyze(context.Background(), Request{ArticleText: "본문", SystemPrompt: "prompt"})
	require.NoError(t, err)
	assert.Equal(t, Mistral, resp.Provider)
	assert.Equal(t, int64(150), resp.Usage.Total())

	sel, ok := ParseSelection(resp.Raw, resp.Provider).(Valid)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, sel.Texts())
}

func TestCompatClient_RateLimitedIsTransient(t *testing.T) {
	srv := newChatServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	c, err := NewCompatClient(ProviderConfig{Provider: Mistral, APIKey: "k", Model: "mistral-small", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), Request{ArticleText: "본문"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderCall)
	assert.True(t, IsTransient(err))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "503", err: newProviderError(OpenAI, 503, errors.New("unavailable")), want: true},
		{name: "408", err: newProviderError(OpenAI, 408, errors.New("timeout")), want: true},
		{name: "401", err: newProviderError(OpenAI, 401, errors.New("unauthorized")), want: false},
		{name: "wrapped deadline", err: newProviderError(OpenAI, 0, fmt.Errorf("call: %w", context.DeadlineExceeded)), want: true},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
