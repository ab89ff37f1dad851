package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/news-highlight/internal/apperr"
)

func TestOllamaClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bge-m3", req.Model)
		assert.Equal(t, "금리를 동결했다.", req.Prompt)
		assert.Equal(t, "10m", req.KeepAlive)

		_ = json.NewEncoder(w).Encode(Response{Embedding: []float32{0.1, 0.2, 0.3, 0.4}})
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, WithKeepAlive("10m"))
	require.NoError(t, err)

	e := NewEmbedder(client, WithExecutorMaxLength(3))
	vec, err := e.EmbedSentence(context.Background(), "  금리를 동결했다. ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaClient_GenerateBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req ollamaBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)

		_ = json.NewEncoder(w).Encode(BatchResponse{Embeddings: [][]float32{{1, 0}, {0, 1}}})
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL)
	require.NoError(t, err)

	vecs, err := NewEmbedder(client).EmbedSentences(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestOllamaClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL)
	require.NoError(t, err)

	_, err = NewEmbedder(client).EmbedSentence(context.Background(), "a")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.False(t, statusErr.Retryable())
}

func TestOllamaClient_Validation(t *testing.T) {
	client, err := NewOllamaClient("http://localhost:11434")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), Request{Model: "m"})
	var vErr *apperr.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestOpenAIClient_GenerateBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{0, 1}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient("k", srv.URL)
	resp, err := client.GenerateBatch(context.Background(), BatchRequest{Inputs: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, resp.Embeddings)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("EMBEDDING_ENABLED", "")
	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)

	e, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Nil(t, e)

	t.Setenv("EMBEDDING_ENABLED", "true")
	t.Setenv("EMBEDDING_BACKEND", "ollama")
	t.Setenv("EMBEDDING_BASE_URL", "")
	_, err = LoadConfigFromEnv()
	assert.Error(t, err)

	t.Setenv("EMBEDDING_BASE_URL", "http://localhost:11434")
	t.Setenv("EMBEDDING_MAX_LENGTH", "512")
	t.Setenv("EMBEDDING_MODEL", "")
	cfg, err = LoadConfigFromEnv()
	require.NoError(t, err)
	require.NotNil(t, cfg.MaxLength)
	assert.Equal(t, 512, *cfg.MaxLength)

	e, err = NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "bge-m3", e.Model())
}
