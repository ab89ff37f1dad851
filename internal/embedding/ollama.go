package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DjordjeVuckovic/news-highlight/internal/apperr"
)

const defaultTimeout = 60 * time.Second

type OllamaOption func(client *OllamaClient)

// OllamaClient talks to a local Ollama server.
type OllamaClient struct {
	base      url.URL
	http      *http.Client
	keepAlive string
}

func NewOllamaClient(baseURL string, opts ...OllamaOption) (*OllamaClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}

	client := &OllamaClient{
		base: *base,
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func WithOllamaHTTPClient(httpClient *http.Client) OllamaOption {
	return func(client *OllamaClient) {
		client.http = httpClient
	}
}

// WithKeepAlive keeps the model loaded between scoring calls, e.g. "10m".
func WithKeepAlive(d string) OllamaOption {
	return func(client *OllamaClient) {
		client.keepAlive = d
	}
}

type ollamaEmbedRequest struct {
	Model     string         `json:"model"`
	Prompt    string         `json:"prompt"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

type ollamaBatchRequest struct {
	Model     string         `json:"model"`
	Input     []string       `json:"input"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

func (oc *OllamaClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Text == "" {
		return nil, apperr.NewValidation("missing text to embed")
	}
	if req.Model == "" {
		return nil, apperr.NewValidation("missing model name")
	}

	var resp Response
	err := oc.post(ctx, "/api/embeddings", ollamaEmbedRequest{
		Model:     req.Model,
		Prompt:    req.Text,
		KeepAlive: oc.keepAlive,
		Options:   req.Options,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (oc *OllamaClient) GenerateBatch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	if len(req.Inputs) == 0 {
		return nil, apperr.NewValidation("missing inputs to embed")
	}
	if req.Model == "" {
		return nil, apperr.NewValidation("missing model name")
	}

	var resp BatchResponse
	err := oc.post(ctx, "/api/embed", ollamaBatchRequest{
		Model:     req.Model,
		Input:     req.Inputs,
		KeepAlive: oc.keepAlive,
		Options:   req.Options,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (oc *OllamaClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal ollama request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, oc.base.JoinPath(path).String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	resp, err := oc.http.Do(request)
	if err != nil {
		return fmt.Errorf("ollama %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal ollama response: %w", err)
	}
	return nil
}

// StatusError is a non-200 reply from the embedding server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("embedding server returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the server may succeed on a later attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
