package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type Embedder struct {
	maxLength *int
	model     string

	client Client
}

type EmbedderOption func(executor *Embedder)

func NewEmbedder(client Client, opts ...EmbedderOption) *Embedder {
	base := &Embedder{
		model:  defaultModel,
		client: client,
	}

	for _, opt := range opts {
		opt(base)
	}

	return base
}

func WithExecutorModel(model string) EmbedderOption {
	return func(executor *Embedder) {
		executor.model = model
	}
}

func WithExecutorMaxLength(length int) EmbedderOption {
	return func(executor *Embedder) {
		executor.maxLength = &length
	}
}

func (e *Embedder) Model() string {
	return e.model
}

// EmbedSentence embeds a single sentence.
func (e *Embedder) EmbedSentence(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Generate(ctx, Request{
		Model: e.model,
		Text:  strings.TrimSpace(text),
	})
	if err != nil {
		return nil, err
	}

	return e.truncate(resp.Embedding), nil
}

// EmbedSentences embeds a batch in one call, preserving order.
func (e *Embedder) EmbedSentences(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = strings.TrimSpace(t)
	}

	slog.Debug("bulk embedding sentences", "count", len(texts), "model", e.model)

	req := BatchRequest{Model: e.model, Inputs: inputs}
	if e.maxLength != nil {
		req.Dimensions = *e.maxLength
	}
	resp, err := e.client.GenerateBatch(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		out[i] = e.truncate(emb)
	}
	return out, nil
}

func (e *Embedder) truncate(v []float32) []float32 {
	if e.maxLength != nil && len(v) > *e.maxLength {
		return v[:*e.maxLength]
	}
	return v
}
