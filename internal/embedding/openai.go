package embedding

import (
	"context"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"

	"github.com/DjordjeVuckovic/news-highlight/internal/apperr"
)

const defaultOpenAIModel = string(openai.SmallEmbedding3)

// OpenAIClient embeds through the OpenAI embeddings endpoint or any compatible one.
type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

func (oc *OpenAIClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Text == "" {
		return nil, apperr.NewValidation("missing text to embed")
	}

	batch, err := oc.GenerateBatch(ctx, BatchRequest{Model: req.Model, Inputs: []string{req.Text}})
	if err != nil {
		return nil, err
	}

	return &Response{Embedding: batch.Embeddings[0]}, nil
}

func (oc *OpenAIClient) GenerateBatch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	if len(req.Inputs) == 0 {
		return nil, apperr.NewValidation("missing inputs to embed")
	}
	model := req.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	resp, err := oc.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      req.Inputs,
		Model:      openai.EmbeddingModel(model),
		Dimensions: req.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(req.Inputs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(req.Inputs), len(resp.Data))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return &BatchResponse{Embeddings: out}, nil
}
