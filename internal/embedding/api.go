package embedding

import (
	"context"
)

const defaultModel = "bge-m3"

// Request embeds a single sentence.
type Request struct {
	Model   string
	Text    string
	Options map[string]any
}

type Response struct {
	Embedding []float32 `json:"embedding"`
}

// BatchRequest embeds several sentences in one round trip. Dimensions asks
// the backend for shortened vectors and is ignored by backends that cannot.
type BatchRequest struct {
	Model      string
	Inputs     []string
	Dimensions int
	Options    map[string]any
}

type BatchResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Client is a raw embedding backend. Embedder adds model defaults and truncation on top.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	GenerateBatch(ctx context.Context, req BatchRequest) (*BatchResponse, error)
}
