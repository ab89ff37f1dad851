package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/refresh"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
)

// Storer indexes one document per condition so runs can be compared in Kibana.
type Storer struct {
	client    *elasticsearch.TypedClient
	indexName string
}

// Document is the per-condition summary stored in Elasticsearch.
type Document struct {
	ID                 string    `json:"id"`
	ExperimentID       string    `json:"experiment_id"`
	RunID              string    `json:"run_id"`
	Timestamp          time.Time `json:"timestamp"`
	ConditionID        string    `json:"condition_id"`
	PromptType         string    `json:"prompt_type"`
	Provider           string    `json:"provider"`
	Model              string    `json:"model"`
	State              string    `json:"state"`
	ExactPrecision     float64   `json:"exact_precision"`
	ExactRecall        float64   `json:"exact_recall"`
	ExactF1            float64   `json:"exact_f1"`
	SemanticF1         *float64  `json:"semantic_f1,omitempty"`
	JSONComplianceRate float64   `json:"json_compliance_rate"`
	FailedArticles     int       `json:"failed_articles"`
	TotalTokens        int64     `json:"total_tokens"`
	MeanLatencyMs      float64   `json:"mean_latency_ms"`
	IndexedAt          time.Time `json:"indexed_at"`
}

func NewStorer(ctx context.Context, config ClientConfig) (*Storer, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	storer := &Storer{
		client:    client,
		indexName: config.IndexName,
	}

	if err := storer.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return storer, nil
}

func (e *Storer) Save(ctx context.Context, result *runner.ExperimentResult) error {
	now := time.Now()
	for _, c := range result.Conditions {
		doc := toDocument(result, &c, now)

		res, err := e.client.Index(e.indexName).
			Id(doc.ID).
			Document(doc).
			Refresh(refresh.Waitfor).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to index condition %s: %w", c.ConditionID, err)
		}
		slog.Debug("condition indexed", "id", doc.ID, "index", e.indexName, "result", res.Result)
	}

	slog.Info("experiment indexed", "experiment_id", result.ExperimentID, "conditions", len(result.Conditions), "index", e.indexName)
	return nil
}

func toDocument(result *runner.ExperimentResult, c *runner.ConditionResult, indexedAt time.Time) Document {
	doc := Document{
		ID:                 result.ExperimentID + "_" + c.ConditionID,
		ExperimentID:       result.ExperimentID,
		RunID:              result.RunID.String(),
		Timestamp:          result.Timestamp,
		ConditionID:        c.ConditionID,
		PromptType:         string(c.PromptType),
		Provider:           string(c.Provider),
		Model:              c.Model,
		State:              string(c.State),
		ExactPrecision:     c.AggregateExact.Precision,
		ExactRecall:        c.AggregateExact.Recall,
		ExactF1:            c.AggregateExact.F1,
		JSONComplianceRate: c.JSONComplianceRate,
		FailedArticles:     c.FailedArticles,
		TotalTokens:        c.TotalTokens,
		MeanLatencyMs:      c.Latency.MeanMs,
		IndexedAt:          indexedAt,
	}
	if c.AggregateSemantic != nil {
		f1 := c.AggregateSemantic.F1
		doc.SemanticF1 = &f1
	}
	return doc
}

// Conditions returns the indexed condition documents of an experiment,
// ordered by condition ID.
func (e *Storer) Conditions(ctx context.Context, experimentID string) ([]Document, error) {
	size := 1000
	asc := sortorder.Asc
	res, err := e.client.Search().
		Index(e.indexName).
		Query(&types.Query{
			Term: map[string]types.TermQuery{
				"experiment_id": {Value: experimentID},
			},
		}).
		Sort(&types.SortOptions{
			SortOptions: map[string]types.FieldSort{
				"condition_id": {Order: &asc},
			},
		}).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search conditions: %w", err)
	}

	docs := make([]Document, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var d Document
		if err := json.Unmarshal(hit.Source_, &d); err != nil {
			return nil, fmt.Errorf("failed to decode condition document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (e *Storer) EnsureIndex(ctx context.Context) error {
	exists, err := e.client.Indices.Exists(e.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}

	if exists {
		slog.Info("Index already exists", "index", e.indexName)
		return nil
	}

	mappings := types.TypeMapping{
		Properties: map[string]types.Property{
			"id":                   types.NewKeywordProperty(),
			"experiment_id":        types.NewKeywordProperty(),
			"run_id":               types.NewKeywordProperty(),
			"timestamp":            types.NewDateProperty(),
			"condition_id":         types.NewKeywordProperty(),
			"prompt_type":          types.NewKeywordProperty(),
			"provider":             types.NewKeywordProperty(),
			"model":                types.NewKeywordProperty(),
			"state":                types.NewKeywordProperty(),
			"exact_precision":      types.NewDoubleNumberProperty(),
			"exact_recall":         types.NewDoubleNumberProperty(),
			"exact_f1":             types.NewDoubleNumberProperty(),
			"semantic_f1":          types.NewDoubleNumberProperty(),
			"json_compliance_rate": types.NewDoubleNumberProperty(),
			"failed_articles":      types.NewIntegerNumberProperty(),
			"total_tokens":         types.NewLongNumberProperty(),
			"mean_latency_ms":      types.NewDoubleNumberProperty(),
			"indexed_at":           types.NewDateProperty(),
		},
	}

	createRes, err := e.client.Indices.Create(e.indexName).
		Mappings(&mappings).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if !createRes.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}

	slog.Info("Index created successfully", "index", e.indexName)
	return nil
}
