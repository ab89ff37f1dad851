package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage"
)

// Storer keeps the full experiment as JSONB plus one summary row per
// condition for querying.
type Storer struct {
	pool *ConnectionPool
	db   *pgxpool.Pool
}

func NewStorer(pool *ConnectionPool) (*Storer, error) {
	if pool == nil {
		return nil, fmt.Errorf("nil connection pool")
	}
	return &Storer{pool: pool, db: pool.conn}, nil
}

var conditionColumns = []string{
	"experiment_id", "condition_id", "prompt_type", "provider", "model", "state",
	"exact_f1", "semantic_f1", "json_compliance_rate", "failed_articles", "total_tokens",
}

// Save replaces any earlier copy of the same experiment.
func (s *Storer) Save(ctx context.Context, result *runner.ExperimentResult) error {
	configJSON, err := json.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal experiment: %w", err)
	}

	err = s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		cmd := `
	        INSERT INTO experiment_results (experiment_id, run_id, created_at, article_count, config, payload)
	        VALUES ($1, $2, $3, $4, $5, $6)
	        ON CONFLICT (experiment_id) DO UPDATE
	        SET run_id = EXCLUDED.run_id,
	            created_at = EXCLUDED.created_at,
	            article_count = EXCLUDED.article_count,
	            config = EXCLUDED.config,
	            payload = EXCLUDED.payload,
	            stored_at = now();
	    `
		if _, err := tx.Exec(ctx, cmd,
			result.ExperimentID,
			result.RunID,
			result.Timestamp,
			result.Articles,
			configJSON,
			payload,
		); err != nil {
			return fmt.Errorf("failed to insert experiment: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM condition_results WHERE experiment_id = $1`, result.ExperimentID); err != nil {
			return fmt.Errorf("failed to clear condition rows: %w", err)
		}

		rows := make([][]any, len(result.Conditions))
		for i, c := range result.Conditions {
			var semanticF1 *float64
			if c.AggregateSemantic != nil {
				f1 := c.AggregateSemantic.F1
				semanticF1 = &f1
			}
			rows[i] = []any{
				result.ExperimentID,
				c.ConditionID,
				string(c.PromptType),
				string(c.Provider),
				c.Model,
				string(c.State),
				c.AggregateExact.F1,
				semanticF1,
				c.JSONComplianceRate,
				c.FailedArticles,
				c.TotalTokens,
			}
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"condition_results"}, conditionColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("failed to bulk insert condition rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("experiment stored", "experiment_id", result.ExperimentID, "conditions", len(result.Conditions))
	return nil
}

func (s *Storer) Get(ctx context.Context, experimentID string) (*runner.ExperimentResult, error) {
	var payload []byte
	err := s.db.QueryRow(ctx,
		`SELECT payload FROM experiment_results WHERE experiment_id = $1`,
		experimentID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, experimentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load experiment: %w", err)
	}

	var res runner.ExperimentResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("failed to decode experiment: %w", err)
	}
	return &res, nil
}

// ConditionSummary is one row of condition_results.
type ConditionSummary struct {
	ExperimentID   string
	ConditionID    string
	Provider       string
	Model          string
	State          string
	ExactF1        float64
	SemanticF1     *float64
	JSONCompliance float64
}

// ModelHistory lists condition summaries for a model across experiments,
// newest first.
func (s *Storer) ModelHistory(ctx context.Context, provider, model string) ([]ConditionSummary, error) {
	rows, err := s.db.Query(ctx, `
        SELECT c.experiment_id, c.condition_id, c.provider, c.model, c.state,
               c.exact_f1, c.semantic_f1, c.json_compliance_rate
        FROM condition_results c
        JOIN experiment_results e ON e.experiment_id = c.experiment_id
        WHERE c.provider = $1 AND c.model = $2
        ORDER BY e.created_at DESC, c.condition_id`,
		provider, model,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query model history: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ConditionSummary, error) {
		var cs ConditionSummary
		err := row.Scan(&cs.ExperimentID, &cs.ConditionID, &cs.Provider, &cs.Model, &cs.State,
			&cs.ExactF1, &cs.SemanticF1, &cs.JSONCompliance)
		return cs, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan model history: %w", err)
	}
	return out, nil
}
