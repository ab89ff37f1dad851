package factory

import (
	"context"
	"fmt"

	"github.com/DjordjeVuckovic/news-highlight/internal/storage"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage/es"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage/in_mem"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage/pg"
)

// NewStorer builds the storer selected by cfg. The returned close function
// releases backend connections and is never nil.
func NewStorer(ctx context.Context, cfg *StorageConfig) (storage.ResultStorer, func(), error) {
	noop := func() {}

	switch cfg.Type {
	case storage.JSON:
		return storage.NewJsonFileStorer(cfg.Dir), noop, nil

	case storage.PG:
		if cfg.Pg == nil {
			return nil, noop, fmt.Errorf("missing PostgreSQL config")
		}
		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}
		s, err := pg.NewStorer(pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return s, pool.Close, nil

	case storage.ES:
		if cfg.Es == nil {
			return nil, noop, fmt.Errorf("missing Elasticsearch config")
		}
		s, err := es.NewStorer(ctx, *cfg.Es)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case storage.InMem:
		return in_mem.NewInMemStorer(), noop, nil

	default:
		return nil, noop, fmt.Errorf(string(storage.ErrUnsupportedStorer), cfg.Type)
	}
}
