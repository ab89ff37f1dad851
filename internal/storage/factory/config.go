package factory

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/DjordjeVuckovic/news-highlight/internal/storage"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage/es"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage/pg"
)

const (
	DefaultResultsDir = "results"
	DefaultIndexName  = "experiment_conditions"
)

type StorageConfig struct {
	storage.Type
	// Dir is used by the json storer.
	Dir string
	Pg  *pg.PoolConfig
	Es  *es.ClientConfig
}

// LoadEnv reads STORAGE_TYPE and the settings of the selected backend.
// An unset STORAGE_TYPE selects json files under RESULTS_DIR.
func LoadEnv() (*StorageConfig, error) {
	storageType := storage.Type(os.Getenv("STORAGE_TYPE"))
	if storageType == "" {
		storageType = storage.JSON
	}
	if !slices.Contains(storage.Types, storageType) {
		slog.Error("Invalid STORAGE_TYPE environment variable value", "value", storageType)
		return nil, fmt.Errorf(
			"invalid STORAGE_TYPE environment variable value: %s, expected one of %v",
			storageType, storage.Types)
	}

	cfg := &StorageConfig{Type: storageType, Dir: os.Getenv("RESULTS_DIR")}
	if cfg.Dir == "" {
		cfg.Dir = DefaultResultsDir
	}

	switch storageType {
	case storage.ES:
		cfg.Es = &es.ClientConfig{
			Addresses: splitNonEmpty(os.Getenv("ES_ADDRESSES")),
			IndexName: os.Getenv("ES_INDEX_NAME"),
			APIKey:    os.Getenv("ES_API_KEY"),
			Username:  os.Getenv("ES_USERNAME"),
			Password:  os.Getenv("ES_PASSWORD"),
		}
		if cfg.Es.IndexName == "" {
			cfg.Es.IndexName = DefaultIndexName
		}
		if len(cfg.Es.Addresses) == 0 {
			slog.Error("Elasticsearch configuration is incomplete", "addresses", cfg.Es.Addresses)
			return nil, fmt.Errorf("elasticsearch configuration is incomplete: ES_ADDRESSES is missing")
		}
	case storage.PG:
		cfg.Pg = &pg.PoolConfig{
			ConnStr:         os.Getenv("PG_CONNECTION_STRING"),
			ApplicationName: os.Getenv("PG_APPLICATION_NAME"),
		}
		if cfg.Pg.ConnStr == "" {
			slog.Error("PostgreSQL connection string is not set")
			return nil, fmt.Errorf("PostgreSQL connection string is not set")
		}
	}

	return cfg, nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
