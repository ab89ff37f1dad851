// Package storage persists experiment results.
package storage

import (
	"context"
	"errors"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
)

type ResultStorer interface {
	Save(ctx context.Context, result *runner.ExperimentResult) error
}

// ResultReader is implemented by storers that can return a whole experiment.
type ResultReader interface {
	Get(ctx context.Context, experimentID string) (*runner.ExperimentResult, error)
}

type Type string

const (
	JSON  Type = "json"
	ES    Type = "es"
	PG    Type = "pg"
	InMem Type = "in_mem"
)

var Types = []Type{JSON, ES, PG, InMem}

var ErrNotFound = errors.New("experiment not found")

type StorerError string

const (
	ErrUnsupportedStorer StorerError = "unsupported storer type: %s"
)

func (e StorerError) Error() string {
	return string(e)
}
