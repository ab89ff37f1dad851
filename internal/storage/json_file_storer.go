package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/report"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
)

// JsonFileStorer writes each experiment to <dir>/<experiment_id>_results.json.
type JsonFileStorer struct {
	dir string
}

func NewJsonFileStorer(dir string) *JsonFileStorer {
	return &JsonFileStorer{
		dir: dir,
	}
}

func (s *JsonFileStorer) Save(ctx context.Context, result *runner.ExperimentResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := report.WriteResults(result, s.dir)
	if err != nil {
		return err
	}
	slog.Info("saved experiment results", "experiment_id", result.ExperimentID, "path", path)
	return nil
}

func (s *JsonFileStorer) Get(ctx context.Context, experimentID string) (*runner.ExperimentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := report.ReadResults(report.ResultsPath(s.dir, experimentID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, experimentID)
	}
	return res, err
}
