package in_mem

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage"
)

type InMemStorer struct {
	storageLock sync.RWMutex
	storage     map[string]*runner.ExperimentResult
}

func NewInMemStorer() *InMemStorer {
	return &InMemStorer{
		storage: make(map[string]*runner.ExperimentResult),
	}
}

// Save keeps the result by experiment ID, replacing an earlier one.
func (s *InMemStorer) Save(ctx context.Context, result *runner.ExperimentResult) error {
	if result == nil {
		return fmt.Errorf("nil experiment result")
	}
	s.storageLock.Lock()
	defer s.storageLock.Unlock()
	s.storage[result.ExperimentID] = result
	slog.Debug("saved experiment in memory", "experiment_id", result.ExperimentID, "conditions", len(result.Conditions))
	return nil
}

func (s *InMemStorer) Get(ctx context.Context, experimentID string) (*runner.ExperimentResult, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()
	res, ok := s.storage[experimentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, experimentID)
	}
	return res, nil
}

// IDs lists stored experiment IDs in sorted order.
func (s *InMemStorer) IDs() []string {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()
	ids := make([]string, 0, len(s.storage))
	for id := range s.storage {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
