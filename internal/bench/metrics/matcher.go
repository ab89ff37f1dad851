// Package metrics scores a predicted sentence set against a gold set using
// one-to-one matching.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
)

// maxOptimalItems bounds the exhaustive assignment search.
const maxOptimalItems = 8

type options struct {
	optimal bool
}

type Option func(*options)

// WithOptimalAssignment maximizes total credit instead of matching greedily.
// It applies only when both sets have at most 8 items; larger sets fall back
// to greedy matching.
func WithOptimalAssignment() Option {
	return func(o *options) {
		o.optimal = true
	}
}

type cell struct {
	score  float64
	failed bool
}

// ScoreSets matches predicted against gold and returns precision, recall and F1.
//
// Greedy matching walks predicted in input order. Each predicted sentence takes
// the unmatched gold sentence with the highest positive score, ties going to
// the lowest gold index. Pairs whose embedding failed are never matched. A
// predicted sentence left unmatched with a failed pair is dropped from the
// predicted count, and a gold sentence whose every comparison failed is dropped
// from the gold count. If that leaves nothing to score, an error wrapping
// similarity.ErrEmbedding is returned.
func ScoreSets(ctx context.Context, predicted, gold []string, m similarity.Matcher, opts ...Option) (Scores, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if len(predicted) == 0 || len(gold) == 0 {
		return newScores(m.Mode(), nil, len(predicted), len(gold), 0), nil
	}

	grid, failedPairs, err := scoreGrid(ctx, predicted, gold, m)
	if err != nil {
		return Scores{}, err
	}

	var matched []Pair
	if o.optimal && len(predicted) <= maxOptimalItems && len(gold) <= maxOptimalItems {
		matched = optimalMatch(grid, len(gold))
	} else {
		matched = greedyMatch(grid, len(gold))
	}

	if failedPairs == 0 {
		return newScores(m.Mode(), matched, len(predicted), len(gold), 0), nil
	}

	predCount, goldCount := countScorable(grid, matched, len(gold))
	if predCount == 0 && goldCount == 0 {
		return Scores{}, fmt.Errorf("all %d pairs failed to score: %w", failedPairs, similarity.ErrEmbedding)
	}

	return newScores(m.Mode(), matched, predCount, goldCount, failedPairs), nil
}

func scoreGrid(ctx context.Context, predicted, gold []string, m similarity.Matcher) ([][]cell, int, error) {
	grid := make([][]cell, len(predicted))
	var failed int

	for i, p := range predicted {
		grid[i] = make([]cell, len(gold))
		for j, g := range gold {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}

			s, err := m.Score(ctx, p, g)
			if err != nil {
				if errors.Is(err, similarity.ErrEmbedding) {
					grid[i][j].failed = true
					failed++
					continue
				}
				return nil, 0, fmt.Errorf("score pair (%d, %d): %w", i, j, err)
			}
			grid[i][j].score = s
		}
	}

	return grid, failed, nil
}

func greedyMatch(grid [][]cell, goldLen int) []Pair {
	used := make([]bool, goldLen)
	var matched []Pair

	for i, row := range grid {
		best, bestScore := -1, 0.0
		for j, c := range row {
			if used[j] || c.failed {
				continue
			}
			if c.score > bestScore {
				best, bestScore = j, c.score
			}
		}
		if best >= 0 {
			used[best] = true
			matched = append(matched, Pair{Predicted: i, Gold: best, Score: bestScore})
		}
	}

	return matched
}

// optimalMatch searches all partial assignments. Among equal totals the first
// found wins, which prefers lower gold indices for earlier predictions.
func optimalMatch(grid [][]cell, goldLen int) []Pair {
	used := make([]bool, goldLen)
	var best []Pair
	bestTotal := -1.0
	current := make([]Pair, 0, len(grid))

	var search func(i int, total float64)
	search = func(i int, total float64) {
		if i == len(grid) {
			if total > bestTotal {
				bestTotal = total
				best = append(best[:0:0], current...)
			}
			return
		}

		for j, c := range grid[i] {
			if used[j] || c.failed || c.score <= 0 {
				continue
			}
			used[j] = true
			current = append(current, Pair{Predicted: i, Gold: j, Score: c.score})
			search(i+1, total+c.score)
			current = current[:len(current)-1]
			used[j] = false
		}
		search(i+1, total)
	}
	search(0, 0)

	if len(best) == 0 {
		return nil
	}
	return best
}

func countScorable(grid [][]cell, matched []Pair, goldLen int) (int, int) {
	predMatched := make(map[int]bool, len(matched))
	goldMatched := make(map[int]bool, len(matched))
	for _, p := range matched {
		predMatched[p.Predicted] = true
		goldMatched[p.Gold] = true
	}

	predCount := 0
	for i, row := range grid {
		if predMatched[i] || !anyFailed(row) {
			predCount++
		}
	}

	goldCount := 0
	for j := 0; j < goldLen; j++ {
		allFailed := true
		for i := range grid {
			if !grid[i][j].failed {
				allFailed = false
				break
			}
		}
		if goldMatched[j] || !allFailed {
			goldCount++
		}
	}

	return predCount, goldCount
}

func anyFailed(row []cell) bool {
	for _, c := range row {
		if c.failed {
			return true
		}
	}
	return false
}
