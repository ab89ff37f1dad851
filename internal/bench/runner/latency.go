package runner

import (
	"sort"
	"time"

	"github.com/DjordjeVuckovic/news-highlight/pkg/utils"
)

// CallStats summarizes provider call durations in milliseconds.
type CallStats struct {
	MeanMs      float64 `json:"mean_ms"`
	MedianMs    float64 `json:"median_ms"`
	P95Ms       float64 `json:"p95_ms"`
	MaxMs       float64 `json:"max_ms"`
	StddevMs    float64 `json:"stddev_ms"`
	SampleCount int     `json:"sample_count"`
}

func ComputeCallStats(durations []time.Duration) CallStats {
	if len(durations) == 0 {
		return CallStats{}
	}

	ms := make([]float64, len(durations))
	for i, d := range durations {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	sort.Float64s(ms)

	return CallStats{
		MeanMs:      utils.Mean(ms),
		MedianMs:    percentile(ms, 50),
		P95Ms:       percentile(ms, 95),
		MaxMs:       ms[len(ms)-1],
		StddevMs:    utils.StdDev(ms),
		SampleCount: len(ms),
	}
}

// percentile interpolates linearly between closest ranks of sorted values.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s CallStats) IsZero() bool {
	return s.SampleCount == 0
}
