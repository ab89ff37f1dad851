// Package analysis compares conditions of a finished experiment: prompt
// improvement rate, inter-model agreement and paired significance tests.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/DjordjeVuckovic/news-highlight/internal/textnorm"
)

const DefaultAlpha = 0.05

var (
	ErrDivisionUndefined   = errors.New("division undefined: baseline is zero")
	ErrInsufficientSamples = errors.New("insufficient samples")
)

// PIR is the relative F1 change from baseline to optimized, in percent.
func PIR(optimizedF1, baselineF1 float64) (float64, error) {
	if baselineF1 == 0 {
		return 0, ErrDivisionUndefined
	}
	return (optimizedF1 - baselineF1) / baselineF1 * 100, nil
}

type TTest struct {
	Statistic   float64 `json:"statistic"`
	PValue      float64 `json:"p_value"`
	DF          int     `json:"df"`
	MeanDiff    float64 `json:"mean_diff"`
	Significant bool    `json:"significant"`
	Alpha       float64 `json:"alpha"`
}

// MarshalJSON writes a non-finite statistic as a string since JSON has no Inf.
func (t TTest) MarshalJSON() ([]byte, error) {
	type alias TTest
	if !math.IsInf(t.Statistic, 0) && !math.IsNaN(t.Statistic) {
		return json.Marshal(alias(t))
	}
	return json.Marshal(struct {
		alias
		Statistic string `json:"statistic"`
	}{alias: alias(t), Statistic: fmt.Sprintf("%+v", t.Statistic)})
}

// Significance runs a two-sided paired t-test of a against b at DefaultAlpha.
// Differences with zero variance give an infinite statistic and p = 0 when the
// mean difference is non-zero, and statistic 0 with p = 1 otherwise.
func Significance(a, b []float64) (TTest, error) {
	if len(a) != len(b) {
		return TTest{}, fmt.Errorf("%w: series lengths differ (%d vs %d)", ErrInsufficientSamples, len(a), len(b))
	}
	n := len(a)
	if n < 2 {
		return TTest{}, fmt.Errorf("%w: need at least 2 paired observations, got %d", ErrInsufficientSamples, n)
	}

	diffs := make([]float64, n)
	for i := range a {
		diffs[i] = a[i] - b[i]
	}

	mean, sd := stat.MeanStdDev(diffs, nil)
	res := TTest{DF: n - 1, MeanDiff: mean, Alpha: DefaultAlpha}

	if sd == 0 {
		if mean == 0 {
			res.Statistic, res.PValue = 0, 1
		} else {
			res.Statistic, res.PValue = math.Inf(sign(mean)), 0
		}
		res.Significant = res.PValue < res.Alpha
		return res, nil
	}

	res.Statistic = mean / (sd / math.Sqrt(float64(n)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(res.DF)}
	res.PValue = 2 * dist.CDF(-math.Abs(res.Statistic))
	res.Significant = res.PValue < res.Alpha

	return res, nil
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}

// Jaccard compares two sentence lists as sets of normalized text. ok is
// false when both are empty.
func Jaccard(a, b []string) (float64, bool) {
	setA := normalizedSet(a)
	setB := normalizedSet(b)

	union := len(setA)
	inter := 0
	for s := range setB {
		if setA[s] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0, false
	}
	return float64(inter) / float64(union), true
}

func normalizedSet(sentences []string) map[string]bool {
	set := make(map[string]bool, len(sentences))
	for _, s := range sentences {
		if n := textnorm.Normalize(s); n != "" {
			set[n] = true
		}
	}
	return set
}
