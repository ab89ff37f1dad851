package metrics

import (
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
	"github.com/DjordjeVuckovic/news-highlight/pkg/utils"
)

// Pair is a one-to-one assignment of a predicted sentence to a gold sentence.
type Pair struct {
	Predicted int     `json:"predicted"`
	Gold      int     `json:"gold"`
	Score     float64 `json:"score"`
}

type Scores struct {
	Mode      similarity.Mode `json:"mode"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Matched   []Pair          `json:"matched,omitempty"`

	// PredictedCount and GoldCount are the set sizes after exclusions.
	PredictedCount int `json:"predicted_count"`
	GoldCount      int `json:"gold_count"`
	// Excluded counts pairs whose similarity could not be computed.
	Excluded int `json:"excluded,omitempty"`
}

func (s Scores) Total() float64 {
	var total float64
	for _, p := range s.Matched {
		total += p.Score
	}
	return total
}

// Precision is total credit over the predicted set size.
func Precision(total float64, predicted int) float64 {
	if predicted == 0 {
		return 0
	}
	return total / float64(predicted)
}

// Recall is total credit over the gold set size.
func Recall(total float64, gold int) float64 {
	if gold == 0 {
		return 0
	}
	return total / float64(gold)
}

// F1 is the harmonic mean of precision and recall, 0 when both are 0.
func F1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func newScores(mode similarity.Mode, matched []Pair, predicted, gold, excluded int) Scores {
	s := Scores{
		Mode:           mode,
		Matched:        matched,
		PredictedCount: predicted,
		GoldCount:      gold,
		Excluded:       excluded,
	}

	switch {
	case predicted == 0 && gold == 0:
		s.Precision, s.Recall, s.F1 = domain.FullMatch, domain.FullMatch, domain.FullMatch
	case predicted == 0 || gold == 0:
		// zero values
	default:
		total := s.Total()
		s.Precision = Precision(total, predicted)
		s.Recall = Recall(total, gold)
		s.F1 = F1(s.Precision, s.Recall)
	}

	return s
}

// Rounded returns a copy with P/R/F1 rounded for reporting.
func (s Scores) Rounded() Scores {
	s.Precision = utils.RoundDecimal(s.Precision, domain.ScoreDecimalPlaces)
	s.Recall = utils.RoundDecimal(s.Recall, domain.ScoreDecimalPlaces)
	s.F1 = utils.RoundDecimal(s.F1, domain.ScoreDecimalPlaces)
	return s
}
