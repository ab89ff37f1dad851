package domain

const ScoreDecimalPlaces = 4

// Credit values a single sentence pair can earn.
const (
	NoMatch      = 0.0
	PartialMatch = 0.5
	FullMatch    = 1.0
)
