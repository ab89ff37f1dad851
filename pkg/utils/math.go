package utils

import "math"

// RoundDecimal rounds a float64 value half away from zero to the specified
// number of decimal places. RoundDecimal(3.14159, 2) returns 3.14.
// NaN and ±Inf are returned unchanged.
func RoundDecimal(value float64, decimals int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	pow := math.Pow10(decimals)
	return math.Round(value*pow) / pow
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (n-1), 0 for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
