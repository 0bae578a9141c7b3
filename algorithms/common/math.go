package common

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// AmplitudeToDB converts a linear amplitude ratio value/ref to decibels.
// A zero value returns -Inf; a zero reference returns NaN so callers can
// tell "no reference" apart from "very quiet".
func AmplitudeToDB(value, ref float64) float64 {
	if ref == 0 {
		return math.NaN()
	}
	return 20 * math.Log10(value/ref)
}

// RoundHalfUp rounds x to the nearest integer, halves going up (floor(x+0.5)).
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampInt constrains an integer to [min, max]. When max < min, min wins.
func ClampInt(value, min, max int) int {
	if value > max {
		value = max
	}
	if value < min {
		value = min
	}
	return value
}

// IsFinite reports whether x is neither NaN nor infinite
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
