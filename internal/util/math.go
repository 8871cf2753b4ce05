package util

import "math"

func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Clamp limits v to [lo, hi].
func Clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RoundTo rounds v half away from zero to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
