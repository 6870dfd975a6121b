package kernel

import "math"

// CheckNumericalStability counts NaN and infinite entries.
func CheckNumericalStability(data []float64) (nanCount, infCount int) {
	for _, v := range data {
		if math.IsNaN(v) {
			nanCount++
		}
		if math.IsInf(v, 0) {
			infCount++
		}
	}
	return
}

// IsFinite reports whether data holds no NaN or infinite values.
func IsFinite(data []float64) bool {
	nan, inf := CheckNumericalStability(data)
	return nan == 0 && inf == 0
}
