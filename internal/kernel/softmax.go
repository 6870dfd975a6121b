// Package kernel holds the in-place row kernels used by the attention
// operations.
package kernel

import "math"

// Softmax normalizes x in place into a probability distribution. The row
// maximum is subtracted before exponentiation so large inputs cannot
// overflow.
//
// Non-finite input propagates: if x contains NaN or +Inf, or every entry
// is -Inf, every output entry is NaN. A -Inf entry in an otherwise finite
// row gets weight 0.
func Softmax(x []float64) {
	if len(x) == 0 {
		return
	}
	max := Max(x)

	sum := 0.0
	for i := range x {
		x[i] = math.Exp(x[i] - max)
		sum += x[i]
	}

	for i := range x {
		x[i] /= sum
	}
}

// Max returns the largest entry of x. If x[0] is NaN the result is NaN;
// later NaNs are skipped here and surface through the exponent instead.
func Max(x []float64) float64 {
	max := x[0]
	for _, v := range x[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Sum returns the sum of x.
func Sum(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s
}
