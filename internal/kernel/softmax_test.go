package kernel

import (
	"math"
	"testing"
)

func TestSoftmax(t *testing.T) {
	testCases := []struct {
		name     string
		input    []float64
		expected []float64
	}{
		{
			name:     "simple",
			input:    []float64{1, 2, 3},
			expected: []float64{0.09003057, 0.24472847, 0.66524096},
		},
		{
			name:     "negative",
			input:    []float64{-1, -2, -3},
			expected: []float64{0.66524096, 0.24472847, 0.09003057},
		},
		{
			name:     "zero",
			input:    []float64{0, 0, 0},
			expected: []float64{0.33333333, 0.33333333, 0.33333333},
		},
		{
			name:     "large values do not overflow",
			input:    []float64{1000, 1001, 1002},
			expected: []float64{0.09003057, 0.24472847, 0.66524096},
		},
		{
			name:     "negative infinity gets zero weight",
			input:    []float64{math.Inf(-1), 0, 0},
			expected: []float64{0, 0.5, 0.5},
		},
		{
			name:     "empty",
			input:    []float64{},
			expected: []float64{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := make([]float64, len(tc.input))
			copy(input, tc.input)
			Softmax(input)
			if len(input) != len(tc.expected) {
				t.Errorf("expected length %d, got %d", len(tc.expected), len(input))
			}
			for i := range input {
				if math.Abs(input[i]-tc.expected[i]) > 1e-8 {
					t.Errorf("expected %v, got %v", tc.expected, input)
					break
				}
			}
		})
	}
}

func TestSoftmaxPropagatesNonFinite(t *testing.T) {
	testCases := []struct {
		name  string
		input []float64
	}{
		{"leading NaN", []float64{math.NaN(), 1, 2}},
		{"trailing NaN", []float64{1, 2, math.NaN()}},
		{"positive infinity", []float64{1, math.Inf(1), 2}},
		{"all negative infinity", []float64{math.Inf(-1), math.Inf(-1)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			Softmax(tc.input)
			for i, v := range tc.input {
				if !math.IsNaN(v) {
					t.Errorf("entry %d: expected NaN, got %v", i, v)
				}
			}
		})
	}
}

func TestCheckNumericalStability(t *testing.T) {
	data := []float64{1, math.NaN(), math.Inf(1), math.Inf(-1), math.NaN(), 0}
	nan, inf := CheckNumericalStability(data)
	if nan != 2 || inf != 2 {
		t.Errorf("expected 2 NaN and 2 Inf, got %d and %d", nan, inf)
	}
	if IsFinite(data) {
		t.Error("expected IsFinite to be false")
	}
	if !IsFinite([]float64{0, 1, -1}) {
		t.Error("expected finite data to report finite")
	}
}
