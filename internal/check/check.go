// Package check verifies attention results against the properties every
// valid result must satisfy and against an independent reference.
package check

import (
	"fmt"
	"math"

	"github.com/23skdu/longbow-sdpa/internal/matrix"
)

type Result struct {
	Name   string
	Passed bool
	Detail string
}

func (r Result) String() string {
	status := "PASSED"
	if !r.Passed {
		status = "FAILED"
	}
	if r.Detail == "" {
		return fmt.Sprintf("%s: %s", r.Name, status)
	}
	return fmt.Sprintf("%s: %s (%s)", r.Name, status, r.Detail)
}

type Report struct {
	Results []Result
}

// Passed returns how many checks passed.
func (r Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

func (r Report) Total() int {
	return len(r.Results)
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	return r.Passed() == r.Total()
}

func (r Report) Summary() string {
	return fmt.Sprintf("Result: %d/%d tests passed.", r.Passed(), r.Total())
}

// Verify runs all checks on the result of attending q, k, v.
func Verify(q, k, v, output, weights *matrix.Matrix, tol float64) Report {
	return Report{Results: []Result{
		WeightsSumToOne(weights, tol),
		WeightsNonNegative(weights),
		OutputShape(q, v, output),
		NumericalCorrectness(q, k, v, output, weights, tol),
	}}
}

func WeightsSumToOne(weights *matrix.Matrix, tol float64) Result {
	res := Result{Name: "weights_sum_to_one", Passed: true}
	rows, cols := weights.Dims()
	sums := make([]float64, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sums[i] += weights.At(i, j)
		}
		// NaN sums fail here too.
		if !(math.Abs(sums[i]-1) <= tol) {
			res.Passed = false
		}
	}
	if !res.Passed {
		res.Detail = fmt.Sprintf("row sums: %v", sums)
	}
	return res
}

func WeightsNonNegative(weights *matrix.Matrix) Result {
	negative := 0
	for _, w := range weights.Data() {
		if w < 0 {
			negative++
		}
	}
	res := Result{Name: "weights_non_negative", Passed: negative == 0}
	if negative > 0 {
		res.Detail = fmt.Sprintf("%d negative values", negative)
	}
	return res
}

func OutputShape(q, v, output *matrix.Matrix) Result {
	want := []int{q.Rows(), v.Cols()}
	got := output.Shape()
	res := Result{Name: "output_shape"}
	res.Passed = len(got) == 2 && got[0] == want[0] && got[1] == want[1]
	if res.Passed {
		res.Detail = fmt.Sprintf("shape=%v", got)
	} else {
		res.Detail = fmt.Sprintf("expected=%v, obtained=%v", want, got)
	}
	return res
}

// NumericalCorrectness compares weights and output against Reference.
func NumericalCorrectness(q, k, v, output, weights *matrix.Matrix, tol float64) Result {
	wantOut, wantWeights := Reference(q, k, v)
	wDiff := MaxAbsDiff(weights, wantWeights)
	oDiff := MaxAbsDiff(output, wantOut)

	res := Result{Name: "numerical_correctness", Passed: wDiff <= tol && oDiff <= tol}
	if !res.Passed {
		res.Detail = fmt.Sprintf("weights max diff: %.2e, output max diff: %.2e", wDiff, oDiff)
	}
	return res
}

// MaxAbsDiff returns the largest element-wise absolute difference. It is
// +Inf when the shapes differ and NaN when either side holds NaN.
func MaxAbsDiff(a, b *matrix.Matrix) float64 {
	ad, bd := a.Data(), b.Data()
	as, bs := a.Shape(), b.Shape()
	if len(as) != len(bs) || len(ad) != len(bd) {
		return math.Inf(1)
	}
	for i := range as {
		if as[i] != bs[i] {
			return math.Inf(1)
		}
	}
	max := 0.0
	for i := range ad {
		d := math.Abs(ad[i] - bd[i])
		if math.IsNaN(d) {
			return math.NaN()
		}
		if d > max {
			max = d
		}
	}
	return max
}
