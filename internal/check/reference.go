package check

import (
	"math"

	"github.com/23skdu/longbow-sdpa/internal/matrix"
)

// Reference recomputes attention with plain loops and the unshifted
// softmax exp(s) / Σexp(s). It overflows for large scores and exists only
// to cross-check the stabilized path. Inputs must be valid rank-2
// matrices with compatible shapes.
func Reference(q, k, v *matrix.Matrix) (output, weights *matrix.Matrix) {
	nq, dk := q.Dims()
	nk, dv := v.Dims()
	scale := math.Sqrt(float64(dk))

	w := make([]float64, nq*nk)
	for i := 0; i < nq; i++ {
		row := w[i*nk : (i+1)*nk]
		sum := 0.0
		for j := 0; j < nk; j++ {
			score := 0.0
			for l := 0; l < dk; l++ {
				score += q.At(i, l) * k.At(j, l)
			}
			row[j] = math.Exp(score / scale)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}

	out := make([]float64, nq*dv)
	for i := 0; i < nq; i++ {
		for j := 0; j < nk; j++ {
			weight := w[i*nk+j]
			for c := 0; c < dv; c++ {
				out[i*dv+c] += weight * v.At(j, c)
			}
		}
	}

	weights, _ = matrix.New(nq, nk, w)
	output, _ = matrix.New(nq, dv, out)
	return output, weights
}
