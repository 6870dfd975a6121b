package attention

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/longbow-sdpa/internal/matrix"
)

// ScaledDotProductAttention computes softmax(Q·Kᵀ / √d_k)·V.
//
//   - q: [nQueries, dK]
//   - k: [nKeys, dK]
//   - v: [nKeys, dV]
//
// It returns output [nQueries, dV] and weights [nQueries, nKeys]. Shapes
// are checked before any arithmetic: ranks of Q, K, V first (*ShapeError),
// then Q/K columns and K/V rows (*DimensionMismatchError).
func ScaledDotProductAttention(q, k, v *matrix.Matrix) (output, weights *matrix.Matrix, err error) {
	return pure.Attend(q, k, v)
}

// Attend is the instrumented form of ScaledDotProductAttention.
func (e *Engine) Attend(q, k, v *matrix.Matrix) (output, weights *matrix.Matrix, err error) {
	start := time.Now()
	if err := validateAttention(q, k, v); err != nil {
		e.reject(opAttention, err)
		return nil, nil, err
	}

	scores := scaledScores(q, k)
	e.normalize(scores)

	var out mat.Dense
	out.Mul(scores, v.Dense())

	weights = matrix.FromDense(scores)
	output = matrix.FromDense(&out)

	e.observe(opAttention, start, weights, map[string]*matrix.Matrix{"q": q, "k": k, "v": v})
	return output, weights, nil
}

// scaledScores returns Q·Kᵀ divided element-wise by √d_k. Inputs must
// already be validated.
func scaledScores(q, k *matrix.Matrix) *mat.Dense {
	scale := math.Sqrt(float64(k.Cols()))

	var scores mat.Dense
	scores.Mul(q.Dense(), k.Dense().T())
	scores.Apply(func(_, _ int, v float64) float64 {
		return v / scale
	}, &scores)
	return &scores
}
