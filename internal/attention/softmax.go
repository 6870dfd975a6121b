package attention

import (
	"time"

	"github.com/23skdu/longbow-sdpa/internal/matrix"
)

// Softmax normalizes each row of x into a probability distribution using
// the max-shifted formula. x must be a non-empty 2D matrix; anything else
// fails with *ShapeError. The input is not modified.
//
// Rows containing NaN or +Inf, or made only of -Inf, come back as all-NaN
// rows. See kernel.Softmax.
func Softmax(x *matrix.Matrix) (*matrix.Matrix, error) {
	return pure.Softmax(x)
}

// Softmax is the instrumented form of the package-level Softmax.
func (e *Engine) Softmax(x *matrix.Matrix) (*matrix.Matrix, error) {
	start := time.Now()
	if err := checkMatrix(opSoftmax, "x", x); err != nil {
		e.reject(opSoftmax, err)
		return nil, err
	}

	d := x.Dense()
	e.normalize(d)
	out := matrix.FromDense(d)

	e.observe(opSoftmax, start, out, map[string]*matrix.Matrix{"x": x})
	return out, nil
}
