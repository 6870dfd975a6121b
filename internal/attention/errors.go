package attention

import (
	"fmt"

	"github.com/23skdu/longbow-sdpa/internal/matrix"
)

// ShapeError reports an input that is not a usable 2D matrix: its rank is
// not 2, or one of its dimensions is zero.
type ShapeError struct {
	Op    string
	Name  string
	Rank  int
	Shape []int
}

func (e *ShapeError) Error() string {
	if e.Rank != 2 {
		return fmt.Sprintf("%s: %s must be a 2D matrix, but has %d dimension(s) instead", e.Op, e.Name, e.Rank)
	}
	return fmt.Sprintf("%s: %s must have non-zero dimensions, got shape %v", e.Op, e.Name, e.Shape)
}

// DimensionMismatchError reports two matrices that must share a dimension
// but do not.
type DimensionMismatchError struct {
	Op         string
	Dim        string
	Left       string
	Right      string
	LeftValue  int
	RightValue int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: incompatible %s: %s=%d != %s=%d",
		e.Op, e.Dim, e.Left, e.LeftValue, e.Right, e.RightValue)
}

// errorType is the metrics label for a validation failure.
func errorType(err error) string {
	switch err.(type) {
	case *ShapeError:
		return "shape"
	case *DimensionMismatchError:
		return "dimension_mismatch"
	default:
		return "unknown"
	}
}

func checkMatrix(op, name string, m *matrix.Matrix) error {
	if m.Rank() != 2 || m.Rows() == 0 || m.Cols() == 0 {
		return &ShapeError{Op: op, Name: name, Rank: m.Rank(), Shape: m.Shape()}
	}
	return nil
}

// validateAttention checks ranks of Q, K and V in that order, then the
// shared key dimension, then the key/value row count. The first failure
// wins.
func validateAttention(q, k, v *matrix.Matrix) error {
	inputs := []struct {
		name string
		m    *matrix.Matrix
	}{{"Q", q}, {"K", k}, {"V", v}}
	for _, in := range inputs {
		if err := checkMatrix(opAttention, in.name, in.m); err != nil {
			return err
		}
	}

	if q.Cols() != k.Cols() {
		return &DimensionMismatchError{
			Op: opAttention, Dim: "d_k",
			Left: "Q.cols", LeftValue: q.Cols(),
			Right: "K.cols", RightValue: k.Cols(),
		}
	}
	if k.Rows() != v.Rows() {
		return &DimensionMismatchError{
			Op: opAttention, Dim: "number of rows",
			Left: "K.rows", LeftValue: k.Rows(),
			Right: "V.rows", RightValue: v.Rows(),
		}
	}
	return nil
}
