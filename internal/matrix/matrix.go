// Package matrix provides the dense float64 matrix used by the attention
// operations. Values are stored row-major in a flat slice alongside an
// explicit shape.
package matrix

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is an immutable dense array of float64 values. It is normally
// rank 2 (rows x cols), but any rank can be represented so that callers
// passing a vector or a higher-rank tensor get a precise shape error
// instead of a reinterpretation.
type Matrix struct {
	data  []float64
	shape []int
}

// New creates a rows x cols matrix from row-major data. The data is copied.
func New(rows, cols int, data []float64) (*Matrix, error) {
	return FromShape([]int{rows, cols}, data)
}

// Zeros creates a rows x cols matrix filled with zeros.
func Zeros(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("matrix: negative dimension in shape [%d %d]", rows, cols))
	}
	return &Matrix{
		data:  make([]float64, rows*cols),
		shape: []int{rows, cols},
	}
}

// FromRows builds a matrix from a slice of equal-length rows.
func FromRows(rows [][]float64) (*Matrix, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("jagged rows: row %d has %d columns, row 0 has %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return &Matrix{data: data, shape: []int{len(rows), cols}}, nil
}

// FromShape creates an array of arbitrary rank. Data length must equal
// the product of the dimensions.
func FromShape(shape []int, data []float64) (*Matrix, error) {
	size := 1
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("invalid dimension %d in shape %v", dim, shape)
		}
		size *= dim
	}
	if len(data) != size {
		return nil, fmt.Errorf("data size %d does not match shape %v (expected %d elements)",
			len(data), shape, size)
	}

	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)
	return &Matrix{data: dataCopy, shape: copyShape(shape)}, nil
}

// FromDense copies any gonum matrix into a new Matrix.
func FromDense(d mat.Matrix) *Matrix {
	r, c := d.Dims()
	m := Zeros(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.data[i*c+j] = d.At(i, j)
		}
	}
	return m
}

// Rank returns the number of dimensions. A nil matrix has rank 0.
func (m *Matrix) Rank() int {
	if m == nil {
		return 0
	}
	return len(m.shape)
}

// Shape returns a copy of the dimensions.
func (m *Matrix) Shape() []int {
	if m == nil {
		return nil
	}
	return copyShape(m.shape)
}

// Rows returns the size of the first dimension, or 0 for a rank-0 value.
func (m *Matrix) Rows() int {
	if m.Rank() < 1 {
		return 0
	}
	return m.shape[0]
}

// Cols returns the size of the second dimension, or 0 when the rank is
// below 2.
func (m *Matrix) Cols() int {
	if m.Rank() < 2 {
		return 0
	}
	return m.shape[1]
}

// Dims returns (rows, cols), matching gonum's mat.Matrix.Dims.
func (m *Matrix) Dims() (int, int) {
	return m.Rows(), m.Cols()
}

// Len returns the total number of elements.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.data)
}

// At returns the element at row i, column j of a rank-2 matrix.
func (m *Matrix) At(i, j int) float64 {
	m.mustBe2D("At")
	rows, cols := m.shape[0], m.shape[1]
	if i < 0 || i >= rows || j < 0 || j >= cols {
		panic(fmt.Sprintf("matrix: index (%d, %d) out of range for shape %v", i, j, m.shape))
	}
	return m.data[i*cols+j]
}

// Row returns a copy of row i of a rank-2 matrix.
func (m *Matrix) Row(i int) []float64 {
	m.mustBe2D("Row")
	cols := m.shape[1]
	if i < 0 || i >= m.shape[0] {
		panic(fmt.Sprintf("matrix: row %d out of range for shape %v", i, m.shape))
	}
	out := make([]float64, cols)
	copy(out, m.data[i*cols:(i+1)*cols])
	return out
}

// ToRows returns the matrix as a slice of row copies.
func (m *Matrix) ToRows() [][]float64 {
	m.mustBe2D("ToRows")
	out := make([][]float64, m.shape[0])
	for i := range out {
		out[i] = m.Row(i)
	}
	return out
}

// Data returns a copy of the flat row-major storage.
func (m *Matrix) Data() []float64 {
	if m == nil {
		return nil
	}
	out := make([]float64, len(m.data))
	copy(out, m.data)
	return out
}

// Dense copies a rank-2 matrix into a gonum Dense. gonum rejects
// zero-length dimensions, so callers must check for them first.
func (m *Matrix) Dense() *mat.Dense {
	m.mustBe2D("Dense")
	return mat.NewDense(m.shape[0], m.shape[1], m.Data())
}

// Equal reports whether both values have the same shape and bit-identical
// elements.
func (m *Matrix) Equal(o *Matrix) bool {
	if m.Rank() != o.Rank() || m.Len() != o.Len() {
		return false
	}
	for i := range m.shape {
		if m.shape[i] != o.shape[i] {
			return false
		}
	}
	for i := range m.data {
		if m.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// String renders a rank-2 matrix one row per line. Other ranks print
// their shape and flat data.
func (m *Matrix) String() string {
	if m.Rank() != 2 {
		return fmt.Sprintf("array(shape=%v, data=%v)", m.Shape(), m.Data())
	}
	var sb strings.Builder
	sb.WriteString("[")
	rows, cols := m.shape[0], m.shape[1]
	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteString("\n ")
		}
		sb.WriteString("[")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%.8f", m.data[i*cols+j])
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

func (m *Matrix) mustBe2D(op string) {
	if m.Rank() != 2 {
		panic(fmt.Sprintf("matrix: %s requires rank 2, got shape %v", op, m.Shape()))
	}
}

func copyShape(shape []int) []int {
	out := make([]int, len(shape))
	copy(out, shape)
	return out
}
