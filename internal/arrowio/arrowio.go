// Package arrowio writes and reads matrices as Apache Arrow IPC streams.
// Each matrix column becomes a float64 field named c0, c1, ...; rows map
// to record rows. The matrix name travels in the schema metadata.
package arrowio

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/23skdu/longbow-sdpa/internal/matrix"
)

// MetadataName is the schema metadata key holding the matrix name.
const MetadataName = "matrix.name"

// Schema returns the Arrow schema for a named matrix with cols columns.
func Schema(name string, cols int) *arrow.Schema {
	fields := make([]arrow.Field, cols)
	for j := range fields {
		fields[j] = arrow.Field{Name: "c" + strconv.Itoa(j), Type: arrow.PrimitiveTypes.Float64}
	}
	md := arrow.NewMetadata([]string{MetadataName}, []string{name})
	return arrow.NewSchema(fields, &md)
}

// WriteMatrix encodes m as a single-record IPC stream. A nil allocator
// uses memory.DefaultAllocator.
func WriteMatrix(w io.Writer, name string, m *matrix.Matrix, mem memory.Allocator) error {
	if m.Rank() != 2 || m.Cols() == 0 {
		return fmt.Errorf("export %s: need a 2D matrix with at least one column, got shape %v", name, m.Shape())
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	rows, cols := m.Dims()
	schema := Schema(name, cols)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for j := 0; j < cols; j++ {
		fb := b.Field(j).(*array.Float64Builder)
		fb.Reserve(rows)
		for i := 0; i < rows; i++ {
			fb.Append(m.At(i, j))
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("export %s: failed to write record: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("export %s: failed to close writer: %w", name, err)
	}
	return nil
}

// ReadMatrix decodes an IPC stream written by WriteMatrix. Streams with
// several records are concatenated row-wise.
func ReadMatrix(r io.Reader, mem memory.Allocator) (string, *matrix.Matrix, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	reader, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return "", nil, fmt.Errorf("failed to open IPC stream: %w", err)
	}
	defer reader.Release()

	schema := reader.Schema()
	for _, f := range schema.Fields() {
		if f.Type.ID() != arrow.FLOAT64 {
			return "", nil, fmt.Errorf("column %s has type %s, expected float64", f.Name, f.Type)
		}
	}

	name := ""
	md := schema.Metadata()
	if idx := md.FindKey(MetadataName); idx >= 0 {
		name = md.Values()[idx]
	}

	cols := schema.NumFields()
	var data []float64
	rows := 0
	for reader.Next() {
		rec := reader.Record()
		n := int(rec.NumRows())
		chunk := make([]float64, n*cols)
		for j := 0; j < cols; j++ {
			col := rec.Column(j).(*array.Float64)
			for i := 0; i < n; i++ {
				if col.IsNull(i) {
					return "", nil, fmt.Errorf("null value at row %d, column %d", rows+i, j)
				}
				chunk[i*cols+j] = col.Value(i)
			}
		}
		data = append(data, chunk...)
		rows += n
	}
	if err := reader.Err(); err != nil {
		return "", nil, fmt.Errorf("failed to read IPC stream: %w", err)
	}

	m, err := matrix.New(rows, cols, data)
	if err != nil {
		return "", nil, err
	}
	return name, m, nil
}

// WriteFile writes m to path, replacing any existing file.
func WriteFile(path, name string, m *matrix.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteMatrix(f, name, m, nil); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a matrix written by WriteFile.
func ReadFile(path string) (string, *matrix.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadMatrix(f, nil)
}
