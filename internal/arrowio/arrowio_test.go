package arrowio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/23skdu/longbow-sdpa/internal/matrix"
)

func TestWriteReadMatrix(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	m, err := matrix.FromRows([][]float64{
		{0.1, 0.2, 0.7},
		{0.3, 0.3, 0.4},
	})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteMatrix(&buf, "weights", m, mem); err != nil {
		t.Fatalf("WriteMatrix failed: %v", err)
	}

	name, got, err := ReadMatrix(&buf, mem)
	if err != nil {
		t.Fatalf("ReadMatrix failed: %v", err)
	}
	if name != "weights" {
		t.Errorf("expected name weights, got %q", name)
	}
	if !got.Equal(m) {
		t.Errorf("matrix changed in transit:\n%v\nvs\n%v", got, m)
	}
}

func TestSchema(t *testing.T) {
	s := Schema("output", 3)
	if s.NumFields() != 3 {
		t.Fatalf("expected 3 fields, got %d", s.NumFields())
	}
	if s.Field(2).Name != "c2" || s.Field(2).Type.ID() != arrow.FLOAT64 {
		t.Errorf("unexpected field: %v", s.Field(2))
	}
	if idx := s.Metadata().FindKey(MetadataName); idx < 0 || s.Metadata().Values()[idx] != "output" {
		t.Errorf("expected name in metadata, got %v", s.Metadata())
	}
}

func TestWriteMatrixRejectsNon2D(t *testing.T) {
	v, _ := matrix.FromShape([]int{3}, []float64{1, 2, 3})
	err := WriteMatrix(&bytes.Buffer{}, "v", v, nil)
	if err == nil || !strings.Contains(err.Error(), "2D matrix") {
		t.Errorf("expected 2D matrix error, got %v", err)
	}
}

func TestReadMatrixRejectsNonFloatColumns(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := w.Write(rec); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, _, err := ReadMatrix(&buf, nil)
	if err == nil || !strings.Contains(err.Error(), "expected float64") {
		t.Errorf("expected type error, got %v", err)
	}
}

func TestReadMatrixRejectsGarbage(t *testing.T) {
	_, _, err := ReadMatrix(strings.NewReader("not an arrow stream"), nil)
	if err == nil {
		t.Error("expected error for invalid stream")
	}
}

func TestWriteReadFile(t *testing.T) {
	m, _ := matrix.New(1, 2, []float64{0.25, 0.75})
	path := filepath.Join(t.TempDir(), "weights.arrow")

	if err := WriteFile(path, "weights", m); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	name, got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if name != "weights" || !got.Equal(m) {
		t.Errorf("unexpected result %q %v", name, got)
	}
}
