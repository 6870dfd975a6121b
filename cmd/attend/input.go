package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/23skdu/longbow-sdpa/internal/matrix"
)

// inputFile is the JSON layout accepted by -input. Each entry is a nested
// array of numbers; any nesting depth is accepted so that rank errors are
// reported by the attention package rather than by the decoder.
type inputFile struct {
	Q json.RawMessage `json:"q"`
	K json.RawMessage `json:"k"`
	V json.RawMessage `json:"v"`
}

func fixture() (q, k, v *matrix.Matrix) {
	q, _ = matrix.FromRows([][]float64{
		{0.2, 0.8, 0.1},
		{0.9, 0.1, 0.5},
		{0.3, 0.6, 0.7},
		{0.5, 0.5, 0.0},
	})
	k, _ = matrix.FromRows([][]float64{
		{0.6, 0.3, 0.4},
		{0.1, 0.9, 0.2},
		{0.7, 0.2, 0.8},
	})
	v, _ = matrix.FromRows([][]float64{
		{1.0, 0.5, 0.0},
		{0.0, 1.0, 0.5},
		{0.5, 0.0, 1.0},
	})
	return q, k, v
}

// loadInput returns the built-in fixture when path is empty.
func loadInput(path string) (q, k, v *matrix.Matrix, err error) {
	if path == "" {
		q, k, v = fixture()
		return q, k, v, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read input: %w", err)
	}
	return parseInput(raw)
}

func parseInput(raw []byte) (q, k, v *matrix.Matrix, err error) {
	var in inputFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode input: %w", err)
	}

	out := make([]*matrix.Matrix, 3)
	for i, field := range []struct {
		name string
		raw  json.RawMessage
	}{{"q", in.Q}, {"k", in.K}, {"v", in.V}} {
		if len(field.raw) == 0 {
			return nil, nil, nil, fmt.Errorf("input is missing %q", field.name)
		}
		m, err := decodeArray(field.raw)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("input %q: %w", field.name, err)
		}
		out[i] = m
	}
	return out[0], out[1], out[2], nil
}

// decodeArray turns a nested JSON array into an array of matching rank.
func decodeArray(raw json.RawMessage) (*matrix.Matrix, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	var shape []int
	for cur := v; ; {
		arr, ok := cur.([]interface{})
		if !ok {
			break
		}
		shape = append(shape, len(arr))
		if len(arr) == 0 {
			break
		}
		cur = arr[0]
	}

	var data []float64
	if err := flatten(v, shape, &data); err != nil {
		return nil, err
	}
	return matrix.FromShape(shape, data)
}

func flatten(v interface{}, shape []int, data *[]float64) error {
	if len(shape) == 0 {
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expected number, got %T", v)
		}
		*data = append(*data, f)
		return nil
	}
	arr, ok := v.([]interface{})
	if !ok || len(arr) != shape[0] {
		return fmt.Errorf("ragged array: expected %d elements at this level", shape[0])
	}
	for _, e := range arr {
		if err := flatten(e, shape[1:], data); err != nil {
			return err
		}
	}
	return nil
}
