// Package attention computes a numerically stable row-wise softmax and
// scaled dot-product attention over dense float64 matrices.
//
// The package-level functions are pure and sequential. An Engine adds
// optional row parallelism, Prometheus metrics and structured logging
// while producing bit-identical results.
package attention

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/longbow-sdpa/internal/config"
	"github.com/23skdu/longbow-sdpa/internal/kernel"
	"github.com/23skdu/longbow-sdpa/internal/logger"
	"github.com/23skdu/longbow-sdpa/internal/matrix"
	"github.com/23skdu/longbow-sdpa/internal/metrics"
)

const (
	opSoftmax   = "softmax"
	opAttention = "attention"
)

type Option func(*Engine)

// WithLogger replaces the engine's logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

type Engine struct {
	cfg config.Config
	log *logger.Logger
}

// pure is the uninstrumented sequential engine behind the package-level
// functions.
var pure = &Engine{cfg: config.Default()}

// NewEngine validates cfg and returns an instrumented engine.
func NewEngine(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	e := &Engine{cfg: cfg, log: logger.Log.With("component", "attention")}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// normalize applies the row softmax to every row of d in place. Rows are
// independent, so splitting them across workers changes nothing but
// wall time.
func (e *Engine) normalize(d *mat.Dense) {
	rows, _ := d.Dims()
	workers := e.cfg.Workers
	if !e.cfg.Parallel() || rows < e.cfg.ParallelRowThreshold {
		softmaxRows(d, 0, rows)
		return
	}

	chunk := (rows + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < rows; start += chunk {
		start := start
		end := min(start+chunk, rows)
		g.Go(func() error {
			softmaxRows(d, start, end)
			return nil
		})
	}
	_ = g.Wait()

	if e.cfg.EnableMetrics {
		metrics.RecordParallelRows(rows)
	}
}

func softmaxRows(d *mat.Dense, start, end int) {
	for i := start; i < end; i++ {
		kernel.Softmax(d.RawRowView(i))
	}
}

func (e *Engine) reject(op string, err error) {
	if e.cfg.EnableMetrics {
		metrics.RecordValidationError(op, errorType(err))
	}
	if e.log != nil {
		e.log.Warn("input rejected", "operation", op, "error_type", errorType(err), "err", err)
	}
}

func (e *Engine) observe(op string, start time.Time, weights *matrix.Matrix, inputs map[string]*matrix.Matrix) {
	if !e.cfg.EnableMetrics && e.log == nil {
		return
	}
	elapsed := time.Since(start)
	nan, inf := kernel.CheckNumericalStability(weights.Data())

	if e.cfg.EnableMetrics {
		metrics.RecordOperation(op, elapsed)
		for name, m := range inputs {
			metrics.RecordMatrixSize(name, m.Rows(), m.Cols())
		}
		metrics.RecordNumericalInstability(op+"_weights", nan, inf)
	}
	if e.log == nil {
		return
	}
	if nan > 0 || inf > 0 {
		e.log.Warn("non-finite values in weights", "operation", op, "nan", nan, "inf", inf)
	}
	rows, cols := weights.Dims()
	e.log.Debug("operation complete", "operation", op, "rows", rows, "cols", cols, "duration", elapsed)
}
