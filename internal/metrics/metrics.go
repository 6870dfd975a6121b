package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var totalOperations atomic.Int64

var (
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attention_operations_total",
		Help: "Total number of completed operations",
	}, []string{"operation"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attention_operation_duration_seconds",
		Help:    "Histogram of operation execution times",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
	}, []string{"operation"})

	ValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_errors_total",
		Help: "Total number of validation errors",
	}, []string{"operation", "error_type"})

	NumericalInstability = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numerical_instability_total",
		Help: "Total number of NaN/Inf values detected",
	}, []string{"tensor", "type"})

	MatrixElements = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attention_matrix_elements",
		Help:    "Distribution of matrix sizes processed, in elements",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	}, []string{"matrix"})

	ParallelRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attention_parallel_rows_total",
		Help: "Total number of softmax rows normalized on the parallel path",
	})
)

func RecordOperation(operation string, duration time.Duration) {
	totalOperations.Add(1)
	OperationsTotal.WithLabelValues(operation).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordValidationError(operation, errorType string) {
	ValidationErrors.WithLabelValues(operation, errorType).Inc()
}

func RecordNumericalInstability(name string, nanCount, infCount int) {
	if nanCount > 0 {
		NumericalInstability.WithLabelValues(name, "nan").Add(float64(nanCount))
	}
	if infCount > 0 {
		NumericalInstability.WithLabelValues(name, "inf").Add(float64(infCount))
	}
}

func RecordMatrixSize(name string, rows, cols int) {
	MatrixElements.WithLabelValues(name).Observe(float64(rows * cols))
}

func RecordParallelRows(rows int) {
	ParallelRows.Add(float64(rows))
}

// TotalOperations returns the number of operations recorded since start.
func TotalOperations() int64 {
	return totalOperations.Load()
}
