package config

import (
	"fmt"
	"strings"
)

type Config struct {
	// Workers is the number of goroutines the engine may use for softmax
	// rows. 1 means sequential.
	Workers int
	// ParallelRowThreshold is the minimum number of score rows before
	// work is split across workers.
	ParallelRowThreshold int
	// Tolerance is the absolute tolerance used when verifying results.
	Tolerance float64

	EnableMetrics bool
	MetricsAddr   string

	LogLevel  string
	LogFormat string

	ArrowDir string
}

func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("invalid workers: %d (must be positive)", c.Workers)
	}
	if c.ParallelRowThreshold <= 0 {
		return fmt.Errorf("invalid parallel_row_threshold: %d (must be positive)", c.ParallelRowThreshold)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("invalid tolerance: %g (must be positive)", c.Tolerance)
	}
	switch c.GetLogFormat() {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %q (must be console or json)", c.LogFormat)
	}
	if c.MetricsAddr != "" && !c.EnableMetrics {
		return fmt.Errorf("metrics_addr %q set but metrics are disabled", c.MetricsAddr)
	}
	return nil
}

func (c *Config) GetLogFormat() string {
	return strings.ToLower(c.LogFormat)
}

// Parallel reports whether the engine should split rows across workers.
func (c *Config) Parallel() bool {
	return c.Workers > 1
}

func Default() Config {
	return Config{
		Workers:              1,
		ParallelRowThreshold: 64,
		Tolerance:            1e-6,
		LogLevel:             "info",
		LogFormat:            "console",
	}
}
