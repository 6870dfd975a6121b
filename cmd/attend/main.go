package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/longbow-sdpa/internal/arrowio"
	"github.com/23skdu/longbow-sdpa/internal/attention"
	"github.com/23skdu/longbow-sdpa/internal/check"
	"github.com/23skdu/longbow-sdpa/internal/config"
	"github.com/23skdu/longbow-sdpa/internal/logger"
	"github.com/23skdu/longbow-sdpa/internal/matrix"
)

var banner = strings.Repeat("=", 50)

type options struct {
	cfg    config.Config
	input  string
	verify bool
}

func parseFlags(args []string) (options, error) {
	opts := options{cfg: config.Default()}
	fs := flag.NewFlagSet("attend", flag.ContinueOnError)

	fs.StringVar(&opts.input, "input", "", "JSON file with q, k, v arrays (default: built-in fixture)")
	fs.BoolVar(&opts.verify, "verify", false, "Check the result against the reference implementation")
	fs.IntVar(&opts.cfg.Workers, "workers", opts.cfg.Workers, "Goroutines used for softmax rows")
	fs.IntVar(&opts.cfg.ParallelRowThreshold, "parallel-rows", opts.cfg.ParallelRowThreshold, "Minimum rows before work is split")
	fs.Float64Var(&opts.cfg.Tolerance, "tolerance", opts.cfg.Tolerance, "Absolute tolerance for -verify")
	fs.StringVar(&opts.cfg.MetricsAddr, "metrics", "", "Address to serve Prometheus metrics; keeps running until interrupted")
	fs.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&opts.cfg.LogFormat, "log-format", opts.cfg.LogFormat, "console or json")
	fs.StringVar(&opts.cfg.ArrowDir, "arrow-dir", "", "Directory to write weights.arrow and output.arrow")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.cfg.EnableMetrics = opts.cfg.MetricsAddr != ""
	if err := opts.cfg.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logger.Setup(opts.cfg.LogLevel, opts.cfg.LogFormat)

	var srv *http.Server
	if opts.cfg.MetricsAddr != "" {
		srv = startMetricsServer(opts.cfg.MetricsAddr)
	}

	report, err := run(opts, os.Stdout)
	if err != nil {
		logger.Log.Error("attention failed", "err", err)
		os.Exit(1)
	}

	if srv != nil {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info("Interrupt received, shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Log.Warn("metrics server shutdown", "err", err)
		}
	}

	if opts.verify && !report.OK() {
		os.Exit(1)
	}
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Log.Info("Metrics serving", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Metrics server error", "err", err)
		}
	}()
	return srv
}

// run computes attention for the configured input and prints inputs,
// outputs and, with -verify, the check report to w.
func run(opts options, w io.Writer) (check.Report, error) {
	q, k, v, err := loadInput(opts.input)
	if err != nil {
		return check.Report{}, err
	}

	engine, err := attention.NewEngine(opts.cfg)
	if err != nil {
		return check.Report{}, err
	}

	section(w, "INPUTS")
	printMatrix(w, "Q", q)
	printMatrix(w, "K", k)
	printMatrix(w, "V", v)

	output, weights, err := engine.Attend(q, k, v)
	if err != nil {
		return check.Report{}, err
	}

	fmt.Fprintln(w)
	section(w, "OUTPUTS")
	printMatrix(w, "Attention Weights", weights)
	printMatrix(w, "Output", output)

	if opts.cfg.ArrowDir != "" {
		if err := exportArrow(opts.cfg.ArrowDir, output, weights); err != nil {
			return check.Report{}, err
		}
	}

	if !opts.verify {
		return check.Report{}, nil
	}

	report := check.Verify(q, k, v, output, weights, opts.cfg.Tolerance)
	fmt.Fprintln(w)
	section(w, "CHECKS")
	for _, r := range report.Results {
		fmt.Fprintf(w, "  %s\n", r)
	}
	fmt.Fprintf(w, "\n%s\n", report.Summary())
	return report, nil
}

func exportArrow(dir string, output, weights *matrix.Matrix) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for name, m := range map[string]*matrix.Matrix{"weights": weights, "output": output} {
		path := filepath.Join(dir, name+".arrow")
		if err := arrowio.WriteFile(path, name, m); err != nil {
			return err
		}
		logger.Log.Info("Wrote Arrow file", "path", path)
	}
	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, banner)
}

func printMatrix(w io.Writer, name string, m *matrix.Matrix) {
	fmt.Fprintf(w, "\n%s (shape=%v):\n%v\n", name, m.Shape(), m)
}
