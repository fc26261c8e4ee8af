package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/Swind/go-substrate/config"
	"github.com/Swind/go-substrate/core"
	obs "github.com/Swind/go-substrate/observability/prometheus"
	"github.com/Swind/go-substrate/observability/zaplog"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	cfgFile     string
	logLevel    string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "substrate",
	Short: "Exercise the substrate runtime pieces",
	Long: `substrate drives the runtime building blocks from the command line.

Commands:
  workers   - run increments through the shared-queue WorkerPool
  parallel  - fill ParallelPool job lists, signal and collect results
  ring      - measure single-producer/single-consumer RingQueue throughput
  types     - register types in index domains and print their indices`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd.Name(), err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")
}

// env is what every subcommand needs: configuration, a logger and, when
// enabled, the metrics plumbing.
type env struct {
	cfg      *config.Config
	logger   *zaplog.Logger
	exporter *obs.MetricsExporter
	poller   *obs.SnapshotPoller
	cleanup  []func()
}

func setup(ctx context.Context) (*env, error) {
	// Respect container CPU quotas before config defaults read GOMAXPROCS.
	// The logger does not exist yet, so its messages are replayed below.
	var procMsgs []string
	undo, procErr := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		procMsgs = append(procMsgs, fmt.Sprintf(format, args...))
	}))

	cfg, err := config.Load(cfgFile)
	if err != nil {
		undo()
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	logger, err := zaplog.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		undo()
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger}
	e.cleanup = append(e.cleanup, undo, func() { _ = logger.Sync() })

	for _, msg := range procMsgs {
		logger.Debug(msg)
	}
	if procErr != nil {
		logger.Warn("automaxprocs failed", core.F("error", procErr))
	}

	if cfg.Metrics.Addr != "" {
		if err := e.startMetrics(ctx); err != nil {
			e.close()
			return nil, err
		}
	}
	return e, nil
}

func (e *env) startMetrics(ctx context.Context) error {
	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter(obs.DefaultNamespace, reg, obs.ExporterOptions{})
	if err != nil {
		return err
	}
	poller, err := obs.NewSnapshotPoller(obs.DefaultNamespace, reg, e.cfg.Metrics.PollInterval.Duration)
	if err != nil {
		return err
	}
	e.exporter = exporter
	e.poller = poller

	ln, err := net.Listen("tcp", e.cfg.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server failed", core.F("error", err))
		}
	}()
	poller.Start(ctx)
	e.logger.Info("serving metrics", core.F("addr", ln.Addr().String()))

	e.cleanup = append(e.cleanup, func() {
		poller.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	})
	return nil
}

// metrics returns the exporter, or nil so pools fall back to NilMetrics.
func (e *env) metrics() core.Metrics {
	if e.exporter == nil {
		return nil
	}
	return e.exporter
}

func (e *env) close() {
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}
