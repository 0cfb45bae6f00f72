package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"pixelbench/internal/algorithms"
	"pixelbench/internal/memory"
	"pixelbench/internal/metrics"
)

// flag names
const (
	iterationsFlagName  = "iterations"
	warmupSizeFlagName  = "warmup-size"
	filtersFlagName     = "filters"
	formatFlagName      = "format"
	phasesFlagName      = "phases"
	cpuProfileFlagName  = "cpuprofile"
	memProfileFlagName  = "memprofile"
	metricsAddrFlagName = "metrics-addr"
)

// benchCmd times every filter on the managed and the raw backend.
type benchCmd struct {
	commonCmd
	iterations  int
	warmupSize  int
	format      string
	phases      bool
	cpuProfile  string
	memProfile  string
	metricsAddr string
}

// BenchCommand returns a [*cli.Command] for the benchmark harness.
func BenchCommand() *cli.Command {
	cmd := &benchCmd{}
	return &cli.Command{
		Name:        "bench",
		Usage:       "pixelbench bench --input photo.png --iterations 20",
		Description: "bench runs each filter on both backends and reports mean times and speedups.",
		Flags:       cmd.flags(),
		Action:      cmd.action,
	}
}

func (cmd *benchCmd) flags() []cli.Flag {
	fl := []cli.Flag{
		&cli.IntFlag{
			Name:        iterationsFlagName,
			Aliases:     []string{"n"},
			Value:       metrics.DefaultIterations,
			Usage:       "timed iterations per backend and filter",
			Destination: &cmd.iterations,
		},
		&cli.IntFlag{
			Name:        warmupSizeFlagName,
			Value:       metrics.DefaultWarmupSize,
			Usage:       "edge of the square warm-up input",
			Destination: &cmd.warmupSize,
		},
		&cli.StringSliceFlag{
			Name:  filtersFlagName,
			Value: cli.NewStringSlice(algorithms.Names()...),
			Usage: "filters to benchmark, in order",
		},
		&cli.StringFlag{
			Name:        formatFlagName,
			Value:       "table",
			Usage:       "output format, table or json",
			Destination: &cmd.format,
		},
		&cli.BoolFlag{
			Name:        phasesFlagName,
			Usage:       "also print per-phase means of the raw backend",
			Destination: &cmd.phases,
		},
		&cli.StringFlag{
			Name:        cpuProfileFlagName,
			Usage:       "write a CPU profile into this directory, not combinable with --" + memProfileFlagName,
			Destination: &cmd.cpuProfile,
		},
		&cli.StringFlag{
			Name:        memProfileFlagName,
			Usage:       "write a heap profile into this directory, not combinable with --" + cpuProfileFlagName,
			Destination: &cmd.memProfile,
		},
		&cli.StringFlag{
			Name:        metricsAddrFlagName,
			Usage:       "serve prometheus metrics on this address while running, e.g. :9090",
			EnvVars:     []string{"PIXELBENCH_METRICS_ADDR"},
			Destination: &cmd.metricsAddr,
		},
	}
	return append(fl, inputFlags()...)
}

func (cmd *benchCmd) action(ctx *cli.Context) error {
	if err := cmd.init(ctx); err != nil {
		return err
	}
	if cmd.format != "table" && cmd.format != "json" {
		return fmt.Errorf("unknown format %q, want table or json", cmd.format)
	}
	// pkg/profile runs one profile per process
	if cmd.cpuProfile != "" && cmd.memProfile != "" {
		return fmt.Errorf("--%s and --%s cannot be used together", cpuProfileFlagName, memProfileFlagName)
	}

	img, name, err := cmd.loadInput(ctx)
	if err != nil {
		return err
	}

	switch {
	case cmd.cpuProfile != "":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cmd.cpuProfile), profile.Quiet).Stop()
	case cmd.memProfile != "":
		defer profile.Start(profile.MemProfileHeap, profile.ProfilePath(cmd.memProfile), profile.Quiet).Stop()
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	if cmd.metricsAddr != "" {
		stop := cmd.serveMetrics(reg)
		defer stop()
	}

	heap, err := memory.NewHeap(cmd.heap, cmd.logger)
	if err != nil {
		return err
	}
	raw := algorithms.NewRawBackend(heap, cmd.logger)

	config := metrics.Config{
		Iterations: cmd.iterations,
		WarmupSize: cmd.warmupSize,
		Filters:    ctx.StringSlice(filtersFlagName),
	}
	h, err := metrics.NewHarness(algorithms.NewManagedBackend(), raw, config,
		metrics.WithLogger(cmd.logger.WithField("input", name)),
		metrics.WithCollector(collector),
	)
	if err != nil {
		return err
	}

	records, err := h.Run(img)
	if err != nil {
		return err
	}
	cmd.logger.WithField("heap", heap.Stats().String()).Debug("Raw heap after benchmark")

	if cmd.format == "json" {
		return metrics.WriteJSON(cmd.out, records)
	}
	fmt.Fprintf(cmd.out, "%s: %s\n", name, img.Metadata())
	metrics.WriteTable(cmd.out, records, cmd.phases)
	return nil
}

func (cmd *benchCmd) serveMetrics(reg *prometheus.Registry) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cmd.metricsAddr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cmd.logger.WithError(err).Error("Metrics server failed")
		}
	}()
	cmd.logger.WithField("addr", cmd.metricsAddr).Info("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
