// Benchmark harness comparing a baseline and an optimized backend
package metrics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"pixelbench/internal/algorithms"
	"pixelbench/internal/core"
	"pixelbench/internal/logging"
	"pixelbench/internal/memory"
)

const (
	DefaultIterations = 10
	DefaultWarmupSize = 3
)

// Config controls a benchmark run.
type Config struct {
	Iterations int
	// WarmupSize is the edge of the square thumbnail used for the untimed
	// warm-up call. 3 is the smallest input with an interior pixel.
	WarmupSize int
	Filters    []string
}

// DefaultConfig benchmarks every filter in table order.
func DefaultConfig() Config {
	return Config{
		Iterations: DefaultIterations,
		WarmupSize: DefaultWarmupSize,
		Filters:    algorithms.Names(),
	}
}

func (c Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be positive: %d", c.Iterations)
	}
	if c.WarmupSize < 1 {
		return fmt.Errorf("warm-up size must be positive: %d", c.WarmupSize)
	}
	if len(c.Filters) == 0 {
		return fmt.Errorf("no filters selected")
	}
	for _, name := range c.Filters {
		if !algorithms.IsValidFilter(name) {
			return fmt.Errorf("%w: %s", algorithms.ErrUnknownFilter, name)
		}
	}
	return nil
}

// Harness times two backends against each other, one filter at a time. It
// is single threaded; a Harness must not run two benchmarks at once.
type Harness struct {
	baseline  algorithms.Backend
	optimized algorithms.Backend
	config    Config
	logger    logrus.FieldLogger
	collector *Collector
	progress  func(done, total int)
}

// Option configures a Harness.
type Option func(*Harness)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(h *Harness) {
		h.logger = logging.OrDiscard(logger)
	}
}

// WithCollector exports every timed call to c.
func WithCollector(c *Collector) Option {
	return func(h *Harness) {
		h.collector = c
	}
}

// WithProgress is called after each filter completes.
func WithProgress(fn func(done, total int)) Option {
	return func(h *Harness) {
		h.progress = fn
	}
}

// NewHarness creates a harness. Speedups are baseline time over optimized
// time.
func NewHarness(baseline, optimized algorithms.Backend, config Config, opts ...Option) (*Harness, error) {
	if baseline == nil || optimized == nil {
		return nil, fmt.Errorf("both backends are required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	h := &Harness{
		baseline:  baseline,
		optimized: optimized,
		config:    config,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Config returns the configuration the harness runs with.
func (h *Harness) Config() Config {
	return h.config
}

// Run benchmarks each configured filter on img and returns one record per
// filter in order. On failure the records completed so far are returned with
// the error.
func (h *Harness) Run(img core.Image) ([]Record, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	warmup, err := img.Thumbnail(h.config.WarmupSize, h.config.WarmupSize)
	if err != nil {
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{
		"resolution": img.Resolution(),
		"iterations": h.config.Iterations,
		"baseline":   h.baseline.Name(),
		"optimized":  h.optimized.Name(),
	}).Info("Starting benchmark")

	if err := h.warmUp(warmup); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(h.config.Filters))
	for i, name := range h.config.Filters {
		record, err := h.runFilter(name, img)
		if err != nil {
			return records, fmt.Errorf("benchmark %s: %w", name, err)
		}
		records = append(records, record)

		if h.collector != nil {
			h.collector.ObserveRecord(record)
		}
		h.logger.WithFields(logrus.Fields{
			"filter":       record.FilterName,
			"baseline_ms":  record.BaselineMeanMs,
			"optimized_ms": record.OptimizedMeanMs,
			"speedup":      record.Speedup,
			"identical":    record.Identical,
		}).Info("Filter benchmarked")

		if h.progress != nil {
			h.progress(i+1, len(h.config.Filters))
		}
	}
	return records, nil
}

// warmUp makes one untimed call per backend with the first configured filter.
// It triggers lazy setup such as the raw heap reservation.
func (h *Harness) warmUp(warmup core.Image) error {
	if len(h.config.Filters) == 0 {
		return nil
	}
	name := h.config.Filters[0]
	for _, b := range []algorithms.Backend{h.baseline, h.optimized} {
		if _, err := algorithms.Apply(b, name, warmup); err != nil {
			return fmt.Errorf("warm-up %s on %s: %w", name, b.Name(), err)
		}
	}
	return nil
}

func (h *Harness) runFilter(name string, img core.Image) (Record, error) {
	phases := newPhaseAccumulator()
	if o, ok := h.optimized.(algorithms.Observable); ok {
		o.SetPhaseObserver(phases)
		defer o.SetPhaseObserver(nil)
	}

	baseOut := img.Clone()
	optOut := img.Clone()
	baseTimes, err := h.time(h.baseline, name, img, baseOut)
	if err != nil {
		return Record{}, err
	}
	optTimes, err := h.time(h.optimized, name, img, optOut)
	if err != nil {
		return Record{}, err
	}

	record := newRecord(name, img, h.config.Iterations, baseTimes, optTimes)
	record.Phases = phases.means(h.config.Iterations)
	record.Identical = bytes.Equal(baseOut.Pix, optOut.Pix)
	if !record.Identical {
		h.logger.WithField("filter", name).Warn("Backends produced different output")
	}
	return record, nil
}

func (h *Harness) time(b algorithms.Backend, name string, src, dst core.Image) ([]time.Duration, error) {
	times := make([]time.Duration, h.config.Iterations)
	for i := range times {
		start := time.Now()
		err := algorithms.Run(b, name, src.Pix, dst.Pix, src.Width, src.Height)
		times[i] = time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("%s iteration %d: %w", b.Name(), i, err)
		}
		if h.collector != nil {
			h.collector.ObserveCall(name, b.Name(), times[i])
		}
	}
	return times, nil
}

// phaseAccumulator sums phase durations over the timed loop.
type phaseAccumulator struct {
	totals map[algorithms.Phase]time.Duration
}

func newPhaseAccumulator() *phaseAccumulator {
	return &phaseAccumulator{totals: make(map[algorithms.Phase]time.Duration)}
}

func (p *phaseAccumulator) ObservePhase(_ string, phase algorithms.Phase, d time.Duration) {
	p.totals[phase] += d
}

// means returns per-call milliseconds keyed by phase name, or nil when the
// backend reported nothing.
func (p *phaseAccumulator) means(calls int) map[string]float64 {
	if len(p.totals) == 0 {
		return nil
	}
	out := make(map[string]float64, len(p.totals))
	for phase, total := range p.totals {
		out[phase.String()] = Millis(total) / float64(calls)
	}
	return out
}

// RunBenchmark benchmarks every filter on a caller-owned RGBA buffer with the
// managed backend as baseline and a fresh raw backend as the optimized one.
// A non-positive iteration count selects the default.
func RunBenchmark(pix []byte, width, height, iterations int) ([]Record, error) {
	img, err := core.Wrap(pix, width, height)
	if err != nil {
		return nil, err
	}
	heap, err := memory.NewHeap(memory.DefaultConfig(), nil)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if iterations > 0 {
		config.Iterations = iterations
	}
	h, err := NewHarness(algorithms.NewManagedBackend(), algorithms.NewRawBackend(heap, nil), config)
	if err != nil {
		return nil, err
	}
	return h.Run(img)
}
