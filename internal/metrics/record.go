package metrics

import (
	"time"

	"pixelbench/internal/core"
)

// Record is the result of benchmarking one filter. Times are milliseconds.
type Record struct {
	FilterName      string  `json:"filterName"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Resolution      string  `json:"resolution"`
	Iterations      int     `json:"iterations"`
	BaselineMeanMs  float64 `json:"baselineMeanMs"`
	OptimizedMeanMs float64 `json:"optimizedMeanMs"`
	// Speedup is BaselineMeanMs / OptimizedMeanMs, or 0 when the optimized
	// mean is below the clock resolution.
	Speedup float64 `json:"speedup"`

	BaselineMinMs  float64 `json:"baselineMinMs"`
	BaselineMaxMs  float64 `json:"baselineMaxMs"`
	OptimizedMinMs float64 `json:"optimizedMinMs"`
	OptimizedMaxMs float64 `json:"optimizedMaxMs"`

	// Phases holds the optimized backend's mean time per call for each
	// bridging phase. Empty when that backend reports no phases.
	Phases map[string]float64 `json:"phases,omitempty"`

	Identical bool `json:"identical"`
}

func newRecord(name string, img core.Image, iterations int, baseline, optimized []time.Duration) Record {
	r := Record{
		FilterName:      name,
		Width:           img.Width,
		Height:          img.Height,
		Resolution:      img.Resolution(),
		Iterations:      iterations,
		BaselineMeanMs:  Millis(Mean(baseline)),
		OptimizedMeanMs: Millis(Mean(optimized)),
	}
	r.Speedup = Speedup(r.BaselineMeanMs, r.OptimizedMeanMs)

	lo, hi := MinMax(baseline)
	r.BaselineMinMs, r.BaselineMaxMs = Millis(lo), Millis(hi)
	lo, hi = MinMax(optimized)
	r.OptimizedMinMs, r.OptimizedMaxMs = Millis(lo), Millis(hi)
	return r
}

// Speedup returns baseline / optimized, or 0 if optimized is not positive.
func Speedup(baseline, optimized float64) float64 {
	if optimized <= 0 {
		return 0
	}
	return baseline / optimized
}
