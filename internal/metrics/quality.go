// Output comparison metrics used to check backend equivalence
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"pixelbench/internal/algorithms"
	"pixelbench/internal/core"
)

// ErrSizeMismatch is returned when compared images differ in dimensions.
var ErrSizeMismatch = errors.New("image dimensions differ")

// Metric compares a candidate image against a reference.
type Metric interface {
	Calculate(reference, candidate core.Image) (float64, error)
	GetName() string
	GetDescription() string
	// IsHigherBetter reports whether larger values mean closer images.
	IsHigherBetter() bool
}

// Evaluator holds named comparison metrics.
type Evaluator struct {
	metrics map[string]Metric
}

func NewEvaluator() *Evaluator {
	e := &Evaluator{metrics: make(map[string]Metric)}
	e.Register("mse", mse{})
	e.Register("psnr", psnr{})
	e.Register("max_abs_diff", maxAbsDiff{})
	e.Register("differing_bytes", differingBytes{})
	return e
}

func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names, sorted.
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Evaluator) Calculate(name string, reference, candidate core.Image) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(reference, candidate)
}

// CalculateAll evaluates every metric. Images of different sizes fail.
func (e *Evaluator) CalculateAll(reference, candidate core.Image) (map[string]float64, error) {
	results := make(map[string]float64, len(e.metrics))
	for name, metric := range e.metrics {
		v, err := metric.Calculate(reference, candidate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		results[name] = v
	}
	return results, nil
}

// Equivalence is the outcome of running one filter on both backends.
type Equivalence struct {
	FilterName string
	Resolution string
	Identical  bool
	Metrics    map[string]float64
}

// CompareBackends runs each filter on both backends and compares the
// outputs, reference first.
func (e *Evaluator) CompareBackends(reference, candidate algorithms.Backend, filters []string, img core.Image) ([]Equivalence, error) {
	out := make([]Equivalence, 0, len(filters))
	for _, name := range filters {
		want, err := algorithms.Apply(reference, name, img)
		if err != nil {
			return out, fmt.Errorf("%s on %s: %w", name, reference.Name(), err)
		}
		got, err := algorithms.Apply(candidate, name, img)
		if err != nil {
			return out, fmt.Errorf("%s on %s: %w", name, candidate.Name(), err)
		}
		values, err := e.CalculateAll(want, got)
		if err != nil {
			return out, err
		}
		out = append(out, Equivalence{
			FilterName: name,
			Resolution: img.Resolution(),
			Identical:  want.Equal(got),
			Metrics:    values,
		})
	}
	return out, nil
}

func checkSize(a, b core.Image) error {
	if a.Width != b.Width || a.Height != b.Height || len(a.Pix) != len(b.Pix) {
		return fmt.Errorf("%w: %s vs %s", ErrSizeMismatch, a.Resolution(), b.Resolution())
	}
	return nil
}

type mse struct{}

func (mse) Calculate(a, b core.Image) (float64, error) {
	if err := checkSize(a, b); err != nil {
		return 0, err
	}
	if len(a.Pix) == 0 {
		return 0, nil
	}
	var sum float64
	for i := range a.Pix {
		d := float64(a.Pix[i]) - float64(b.Pix[i])
		sum += d * d
	}
	return sum / float64(len(a.Pix)), nil
}

func (mse) GetName() string        { return "Mean Squared Error" }
func (mse) GetDescription() string { return "Average squared byte difference over all channels" }
func (mse) IsHigherBetter() bool   { return false }

type psnr struct{}

// Calculate returns +Inf for identical images.
func (psnr) Calculate(a, b core.Image) (float64, error) {
	m, err := mse{}.Calculate(a, b)
	if err != nil {
		return 0, err
	}
	if m == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(255*255/m), nil
}

func (psnr) GetName() string        { return "Peak Signal-to-Noise Ratio" }
func (psnr) GetDescription() string { return "Ratio between maximum signal power and noise power, in dB" }
func (psnr) IsHigherBetter() bool   { return true }

type maxAbsDiff struct{}

func (maxAbsDiff) Calculate(a, b core.Image) (float64, error) {
	if err := checkSize(a, b); err != nil {
		return 0, err
	}
	var worst int
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		worst = max(worst, d)
	}
	return float64(worst), nil
}

func (maxAbsDiff) GetName() string        { return "Maximum Absolute Difference" }
func (maxAbsDiff) GetDescription() string { return "Largest difference of any single byte" }
func (maxAbsDiff) IsHigherBetter() bool   { return false }

type differingBytes struct{}

func (differingBytes) Calculate(a, b core.Image) (float64, error) {
	if err := checkSize(a, b); err != nil {
		return 0, err
	}
	n := 0
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			n++
		}
	}
	return float64(n), nil
}

func (differingBytes) GetName() string        { return "Differing Bytes" }
func (differingBytes) GetDescription() string { return "Number of bytes that are not equal" }
func (differingBytes) IsHigherBetter() bool   { return false }
