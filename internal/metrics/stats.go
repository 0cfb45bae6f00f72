package metrics

import (
	"time"

	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean[T number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

// MinMax returns the smallest and largest value. Both are the zero value for
// an empty slice.
func MinMax[T constraints.Ordered](values []T) (lo, hi T) {
	if len(values) == 0 {
		return lo, hi
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Millis converts a duration to fractional milliseconds.
func Millis[T number](d T) float64 {
	return float64(d) / float64(time.Millisecond)
}
