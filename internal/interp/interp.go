// Package interp resamples scalar time series onto arbitrary reference
// timestamps using piecewise-linear interpolation.
package interp

import (
	"errors"
	"sort"
)

var (
	// ErrEmptySeries is returned when the source series has no samples.
	ErrEmptySeries = errors.New("interp: empty source series")

	// ErrLengthMismatch is returned when the source timestamp and value
	// slices differ in length.
	ErrLengthMismatch = errors.New("interp: times and values length mismatch")
)

// Linear interpolates the series (times, values) at each query timestamp
// and returns one value per query, in query order.
//
// times must be non-decreasing; this is not validated. Queries outside
// the covered range are clamped to the boundary value. A zero-length
// segment (duplicate timestamps) resolves to its left sample.
func Linear(times, values, queries []float64) ([]float64, error) {
	if len(times) == 0 {
		return nil, ErrEmptySeries
	}
	if len(times) != len(values) {
		return nil, ErrLengthMismatch
	}

	out := make([]float64, len(queries))
	for i, t := range queries {
		out[i] = at(times, values, t)
	}
	return out, nil
}

// at evaluates the series at a single timestamp. The slices are
// read-only here and never escape.
func at(times, values []float64, t float64) float64 {
	last := len(times) - 1
	if t <= times[0] {
		return values[0]
	}
	if t >= times[last] {
		return values[last]
	}

	// First sample at or after t; the clamp checks above guarantee
	// 0 < i <= last.
	i := sort.SearchFloat64s(times, t)
	t0, t1 := times[i-1], times[i]
	if t == t1 {
		return values[i]
	}
	if t0 == t1 {
		return values[i-1]
	}

	v0, v1 := values[i-1], values[i]
	return v0 + (v1-v0)*(t-t0)/(t1-t0)
}
