// Package numeric holds the closed-form array arithmetic behind every figure:
// time grids, decay kernels, neuron voltage traces, smoothing, histograms and
// summary statistics. Functions never mutate their inputs.
package numeric

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrShapeMismatch is returned when two arrays must share a length and do not.
	ErrShapeMismatch = errors.New("array shape mismatch")

	// ErrEmpty is returned when a statistic is requested over no samples.
	ErrEmpty = errors.New("empty input")
)

// Arange returns the half-open range [start, stop) in increments of step,
// with element i computed as start + i*step to avoid accumulated drift.
// A non-positive step or an empty interval yields an empty slice.
func Arange(start, stop, step float64) []float64 {
	if step <= 0 || stop <= start {
		return []float64{}
	}
	n := int(math.Ceil((stop - start) / step))
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// Zeros returns n zeros.
func Zeros(n int) []float64 {
	if n < 0 {
		n = 0
	}
	return make([]float64, n)
}

// Full returns n copies of v.
func Full(n int, v float64) []float64 {
	out := Zeros(n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Scale returns xs multiplied element-wise by k.
func Scale(xs []float64, k float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	floats.Scale(k, out)
	return out
}

// Multiply returns the element-wise product of a and b.
func Multiply(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("multiply %d by %d elements: %w", len(a), len(b), ErrShapeMismatch)
	}
	out := make([]float64, len(a))
	floats.MulTo(out, a, b)
	return out, nil
}

// Fill sets xs[from:to] to v in a copy of xs. Bounds are clamped to the slice.
func Fill(xs []float64, from, to int, v float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	from = clampIndex(from, len(out))
	to = clampIndex(to, len(out))
	for i := from; i < to; i++ {
		out[i] = v
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
