package numeric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Bin is one histogram bucket over [Min, Max).
type Bin struct {
	Min, Max float64
	Weight   float64
}

// Histogram bins xs into equal-width buckets spanning [lo, hi]. The last
// bucket is closed on the right. Values outside the range are dropped. With
// density set, weights are divided by count*width so the bars integrate to 1.
func Histogram(xs []float64, bins int, lo, hi float64, density bool) ([]Bin, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("histogram needs a positive bin count, got %d", bins)
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("histogram range [%g, %g] is empty", lo, hi)
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Min = lo + float64(i)*width
		out[i].Max = lo + float64(i+1)*width
	}

	var counted float64
	for _, x := range xs {
		idx, ok := binIndex(x, lo, hi, width, bins)
		if !ok {
			continue
		}
		out[idx].Weight++
		counted++
	}

	if density && counted > 0 {
		for i := range out {
			out[i].Weight /= counted * width
		}
	}
	return out, nil
}

func binIndex(x, lo, hi, width float64, bins int) (int, bool) {
	if math.IsNaN(x) || x < lo || x > hi {
		return 0, false
	}
	if x == hi {
		return bins - 1, true
	}
	idx := int((x - lo) / width)
	if idx >= bins {
		idx = bins - 1
	}
	return idx, true
}

// Grid2D is a two-dimensional histogram. Counts is indexed [xBin][yBin].
type Grid2D struct {
	XEdges []float64
	YEdges []float64
	Counts [][]float64
}

// Histogram2D bins paired samples into bins x bins equal-width cells that
// span the data range of each axis.
func Histogram2D(xs, ys []float64, bins int) (*Grid2D, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("histogram2d of %d x and %d y samples: %w", len(xs), len(ys), ErrShapeMismatch)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("histogram2d: %w", ErrEmpty)
	}
	if bins <= 0 {
		return nil, fmt.Errorf("histogram2d needs a positive bin count, got %d", bins)
	}

	xlo, xhi := expandDegenerate(floats.Min(xs), floats.Max(xs))
	ylo, yhi := expandDegenerate(floats.Min(ys), floats.Max(ys))
	xw := (xhi - xlo) / float64(bins)
	yw := (yhi - ylo) / float64(bins)

	g := &Grid2D{
		XEdges: edges(xlo, xw, bins),
		YEdges: edges(ylo, yw, bins),
		Counts: make([][]float64, bins),
	}
	for i := range g.Counts {
		g.Counts[i] = make([]float64, bins)
	}
	for i := range xs {
		xi, okx := binIndex(xs[i], xlo, xhi, xw, bins)
		yi, oky := binIndex(ys[i], ylo, yhi, yw, bins)
		if okx && oky {
			g.Counts[xi][yi]++
		}
	}
	return g, nil
}

// matches numpy: a zero-width range is widened by 0.5 on each side
func expandDegenerate(lo, hi float64) (float64, float64) {
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

func edges(lo, width float64, bins int) []float64 {
	out := make([]float64, bins+1)
	for i := range out {
		out[i] = lo + float64(i)*width
	}
	return out
}
