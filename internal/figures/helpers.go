package figures

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/numeric"
	"github.com/nvandessel/neurofig/internal/style"
)

func xys(x, y []float64) plotter.XYs {
	out := make(plotter.XYs, len(x))
	for i := range x {
		out[i].X = x[i]
		out[i].Y = y[i]
	}
	return out
}

// index returns 0..n-1, the x values of a series plotted by position.
func index(n int) []float64 {
	return numeric.Arange(0, float64(n), 1)
}

func addGrid(p *plot.Plot) {
	g := plotter.NewGrid()
	g.Vertical.Color = style.Grid
	g.Horizontal.Color = style.Grid
	p.Add(g)
}

// paddedRange returns the range of xs widened by 5% on each side, the way
// autoscaled axes leave a margin around the data.
func paddedRange(xs []float64) (float64, float64) {
	lo, hi := floats.Min(xs), floats.Max(xs)
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	pad := 0.05 * (hi - lo)
	return lo - pad, hi + pad
}

func requireData(in Inputs, name string) (*dataio.Matrix, error) {
	if in.Data == nil || in.Data.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingInput)
	}
	return in.Data, nil
}

// columns returns the first n columns of m.
func columns(m *dataio.Matrix, n int) ([][]float64, error) {
	out := make([][]float64, n)
	for i := range out {
		col, err := m.Column(i)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

func finite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
