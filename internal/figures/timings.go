package figures

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/numeric"
	"github.com/nvandessel/neurofig/internal/style"
)

const timingsGroup = "timings"

// timingsStyle is the larger type used by the timing figures.
func timingsStyle(s style.Style) style.Style {
	s.FontSize = 25
	s.LegendScale = 0.7
	s.LegendLoc = style.UpperCenter
	return s
}

func firingTimesSpec() *Spec {
	return &Spec{
		Name:        "firing-times",
		Group:       timingsGroup,
		Description: "Density histogram of neuron firing times",
		Output:      "firing_times",
		Input:       &Input{Path: "data/firing_times.csv", Delimiter: dataio.Comma},
		Defaults:    Params{"bins": 100, "t_min": 0, "t_max": 3000},
		Choices:     map[string][]string{"density": {"true", "false"}},
		Integer:     []string{"bins"},
		Restyle:     timingsStyle,
		Build:       buildFiringTimes,
	}
}

func buildFiringTimes(in Inputs) (*Figure, error) {
	data, err := requireData(in, "firing-times")
	if err != nil {
		return nil, err
	}
	times := data.Flatten()
	density := in.Options["density"] == "true"
	bins, err := numeric.Histogram(times, in.Params.Int("bins"), in.Params["t_min"], in.Params["t_max"], density)
	if err != nil {
		return nil, fmt.Errorf("firing-times: %w: %w", ErrInvalidParam, err)
	}
	sum, err := numeric.Summarize(times)
	if err != nil {
		return nil, fmt.Errorf("firing-times: %w", err)
	}

	yLabel := "P"
	if !density {
		yLabel = "Count"
	}
	p := in.Style.NewPlot("t [ms]", yLabel)
	hist := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, len(bins)),
		Width:     bins[0].Max - bins[0].Min,
		FillColor: style.Blue,
		LineStyle: draw.LineStyle{Color: style.Black, Width: vg.Points(in.Style.LineWidth)},
	}
	centers := make([]float64, len(bins))
	weights := make([]float64, len(bins))
	for i, b := range bins {
		hist.Bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: b.Weight}
		centers[i] = (b.Min + b.Max) / 2
		weights[i] = b.Weight
	}
	p.Add(hist)

	return &Figure{
		Name:   "firing-times",
		Panels: []Panel{{Plot: p}},
		Summary: []Stat{
			statf("Data mean", "%v", sum.Mean),
			statf("Data std. deviation", "%v", sum.Std),
			statf("Data median", "%v", sum.Median),
		},
		Series: []dataio.Series{{Name: "histogram", X: centers, Y: weights}},
	}, nil
}

func firingScatterSpec() *Spec {
	return &Spec{
		Name:        "firing-scatter",
		Group:       timingsGroup,
		Description: "Scatter of paired firing time differences with mean and covariance",
		Output:      "firing_correlations",
		Input:       &Input{Path: "data/firing_correlations.csv", Delimiter: dataio.Comma},
		Restyle:     timingsStyle,
		Build:       buildFiringScatter,
	}
}

func buildFiringScatter(in Inputs) (*Figure, error) {
	data, err := requireData(in, "firing-scatter")
	if err != nil {
		return nil, err
	}
	cols, err := columns(data, data.Cols)
	if err != nil {
		return nil, fmt.Errorf("firing-scatter: %w", err)
	}
	if len(cols) < 2 {
		return nil, fmt.Errorf("firing-scatter needs 2 columns, got %d: %w", len(cols), dataio.ErrColumnRange)
	}
	mean, cov, err := numeric.MeanCovariance(cols...)
	if err != nil {
		return nil, fmt.Errorf("firing-scatter: %w", err)
	}

	p := in.Style.NewPlot("", "")
	sc, err := plotter.NewScatter(xys(cols[0], cols[1]))
	if err != nil {
		return nil, fmt.Errorf("firing-scatter: %w", err)
	}
	sc.GlyphStyle = draw.GlyphStyle{Color: style.Blue, Radius: vg.Points(in.Style.MarkerSize), Shape: draw.CircleGlyph{}}
	p.Add(sc)

	return &Figure{
		Name:   "firing-scatter",
		Panels: []Panel{{Plot: p}},
		Summary: []Stat{
			statf("mean vector mu_hat", "[%v, %v]", mean[0], mean[1]),
			{Name: "Covariance matrix", Value: formatMatrix(cov)},
		},
		Series: []dataio.Series{{Name: "correlation", X: cols[0], Y: cols[1]}},
	}, nil
}

// formatMatrix renders m as nested brackets on one line.
func formatMatrix(m mat.Matrix) string {
	r, c := m.Dims()
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < r; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('[')
		for j := 0; j < c; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

func firingHist2DSpec() *Spec {
	return &Spec{
		Name:         "firing-hist2d",
		Group:        timingsGroup,
		Description:  "Log-scaled 2-D histogram of paired firing time differences",
		Output:       "firing_2d_histogram",
		Input:        &Input{Path: "data/firing_correlations.csv", Delimiter: dataio.Comma},
		Defaults:     Params{"bins": 180},
		Integer:      []string{"bins"},
		GroupDefault: true,
		Restyle:      timingsStyle,
		Build:        buildFiringHist2D,
	}
}

func buildFiringHist2D(in Inputs) (*Figure, error) {
	data, err := requireData(in, "firing-hist2d")
	if err != nil {
		return nil, err
	}
	cols, err := columns(data, 2)
	if err != nil {
		return nil, fmt.Errorf("firing-hist2d: %w", err)
	}
	g, err := numeric.Histogram2D(cols[0], cols[1], in.Params.Int("bins"))
	if err != nil {
		return nil, fmt.Errorf("firing-hist2d: %w", err)
	}
	grid := newLogGrid(g)
	lo, hi := grid.Min(), grid.Max()
	if hi <= lo {
		hi = lo + 1
	}
	cm, err := style.Summer(lo, hi)
	if err != nil {
		return nil, fmt.Errorf("firing-hist2d: %w", err)
	}

	p := in.Style.NewPlot("Delta t14 [ms]", "Delta t24 [ms]")
	p.Title.Text = "Ext. Coincidence Detector 2-D Hist"
	hm := plotter.NewHeatMap(grid, cm.Palette(256))
	hm.Min, hm.Max = lo, hi
	// empty cells show the background, as a masked log norm does
	hm.NaN = color.White
	p.Add(hm)

	bar := in.Style.NewPlot("", "")
	bar.HideX()
	bar.Add(&style.ColorBar{ColorMap: cm})
	bar.Y.Tick.Marker = plot.TickerFunc(logTicks)

	return &Figure{
		Name:     "firing-hist2d",
		Panels:   []Panel{{Plot: p}},
		Colorbar: bar,
		Summary: []Stat{
			statf("Samples", "%d", len(cols[0])),
			statf("Max cell count", "%.0f", math.Pow(10, grid.Max())),
		},
		Series: []dataio.Series{{Name: "correlation", X: cols[0], Y: cols[1]}},
	}, nil
}

// logGrid adapts a 2-D histogram to plotter.GridXYZ with log10 counts.
// Empty cells are NaN so the heat map leaves them blank.
type logGrid struct {
	g        *numeric.Grid2D
	min, max float64
}

func newLogGrid(g *numeric.Grid2D) *logGrid {
	lg := &logGrid{g: g, min: math.Inf(1), max: math.Inf(-1)}
	for _, row := range g.Counts {
		for _, n := range row {
			if n <= 0 {
				continue
			}
			v := math.Log10(n)
			lg.min = math.Min(lg.min, v)
			lg.max = math.Max(lg.max, v)
		}
	}
	if math.IsInf(lg.min, 1) {
		lg.min, lg.max = 0, 0
	}
	return lg
}

func (lg *logGrid) Dims() (c, r int) {
	return len(lg.g.XEdges) - 1, len(lg.g.YEdges) - 1
}

func (lg *logGrid) Z(c, r int) float64 {
	n := lg.g.Counts[c][r]
	if n <= 0 {
		return math.NaN()
	}
	return math.Log10(n)
}

func (lg *logGrid) X(c int) float64 {
	return (lg.g.XEdges[c] + lg.g.XEdges[c+1]) / 2
}

func (lg *logGrid) Y(r int) float64 {
	return (lg.g.YEdges[r] + lg.g.YEdges[r+1]) / 2
}

func (lg *logGrid) Min() float64 { return lg.min }
func (lg *logGrid) Max() float64 { return lg.max }

// logTicks labels a log10 axis at whole powers of ten.
func logTicks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for e := math.Ceil(min); e <= max; e++ {
		ticks = append(ticks, plot.Tick{Value: e, Label: strconv.FormatFloat(math.Pow(10, e), 'g', -1, 64)})
	}
	if len(ticks) == 0 {
		ticks = append(ticks, plot.Tick{Value: min, Label: strconv.FormatFloat(math.Pow(10, min), 'g', 3, 64)})
	}
	return ticks
}
