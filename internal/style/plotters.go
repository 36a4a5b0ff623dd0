package style

import (
	"errors"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Dashes is the dash pattern for dashed reference lines.
var Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

// Line returns a line plotter for xys in the style's line width.
func (s Style) Line(xys plotter.XYer, c color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Width = vg.Points(s.LineWidth)
	l.LineStyle.Color = c
	return l, nil
}

// StepLine returns a line drawn in "steps-pre" mode: each value holds
// from the previous sample up to its own x.
func (s Style) StepLine(xys plotter.XYer, c color.Color) (*plotter.Line, error) {
	l, err := s.Line(xys, c)
	if err != nil {
		return nil, err
	}
	l.StepStyle = plotter.PreStep
	return l, nil
}

// Marker returns a scatter of cross glyphs.
func (s Style) Marker(xys plotter.XYer, c color.Color) (*plotter.Scatter, error) {
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle = draw.GlyphStyle{
		Color:  c,
		Radius: vg.Points(s.MarkerSize * 2),
		Shape:  draw.CrossGlyph{},
	}
	return sc, nil
}

// RefLine is a horizontal or vertical line spanning the whole data area at
// a fixed data value, like matplotlib's axhline and axvline. It only
// contributes its own coordinate to the data range.
type RefLine struct {
	Vertical bool
	Value    float64
	draw.LineStyle
}

// HLine returns a horizontal reference line at y.
func (s Style) HLine(y float64, c color.Color, dashed bool) *RefLine {
	return s.refLine(false, y, c, dashed)
}

// VLine returns a vertical reference line at x.
func (s Style) VLine(x float64, c color.Color, dashed bool) *RefLine {
	return s.refLine(true, x, c, dashed)
}

func (s Style) refLine(vertical bool, v float64, c color.Color, dashed bool) *RefLine {
	l := &RefLine{
		Vertical: vertical,
		Value:    v,
		LineStyle: draw.LineStyle{
			Color: c,
			Width: vg.Points(s.LineWidth),
		},
	}
	if dashed {
		l.Dashes = Dashes
	}
	return l
}

// Plot implements plot.Plotter.
func (l *RefLine) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	if l.Vertical {
		x := trX(l.Value)
		if x < c.Min.X || x > c.Max.X {
			return
		}
		c.StrokeLine2(l.LineStyle, x, c.Min.Y, x, c.Max.Y)
		return
	}
	y := trY(l.Value)
	if y < c.Min.Y || y > c.Max.Y {
		return
	}
	c.StrokeLine2(l.LineStyle, c.Min.X, y, c.Max.X, y)
}

// DataRange implements plot.DataRanger.
func (l *RefLine) DataRange() (xmin, xmax, ymin, ymax float64) {
	if l.Vertical {
		return l.Value, l.Value, math.Inf(1), math.Inf(-1)
	}
	return math.Inf(1), math.Inf(-1), l.Value, l.Value
}

// Thumbnail implements plot.Thumbnailer.
func (l *RefLine) Thumbnail(c *draw.Canvas) {
	y := c.Center().Y
	c.StrokeLine2(l.LineStyle, c.Min.X, y, c.Max.X, y)
}

// ErrEmptyRange is returned for a twin axis whose range has no extent.
var ErrEmptyRange = errors.New("twin axis range is empty")

// TwinAxis draws a secondary y axis on the right edge of the data area.
// Series plotted against it are mapped into the primary range with Map, so
// the primary axis limits must be fixed before plotting.
type TwinAxis struct {
	Min, Max         float64
	PrimMin, PrimMax float64

	Label      string
	LabelStyle text.Style
	TickStyle  text.Style
	LineStyle  draw.LineStyle
	TickLength vg.Length
	Padding    vg.Length
}

// NewTwinAxis binds a secondary range [min, max] to the primary y range of
// p, which is fixed as a side effect.
func (s Style) NewTwinAxis(p *plot.Plot, primMin, primMax, min, max float64, label string) (*TwinAxis, error) {
	if !(max > min) || !(primMax > primMin) {
		return nil, ErrEmptyRange
	}
	p.Y.Min, p.Y.Max = primMin, primMax
	return &TwinAxis{
		Min:        min,
		Max:        max,
		PrimMin:    primMin,
		PrimMax:    primMax,
		Label:      label,
		LabelStyle: p.Y.Label.TextStyle,
		TickStyle:  p.Y.Tick.Label,
		LineStyle:  p.Y.LineStyle,
		TickLength: p.Y.Tick.Length,
		Padding:    p.Y.Label.Padding,
	}, nil
}

// Map converts a secondary-axis value into primary-axis coordinates.
func (a *TwinAxis) Map(v float64) float64 {
	return a.PrimMin + (v-a.Min)/(a.Max-a.Min)*(a.PrimMax-a.PrimMin)
}

// MapXYs returns ys mapped into primary coordinates, paired with xs.
func (a *TwinAxis) MapXYs(xs, ys []float64) plotter.XYs {
	out := make(plotter.XYs, len(xs))
	for i := range xs {
		out[i].X = xs[i]
		out[i].Y = a.Map(ys[i])
	}
	return out
}

// Plot implements plot.Plotter. Labels are drawn outside the data area, so
// the canvas must leave room on the right.
func (a *TwinAxis) Plot(c draw.Canvas, p *plot.Plot) {
	_, trY := p.Transforms(&c)
	x := c.Max.X
	c.StrokeLine2(a.LineStyle, x, trY(a.PrimMin), x, trY(a.PrimMax))

	ts := a.TickStyle
	ts.XAlign = text.XLeft
	ts.YAlign = text.YCenter
	var widest vg.Length
	for _, t := range (plot.DefaultTicks{}).Ticks(a.Min, a.Max) {
		if t.Value < a.Min || t.Value > a.Max {
			continue
		}
		y := trY(a.Map(t.Value))
		length := a.TickLength
		if t.IsMinor() {
			length /= 2
		}
		c.StrokeLine2(a.LineStyle, x, y, x+length, y)
		if t.Label == "" {
			continue
		}
		c.FillText(ts, vg.Point{X: x + a.TickLength + a.Padding, Y: y}, t.Label)
		if w := ts.Width(t.Label); w > widest {
			widest = w
		}
	}

	if a.Label == "" {
		return
	}
	ls := a.LabelStyle
	ls.Rotation = math.Pi / 2
	ls.XAlign = text.XCenter
	ls.YAlign = text.YTop
	mid := (trY(a.PrimMin) + trY(a.PrimMax)) / 2
	c.FillText(ls, vg.Point{X: x + a.TickLength + 2*a.Padding + widest, Y: mid}, a.Label)
}

// Margin is the room the axis needs to the right of the data area.
func (a *TwinAxis) Margin() vg.Length {
	var widest vg.Length
	for _, t := range (plot.DefaultTicks{}).Ticks(a.Min, a.Max) {
		if w := a.TickStyle.Width(t.Label); w > widest {
			widest = w
		}
	}
	m := a.TickLength + 2*a.Padding + widest
	if a.Label != "" {
		m += a.LabelStyle.Height(a.Label) + a.Padding
	}
	return m
}

// Summer returns matplotlib's "summer" colour map (green to yellow) over
// [min, max].
func Summer(min, max float64) (palette.ColorMap, error) {
	cm, err := moreland.NewLuminance([]color.Color{
		color.NRGBA{R: 0, G: 128, B: 102, A: 255},
		color.NRGBA{R: 255, G: 255, B: 102, A: 255},
	})
	if err != nil {
		return nil, err
	}
	cm.SetMin(min)
	cm.SetMax(max)
	return cm, nil
}

// ColorBar is a vertical colour scale drawn as stacked filled bands. Unlike
// plotter.ColorBar it never draws an image, so it also renders to EPS.
type ColorBar struct {
	ColorMap palette.ColorMap
	// Bands is the number of colour steps. Zero means 256.
	Bands int
}

// Plot implements plot.Plotter.
func (cb *ColorBar) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	lo, hi := cb.ColorMap.Min(), cb.ColorMap.Max()
	n := cb.Bands
	if n <= 0 {
		n = 256
	}
	step := (hi - lo) / float64(n)
	x0, x1 := trX(0), trX(1)
	for i := range n {
		from := lo + float64(i)*step
		col, err := cb.ColorMap.At(from + step/2)
		if err != nil {
			continue
		}
		y0, y1 := trY(from), trY(from+step)
		c.FillPolygon(col, []vg.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}})
	}
}

// DataRange implements plot.DataRanger.
func (cb *ColorBar) DataRange() (xmin, xmax, ymin, ymax float64) {
	return 0, 1, cb.ColorMap.Min(), cb.ColorMap.Max()
}
