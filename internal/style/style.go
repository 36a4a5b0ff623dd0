// Package style is the single home of the figure styling that every plot
// shares: sizes, fonts, tick geometry, legend placement and the colour set.
package style

import (
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Colours matching the single-letter colour codes of the reference figures.
var (
	Blue  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	Red   = color.RGBA{R: 0xff, A: 0xff}
	Green = color.RGBA{G: 0x80, A: 0xff}
	Black = color.RGBA{A: 0xff}
	Grid  = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}
)

// Legend locations.
const (
	UpperRight  = "upper right"
	UpperLeft   = "upper left"
	UpperCenter = "upper center"
	LowerRight  = "lower right"
	LowerLeft   = "lower left"
	LowerCenter = "lower center"
)

// Style holds the shared plot appearance.
type Style struct {
	// Width and Height are the figure size.
	Width, Height vg.Length

	// FontSize is the base font size in points. Other sizes scale from it.
	FontSize    float64
	LabelScale  float64
	TitleScale  float64
	LegendScale float64
	TickScale   float64

	// Tick, axis, line and marker geometry in points.
	TickLength float64
	TickWidth  float64
	AxisWidth  float64
	LineWidth  float64
	MarkerSize float64

	LegendLoc string

	// DPI applies to raster formats only.
	DPI    int
	Format string
}

// Default returns the reference figure style.
func Default() Style {
	return Style{
		Width:       10 * vg.Inch,
		Height:      8 * vg.Inch,
		FontSize:    22,
		LabelScale:  1,
		TitleScale:  1.2,
		LegendScale: 0.9,
		TickScale:   0.6,
		TickLength:  3,
		TickWidth:   1,
		AxisWidth:   1,
		LineWidth:   1,
		MarkerSize:  3,
		LegendLoc:   UpperRight,
		DPI:         300,
		Format:      "eps",
	}
}

// Validate reports the first out-of-range setting.
func (s Style) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("figure size must be positive, got %v x %v", s.Width, s.Height)
	}
	if s.FontSize <= 0 {
		return fmt.Errorf("font size must be positive, got %g", s.FontSize)
	}
	if s.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", s.DPI)
	}
	if _, _, err := legendPlacement(s.LegendLoc); err != nil {
		return err
	}
	return nil
}

func (s Style) size(scale float64) vg.Length {
	return vg.Points(s.FontSize * scale)
}

// NewPlot returns a styled plot with the given axis labels.
func (s Style) NewPlot(xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	s.Apply(p)
	return p
}

// Apply styles p in place.
func (s Style) Apply(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = s.size(s.TitleScale)
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Label.TextStyle.Font.Size = s.size(s.LabelScale)
		ax.Tick.Label.Font.Size = s.size(s.TickScale)
		ax.Tick.Length = vg.Points(s.TickLength)
		ax.Tick.LineStyle.Width = vg.Points(s.TickWidth)
		ax.LineStyle.Width = vg.Points(s.AxisWidth)
	}
	p.Legend.TextStyle.Font.Size = s.size(s.LegendScale)
	p.Legend.ThumbnailWidth = vg.Points(s.FontSize)

	top, left, _ := legendPlacement(s.LegendLoc)
	p.Legend.Top = top
	p.Legend.Left = left
	if strings.HasSuffix(s.LegendLoc, "center") {
		// gonum legends anchor to a corner. A third of the figure width
		// brings a right-anchored legend close to the middle of the data area.
		p.Legend.XOffs = -s.Width / 3
	}
}

func legendPlacement(loc string) (top, left bool, err error) {
	switch loc {
	case UpperRight, UpperCenter:
		return true, false, nil
	case UpperLeft:
		return true, true, nil
	case LowerRight, LowerCenter:
		return false, false, nil
	case LowerLeft:
		return false, true, nil
	}
	return false, false, fmt.Errorf("unknown legend location %q", loc)
}
