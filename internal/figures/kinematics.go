package figures

import (
	"fmt"

	"gonum.org/v1/plot"

	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/numeric"
	"github.com/nvandessel/neurofig/internal/style"
)

func kinematicsSpec() *Spec {
	return &Spec{
		Name:        "kinematics",
		Group:       "kinematics",
		Description: "Agent velocity and acceleration per axis on twin y axes",
		Output:      "kinematics",
		Input:       &Input{Path: "kinematics1.csv", Delimiter: dataio.Comma},
		Defaults:    Params{"data_scale": 100000, "smooth": 0},
		Choices:     map[string][]string{"smooth_kernel": {"box", "gaussian"}},
		Positive:    []string{"data_scale"},
		Restyle: func(s style.Style) style.Style {
			s.LegendLoc = style.LowerCenter
			return s
		},
		Build: buildKinematics,
	}
}

// kinematics columns: vx, ax, vy, ay
var kinematicsAxes = []struct {
	axis               string
	velLabel, accLabel string
}{
	{"x", "Vx [m/s]", "Ax [m/s^2]"},
	{"y", "Vy [m/s]", "Ay [m/s^2]"},
}

func buildKinematics(in Inputs) (*Figure, error) {
	data, err := requireData(in, "kinematics")
	if err != nil {
		return nil, err
	}
	cols, err := columns(data.Divide(in.Params["data_scale"]), 2*len(kinematicsAxes))
	if err != nil {
		return nil, fmt.Errorf("kinematics: %w", err)
	}
	window := in.Params.Int("smooth")
	smooth := numeric.Smooth
	if in.Options["smooth_kernel"] == "gaussian" {
		smooth = numeric.SmoothGaussian
	}
	for i, col := range cols {
		if !finite(col) {
			return nil, fmt.Errorf("kinematics: column %d has non-finite values: %w", i, ErrInvalidParam)
		}
		cols[i] = smooth(col, window)
	}
	x := index(data.Len())

	fig := &Figure{Name: "kinematics"}
	for i, ax := range kinematicsAxes {
		vel, acc := cols[2*i], cols[2*i+1]
		var xLabel string
		if i == len(kinematicsAxes)-1 {
			xLabel = "Iteration"
		}
		p := in.Style.NewPlot(xLabel, ax.velLabel)
		addGrid(p)

		twin, err := kinematicsPanel(in.Style, p, x, vel, acc, ax.accLabel, i == len(kinematicsAxes)-1)
		if err != nil {
			return nil, fmt.Errorf("kinematics %s: %w", ax.axis, err)
		}
		fig.Panels = append(fig.Panels, Panel{Plot: p, Twin: twin})
		fig.Series = append(fig.Series,
			dataio.Series{Name: "v" + ax.axis, X: x, Y: vel},
			dataio.Series{Name: "a" + ax.axis, X: x, Y: acc},
		)
	}

	for _, s := range fig.Series {
		sum, err := numeric.Summarize(s.Y)
		if err != nil {
			return nil, fmt.Errorf("kinematics %s: %w", s.Name, err)
		}
		fig.Summary = append(fig.Summary, statf(s.Name+" mean", "%v", sum.Mean))
	}
	return fig, nil
}

// kinematicsPanel plots velocity on the left axis and acceleration on a
// twin right axis. The legend lists both when withLegend is set.
func kinematicsPanel(s style.Style, p *plot.Plot, x, vel, acc []float64, accLabel string, withLegend bool) (*style.TwinAxis, error) {
	vMin, vMax := paddedRange(vel)
	aMin, aMax := paddedRange(acc)
	twin, err := s.NewTwinAxis(p, vMin, vMax, aMin, aMax, accLabel)
	if err != nil {
		return nil, err
	}

	vl, err := s.Line(xys(x, vel), style.Red)
	if err != nil {
		return nil, err
	}
	al, err := s.Line(twin.MapXYs(x, acc), style.Blue)
	if err != nil {
		return nil, err
	}
	p.Add(vl, al, twin)
	// Add widens the range to the data, which must not move the twin mapping.
	p.Y.Min, p.Y.Max = vMin, vMax

	if withLegend {
		p.Legend.Add("Velocity", vl)
		p.Legend.Add("Acceleration", al)
	}
	return twin, nil
}
