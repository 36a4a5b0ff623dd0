package figures

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/numeric"
	"github.com/nvandessel/neurofig/internal/style"
)

func coincidenceSpec() *Spec {
	return &Spec{
		Name:        "coincidence",
		Group:       "coincidence-detector",
		Description: "Two periodic spike trains and their coincidence detector output",
		Output:      "coinc_detector_plot",
		Defaults:    Params{"steps": 100, "period1": 20, "period2": 30},
		Integer:     []string{"steps", "period1", "period2"},
		Build:       buildCoincidence,
	}
}

func buildCoincidence(in Inputs) (*Figure, error) {
	c := numeric.CoincidenceDetector(in.Params.Int("steps"), in.Params.Int("period1"), in.Params.Int("period2"))
	traces := []struct {
		name, label string
		y           []float64
		color       color.Color
	}{
		{"input1", "Input 1", c.Input1, style.Blue},
		{"input2", "Input 2", c.Input2, style.Blue},
		{"output", "Output", c.Output, style.Red},
	}

	fig := &Figure{Name: "coincidence"}
	for i, tr := range traces {
		var xLabel string
		if i == len(traces)-1 {
			xLabel = "Time [ms]"
		}
		p := in.Style.NewPlot(xLabel, tr.label)
		addGrid(p)
		l, err := in.Style.StepLine(xys(c.T, tr.y), tr.color)
		if err != nil {
			return nil, fmt.Errorf("coincidence %s: %w", tr.name, err)
		}
		p.Add(l)
		fig.Panels = append(fig.Panels, Panel{Plot: p})
		fig.Series = append(fig.Series, dataio.Series{Name: tr.name, X: c.T, Y: tr.y})
	}
	return fig, nil
}

func epscSpec() *Spec {
	return &Spec{
		Name:        "epsc",
		Group:       "epsc",
		Description: "Two-sided EPSC learning window against spike time difference",
		Output:      "epsc_plot",
		Defaults:    Params{"tau": 10, "tau_rise": 2, "tau_decay": 10},
		Choices:     map[string][]string{"kernel": {"stdp", "biexp"}},
		Positive:    []string{"tau", "tau_rise", "tau_decay"},
		Build:       func(in Inputs) (*Figure, error) { return buildEPSC("epsc", in) },
	}
}

// hebbianSpec is the Hebbian-rule function of the math-functions group. It
// draws the same window as epsc.
func hebbianSpec() *Spec {
	s := epscSpec()
	s.Name = "hebbian"
	s.Group = "math-functions"
	s.Description = "Hebbian rule: the EPSC learning window"
	s.Build = func(in Inputs) (*Figure, error) { return buildEPSC("hebbian", in) }
	return s
}

func buildEPSC(name string, in Inputs) (*Figure, error) {
	t, amp := numeric.EPSCWindow(in.Params["tau"])
	if in.Options["kernel"] == "biexp" {
		rise, decay := in.Params["tau_rise"], in.Params["tau_decay"]
		if rise >= decay {
			return nil, fmt.Errorf("%s: tau_rise %g must be below tau_decay %g: %w", name, rise, decay, ErrInvalidParam)
		}
		amp = numeric.BiexpKernel(t, rise, decay)
	}

	p := in.Style.NewPlot("Time difference [ms]", "EPSC amplitude")
	addGrid(p)
	l, err := in.Style.Line(xys(t, amp), style.Blue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	p.Add(l)
	return &Figure{
		Name:   name,
		Panels: []Panel{{Plot: p}},
		Series: []dataio.Series{{Name: "epsc", X: t, Y: amp}},
	}, nil
}

func leakyIFSpec() *Spec {
	return &Spec{
		Name:        "leaky-if",
		Group:       "leaky-if",
		Description: "Leaky integrate-and-fire charge and discharge with two synaptic inputs",
		Output:      "leaky_if",
		Defaults:    Params{"u_rest": -70, "u_thres": -54, "delta_u": 15, "tau": 20},
		Positive:    []string{"delta_u", "tau"},
		Build:       buildLeakyIF,
	}
}

func buildLeakyIF(in Inputs) (*Figure, error) {
	tr := numeric.LIFChargeDischarge(numeric.LIFParams{
		URest:  in.Params["u_rest"],
		UThres: in.Params["u_thres"],
		DeltaU: in.Params["delta_u"],
		Tau:    in.Params["tau"],
	})

	top := in.Style.NewPlot("", "Membrane potential (mV)")
	addGrid(top)
	voltage, err := in.Style.StepLine(xys(tr.T, tr.Voltage), style.Blue)
	if err != nil {
		return nil, fmt.Errorf("leaky-if voltage: %w", err)
	}
	spike, err := in.Style.Marker(plotter.XYs{{X: tr.SpikeT, Y: tr.SpikeU}}, style.Red)
	if err != nil {
		return nil, fmt.Errorf("leaky-if spike: %w", err)
	}
	spike.GlyphStyle.Radius = vg.Points(10)
	top.Add(voltage, in.Style.HLine(in.Params["u_thres"], style.Black, false), spike)

	bottom := in.Style.NewPlot("Time [ms]", "Synapse input")
	addGrid(bottom)
	synapse, err := in.Style.StepLine(xys(tr.T, tr.Synapse), style.Red)
	if err != nil {
		return nil, fmt.Errorf("leaky-if synapse: %w", err)
	}
	bottom.Add(synapse)

	return &Figure{
		Name:   "leaky-if",
		Panels: []Panel{{Plot: top}, {Plot: bottom}},
		Summary: []Stat{
			statf("Spike time [ms]", "%v", tr.SpikeT),
		},
		Series: []dataio.Series{
			{Name: "voltage", X: tr.T, Y: tr.Voltage},
			{Name: "synapse", X: tr.T, Y: tr.Synapse},
		},
	}, nil
}
