package figures

import (
	"fmt"

	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/numeric"
	"github.com/nvandessel/neurofig/internal/style"
)

func sigmoidSpec() *Spec {
	return &Spec{
		Name:        "sigmoid",
		Group:       "math-functions",
		Description: "Spiking-probability sigmoid fitted through U_ref",
		Output:      "sigmoid_plot",
		Defaults: Params{
			"natural_period": 1000,
			"time_step":      1,
			"u_rest":         -70,
			"u_thres":        -54,
			"u_ref":          -62.5,
			"x0":             -54,
		},
		Positive:     []string{"natural_period", "time_step"},
		GroupDefault: true,
		Build:        buildSigmoid,
	}
}

func buildSigmoid(in Inputs) (*Figure, error) {
	sp := numeric.SigmoidParams{
		NaturalPeriod: in.Params["natural_period"],
		TimeStep:      in.Params["time_step"],
		URest:         in.Params["u_rest"],
		UThres:        in.Params["u_thres"],
		URef:          in.Params["u_ref"],
		X0:            in.Params["x0"],
	}
	if sp.UThres <= sp.URest {
		return nil, fmt.Errorf("sigmoid: u_thres %g must exceed u_rest %g: %w", sp.UThres, sp.URest, ErrInvalidParam)
	}
	if sp.URef == sp.X0 {
		return nil, fmt.Errorf("sigmoid: u_ref and x0 are both %g: %w", sp.X0, ErrInvalidParam)
	}
	curve := numeric.SigmoidFit(sp)

	p := in.Style.NewPlot("U(t) [mV]", "S(x)")
	p.Title.Text = fmt.Sprintf("K=%.2f, X_0=%g", curve.K, sp.X0)
	addGrid(p)
	l, err := in.Style.Line(xys(curve.U, curve.S), style.Blue)
	if err != nil {
		return nil, fmt.Errorf("sigmoid: %w", err)
	}
	p.Add(l,
		in.Style.VLine(sp.URest, style.Red, true),
		in.Style.VLine(sp.UThres, style.Red, true),
	)

	return &Figure{
		Name:   "sigmoid",
		Panels: []Panel{{Plot: p}},
		Summary: []Stat{
			statf("Probability of spiking at U_ref", "%v", curve.P),
			statf("Normalized x_0", "%v", curve.NormX0),
			statf("Sigmoid k", "%v", curve.K),
		},
		Series: []dataio.Series{{Name: "sigmoid", X: curve.U, Y: curve.S}},
	}, nil
}

func leakyNoiseSpec() *Spec {
	return &Spec{
		Name:        "leaky-noise",
		Group:       "neuron-behaviour",
		Description: "Leaky neuron driven by noise against a recorded voltage trace",
		Output:      "leaky_noisy",
		Input:       &Input{Path: "data/voltage.csv", Delimiter: dataio.Whitespace},
		Defaults: Params{
			"u_rest":      -70,
			"u_thres":     -54,
			"noise":       0.02,
			"r":           65,
			"c":           8,
			"iterations":  10000,
			"noise_sigma": 0.02,
			"seed":        1,
			"data_scale":  1000,
		},
		Choices:      map[string][]string{"noise_model": {"constant", "gaussian"}},
		Positive:     []string{"r", "c", "data_scale"},
		Integer:      []string{"iterations"},
		GroupDefault: true,
		Build:        buildLeakyNoise,
	}
}

func buildLeakyNoise(in Inputs) (*Figure, error) {
	data, err := requireData(in, "leaky-noise")
	if err != nil {
		return nil, err
	}
	recorded := data.Divide(in.Params["data_scale"]).Flatten()

	lp := numeric.LeakyNoiseParams{
		URest:      in.Params["u_rest"],
		Noise:      in.Params["noise"],
		R:          in.Params["r"],
		C:          in.Params["c"],
		Iterations: in.Params.Int("iterations"),
		Gaussian:   in.Options["noise_model"] == "gaussian",
		NoiseSigma: in.Params["noise_sigma"],
		Seed:       uint64(in.Params["seed"]),
	}
	if lp.Gaussian && lp.NoiseSigma < 0 {
		return nil, fmt.Errorf("leaky-noise: noise_sigma %g is negative: %w", lp.NoiseSigma, ErrInvalidParam)
	}
	simulated := numeric.LeakyNoise(lp)
	uThres := in.Params["u_thres"]

	p := in.Style.NewPlot("t [ms]", "U(t) [mV]")
	p.Title.Text = fmt.Sprintf("R=%g MOhms, C=%g nF, Noise=%g", lp.R, lp.C, lp.Noise)
	addGrid(p)
	simX, recX := index(len(simulated)), index(len(recorded))
	sim, err := in.Style.Line(xys(simX, simulated), style.Blue)
	if err != nil {
		return nil, fmt.Errorf("leaky-noise simulated: %w", err)
	}
	rec, err := in.Style.Line(xys(recX, recorded), style.Green)
	if err != nil {
		return nil, fmt.Errorf("leaky-noise recorded: %w", err)
	}
	p.Add(sim, rec,
		in.Style.HLine(lp.URest, style.Red, true),
		in.Style.HLine(uThres, style.Red, true),
	)
	p.Y.Min, p.Y.Max = lp.URest-1, uThres+1

	return &Figure{
		Name:   "leaky-noise",
		Panels: []Panel{{Plot: p}},
		Summary: []Stat{
			statf("Leaky factor", "%v", numeric.LeakyFactor(lp.R, lp.C)),
			statf("Final simulated voltage [mV]", "%v", simulated[len(simulated)-1]),
		},
		Series: []dataio.Series{
			{Name: "simulated", X: simX, Y: simulated},
			{Name: "recorded", X: recX, Y: recorded},
		},
	}, nil
}
