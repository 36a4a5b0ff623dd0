package figures

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"gonum.org/v1/plot"

	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/numeric"
	"github.com/nvandessel/neurofig/internal/style"
)

var numericGrid = numeric.Grid2D{
	XEdges: []float64{0, 1, 2},
	YEdges: []float64{0, 1, 2},
	Counts: [][]float64{{1, 0}, {10, 100}},
}

func TestCatalogueResolve(t *testing.T) {
	r := Catalogue()
	tests := []struct {
		name, function string
		want           string
		wantErr        error
	}{
		{"epsc", "", "epsc", nil},
		{"sigmoid", "", "sigmoid", nil},
		{"math-functions", "", "sigmoid", nil},
		{"math-functions", "hebbian", "hebbian", nil},
		{"math-functions", "sigmoid", "sigmoid", nil},
		{"timings", "", "firing-hist2d", nil},
		{"timings", "firing-times", "firing-times", nil},
		{"neuron-behaviour", "", "leaky-noise", nil},
		{"coincidence-detector", "", "coincidence", nil},
		{"kinematics", "kinematics", "kinematics", nil},
		{"math-functions", "leaky-if", "", ErrUnknownFunction},
		{"epsc", "hebbian", "", ErrUnknownFunction},
		{"nope", "", "", ErrUnknownFigure},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.function, func(t *testing.T) {
			s, err := r.Resolve(tt.name, tt.function)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if s.Name != tt.want {
				t.Errorf("Resolve() = %s, want %s", s.Name, tt.want)
			}
		})
	}
}

func TestCatalogueOutputs(t *testing.T) {
	want := map[string]string{
		"coincidence":    "coinc_detector_plot",
		"epsc":           "epsc_plot",
		"kinematics":     "kinematics",
		"leaky-if":       "leaky_if",
		"hebbian":        "epsc_plot",
		"sigmoid":        "sigmoid_plot",
		"leaky-noise":    "leaky_noisy",
		"firing-times":   "firing_times",
		"firing-scatter": "firing_correlations",
		"firing-hist2d":  "firing_2d_histogram",
	}
	specs := Catalogue().List()
	if len(specs) != len(want) {
		t.Fatalf("catalogue has %d figures, want %d", len(specs), len(want))
	}
	for _, s := range specs {
		if got := want[s.Name]; got != s.Output {
			t.Errorf("%s output = %q, want %q", s.Name, s.Output, got)
		}
	}
}

func TestNewRegistryRejects(t *testing.T) {
	build := func(Inputs) (*Figure, error) { return &Figure{}, nil }
	tests := []struct {
		name  string
		specs []*Spec
	}{
		{"duplicate", []*Spec{{Name: "a", Build: build}, {Name: "a", Build: build}}},
		{"no build", []*Spec{{Name: "a"}}},
		{"two defaults", []*Spec{
			{Name: "a", Group: "g", GroupDefault: true, Build: build},
			{Name: "b", Group: "g", GroupDefault: true, Build: build},
		}},
		{"no default", []*Spec{
			{Name: "a", Group: "g", Build: build},
			{Name: "b", Group: "g", Build: build},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.specs...); err == nil {
				t.Error("NewRegistry() = nil error")
			}
		})
	}
}

func TestSettings(t *testing.T) {
	s, _ := Catalogue().Get("leaky-noise")

	got, err := s.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if got.Params["r"] != 65 || got.Options["noise_model"] != "constant" {
		t.Errorf("defaults = %v %v", got.Params, got.Options)
	}

	got, err = s.Settings(
		map[string]string{"r": "50", "noise": "0.1"},
		map[string]string{"r": "40", "noise_model": "gaussian"},
	)
	if err != nil {
		t.Fatal(err)
	}
	if got.Params["r"] != 40 || got.Params["noise"] != 0.1 || got.Options["noise_model"] != "gaussian" {
		t.Errorf("layered = %v %v", got.Params, got.Options)
	}
	// defaults are not mutated
	if s.Defaults["r"] != 65 {
		t.Errorf("defaults mutated: r = %v", s.Defaults["r"])
	}

	tests := []struct {
		name    string
		layer   map[string]string
		wantErr error
	}{
		{"unknown key", map[string]string{"zeta": "1"}, ErrUnknownParam},
		{"not a number", map[string]string{"r": "big"}, ErrInvalidParam},
		{"not positive", map[string]string{"c": "0"}, ErrInvalidParam},
		{"fractional integer", map[string]string{"iterations": "10.5"}, ErrInvalidParam},
		{"bad choice", map[string]string{"noise_model": "pink"}, ErrInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Settings(tt.layer); !errors.Is(err, tt.wantErr) {
				t.Errorf("Settings() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRestyle(t *testing.T) {
	r := Catalogue()
	base := style.Default()

	hist, _ := r.Get("firing-hist2d")
	if got := hist.Style(base); got.FontSize != 25 || got.LegendScale != 0.7 || got.LegendLoc != style.UpperCenter {
		t.Errorf("timings style = %+v", got)
	}
	kin, _ := r.Get("kinematics")
	if got := kin.Style(base); got.LegendLoc != style.LowerCenter {
		t.Errorf("kinematics legend = %q", got.LegendLoc)
	}
	epsc, _ := r.Get("epsc")
	if got := epsc.Style(base); got != base {
		t.Errorf("epsc restyled: %+v", got)
	}
}

// build resolves name, applies overrides and builds it over data.
func build(t *testing.T, name, data string, delim dataio.Delimiter, overrides map[string]string) *Figure {
	t.Helper()
	s, ok := Catalogue().Get(name)
	if !ok {
		t.Fatalf("no figure %q", name)
	}
	set, err := s.Settings(overrides)
	if err != nil {
		t.Fatal(err)
	}
	in := Inputs{Params: set.Params, Options: set.Options, Style: s.Style(style.Default())}
	if data != "" {
		m, err := dataio.ParseMatrix(strings.NewReader(data), dataio.ReadOptions{Delimiter: delim})
		if err != nil {
			t.Fatal(err)
		}
		in.Data = m
	}
	fig, err := s.Build(in)
	if err != nil {
		t.Fatalf("Build(%s) error = %v", name, err)
	}
	return fig
}

func summary(fig *Figure) map[string]string {
	out := make(map[string]string, len(fig.Summary))
	for _, s := range fig.Summary {
		out[s.Name] = s.Value
	}
	return out
}

func TestBuildSynthetic(t *testing.T) {
	tests := []struct {
		name      string
		panels    int
		series    int
		firstLen  int
		overrides map[string]string
	}{
		{"coincidence", 3, 3, 100, nil},
		{"epsc", 1, 1, 100, nil},
		{"epsc", 1, 1, 100, map[string]string{"kernel": "biexp"}},
		{"hebbian", 1, 1, 100, nil},
		{"leaky-if", 2, 2, 1000, nil},
		{"sigmoid", 1, 1, 270, nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.name, tt.overrides), func(t *testing.T) {
			fig := build(t, tt.name, "", "", tt.overrides)
			if len(fig.Panels) != tt.panels {
				t.Errorf("panels = %d, want %d", len(fig.Panels), tt.panels)
			}
			if len(fig.Series) != tt.series {
				t.Fatalf("series = %d, want %d", len(fig.Series), tt.series)
			}
			if got := len(fig.Series[0].X); got != tt.firstLen {
				t.Errorf("first series length = %d, want %d", got, tt.firstLen)
			}
			for _, s := range fig.Series {
				if len(s.X) != len(s.Y) {
					t.Errorf("series %s: %d x vs %d y", s.Name, len(s.X), len(s.Y))
				}
			}
		})
	}
}

func TestCoincidenceOutput(t *testing.T) {
	fig := build(t, "coincidence", "", "", nil)
	out := fig.Series[2].Y
	for i, v := range out {
		want := 0.0
		if i == 60 {
			want = 1
		}
		if v != want {
			t.Errorf("output[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestEPSCBiexpRejectsSlowRise(t *testing.T) {
	s, _ := Catalogue().Get("epsc")
	set, err := s.Settings(map[string]string{"kernel": "biexp", "tau_rise": "20"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Build(Inputs{Params: set.Params, Options: set.Options, Style: style.Default()})
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("Build() error = %v, want ErrInvalidParam", err)
	}
}

func TestSigmoidSummary(t *testing.T) {
	fig := build(t, "sigmoid", "", "", nil)
	got := summary(fig)
	if got["Normalized x_0"] != "1" {
		t.Errorf("Normalized x_0 = %q, want 1", got["Normalized x_0"])
	}
	if _, ok := got["Sigmoid k"]; !ok {
		t.Error("missing Sigmoid k")
	}
	if want := "K="; !strings.HasPrefix(fig.Panels[0].Plot.Title.Text, want) {
		t.Errorf("title = %q", fig.Panels[0].Plot.Title.Text)
	}
}

func TestLeakyNoise(t *testing.T) {
	fig := build(t, "leaky-noise", "voltage\n-70000\n-69500\n-69000\n", dataio.Whitespace,
		map[string]string{"iterations": "50"})
	if len(fig.Series) != 2 {
		t.Fatalf("series = %d, want 2", len(fig.Series))
	}
	sim, rec := fig.Series[0], fig.Series[1]
	if len(sim.Y) != 50 {
		t.Errorf("simulated length = %d, want 50", len(sim.Y))
	}
	if rec.Y[0] != -70 || rec.Y[2] != -69 {
		t.Errorf("recorded = %v, want scaled by 1/1000", rec.Y)
	}
	p := fig.Panels[0].Plot
	if p.Y.Min != -71 || p.Y.Max != -53 {
		t.Errorf("y limits = [%v, %v], want [-71, -53]", p.Y.Min, p.Y.Max)
	}
	if p.Title.Text != "R=65 MOhms, C=8 nF, Noise=0.02" {
		t.Errorf("title = %q", p.Title.Text)
	}
}

func TestMissingInput(t *testing.T) {
	for _, name := range []string{"leaky-noise", "kinematics", "firing-times", "firing-scatter", "firing-hist2d"} {
		t.Run(name, func(t *testing.T) {
			s, _ := Catalogue().Get(name)
			if s.Input == nil {
				t.Fatal("figure declares no input")
			}
			set, err := s.Settings()
			if err != nil {
				t.Fatal(err)
			}
			_, err = s.Build(Inputs{Params: set.Params, Options: set.Options, Style: style.Default()})
			if !errors.Is(err, ErrMissingInput) {
				t.Errorf("Build() error = %v, want ErrMissingInput", err)
			}
		})
	}
}

const kinematicsCSV = `vx,ax,vy,ay
100000,0,200000,-100000
200000,100000,300000,0
300000,200000,100000,100000
`

func TestKinematics(t *testing.T) {
	fig := build(t, "kinematics", kinematicsCSV, dataio.Comma, nil)
	if len(fig.Panels) != 2 {
		t.Fatalf("panels = %d, want 2", len(fig.Panels))
	}
	for i, p := range fig.Panels {
		if p.Twin == nil {
			t.Errorf("panel %d has no twin axis", i)
		}
	}
	names := []string{"vx", "ax", "vy", "ay"}
	for i, s := range fig.Series {
		if s.Name != names[i] {
			t.Errorf("series[%d] = %s, want %s", i, s.Name, names[i])
		}
	}
	if got := fig.Series[0].Y; got[0] != 1 || got[2] != 3 {
		t.Errorf("vx = %v, want scaled by 1e-5", got)
	}
	if got := summary(fig)["vx mean"]; got != "2" {
		t.Errorf("vx mean = %q, want 2", got)
	}

	// acceleration min and max land on the padded velocity limits
	twin := fig.Panels[0].Twin
	if math.Abs(twin.Map(twin.Min)-twin.PrimMin) > 1e-12 || math.Abs(twin.Map(twin.Max)-twin.PrimMax) > 1e-12 {
		t.Errorf("twin mapping does not span the primary range")
	}

	box := build(t, "kinematics", kinematicsCSV, dataio.Comma, map[string]string{"smooth": "3"})
	gauss := build(t, "kinematics", kinematicsCSV, dataio.Comma, map[string]string{"smooth": "3", "smooth_kernel": "gaussian"})
	// vy is 2, 3, 1 after scaling
	if got := box.Series[2].Y[1]; math.Abs(got-2) > 1e-12 {
		t.Errorf("box-smoothed vy[1] = %v, want 2", got)
	}
	k := numeric.GaussianKernel(0.75, 1)
	if got, want := gauss.Series[2].Y[1], 2*k[0]+3*k[1]+k[2]; math.Abs(got-want) > 1e-12 {
		t.Errorf("gaussian-smoothed vy[1] = %v, want %v", got, want)
	}

	_, err := Catalogue().List()[2].Build(Inputs{
		Params: Params{"data_scale": 1, "smooth": 0},
		Data:   &dataio.Matrix{Rows: [][]float64{{1, 2}}, Cols: 2},
		Style:  style.Default(),
	})
	if !errors.Is(err, dataio.ErrColumnRange) {
		t.Errorf("two-column kinematics error = %v, want ErrColumnRange", err)
	}
}

func TestFiringTimes(t *testing.T) {
	fig := build(t, "firing-times", "t\n100\n200\n300\n400\n", dataio.Comma, nil)
	got := summary(fig)
	want := map[string]float64{
		"Data mean":           250,
		"Data std. deviation": math.Sqrt(12500),
		"Data median":         250,
	}
	for k, v := range want {
		f, err := strconv.ParseFloat(got[k], 64)
		if err != nil || math.Abs(f-v) > 1e-9 {
			t.Errorf("%s = %q, want %v", k, got[k], v)
		}
	}
	hist := fig.Series[0]
	if len(hist.X) != 100 {
		t.Fatalf("bins = %d, want 100", len(hist.X))
	}
	var area float64
	for _, w := range hist.Y {
		area += w * 30
	}
	if math.Abs(area-1) > 1e-12 {
		t.Errorf("density area = %v, want 1", area)
	}
}

const correlationsCSV = `dt14,dt24
1,2
2,4
3,6
3,5
`

func TestFiringScatter(t *testing.T) {
	fig := build(t, "firing-scatter", correlationsCSV, dataio.Comma, nil)
	got := summary(fig)
	if got["mean vector mu_hat"] != "[2.25, 4.25]" {
		t.Errorf("mean = %q", got["mean vector mu_hat"])
	}
	if !strings.HasPrefix(got["Covariance matrix"], "[[0.91666") {
		t.Errorf("covariance = %q", got["Covariance matrix"])
	}
}

func TestFiringHist2D(t *testing.T) {
	fig := build(t, "firing-hist2d", correlationsCSV, dataio.Comma, map[string]string{"bins": "4"})
	if fig.Colorbar == nil {
		t.Fatal("no colorbar")
	}
	if got := summary(fig)["Samples"]; got != "4" {
		t.Errorf("Samples = %q, want 4", got)
	}
	if got := fig.Panels[0].Plot.Title.Text; got != "Ext. Coincidence Detector 2-D Hist" {
		t.Errorf("title = %q", got)
	}
	if got := fig.Panels[0].Plot.X.Label.Text; got != "Delta t14 [ms]" {
		t.Errorf("x label = %q", got)
	}
	if _, ok := fig.Colorbar.Y.Tick.Marker.(plot.TickerFunc); !ok {
		t.Error("colorbar ticks are not log labelled")
	}
}

func TestLogGrid(t *testing.T) {
	g := newLogGrid(&numericGrid)
	c, r := g.Dims()
	if c != 2 || r != 2 {
		t.Fatalf("Dims() = %d, %d", c, r)
	}
	if !math.IsNaN(g.Z(0, 1)) {
		t.Errorf("empty cell = %v, want NaN", g.Z(0, 1))
	}
	if g.Z(1, 1) != 2 {
		t.Errorf("Z(1,1) = %v, want 2", g.Z(1, 1))
	}
	if g.Min() != 0 || g.Max() != 2 {
		t.Errorf("range = [%v, %v], want [0, 2]", g.Min(), g.Max())
	}
	if g.X(0) != 0.5 || g.Y(1) != 1.5 {
		t.Errorf("centres = %v, %v", g.X(0), g.Y(1))
	}
}

func TestLogTicks(t *testing.T) {
	ticks := logTicks(0, 2.5)
	if len(ticks) != 3 {
		t.Fatalf("ticks = %v", ticks)
	}
	if ticks[2].Label != "100" || ticks[2].Value != 2 {
		t.Errorf("ticks[2] = %+v", ticks[2])
	}
}
