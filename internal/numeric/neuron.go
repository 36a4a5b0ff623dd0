package numeric

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// SpikeTrain returns n samples with a 1 at every positive multiple of period.
// Index zero never spikes.
func SpikeTrain(n, period int) []float64 {
	out := Zeros(n)
	if period <= 0 {
		return out
	}
	for i := 1; i < n; i++ {
		if i%period == 0 {
			out[i] = 1
		}
	}
	return out
}

// Coincidence holds the two inputs and the output of a coincidence detector.
type Coincidence struct {
	T      []float64
	Input1 []float64
	Input2 []float64
	Output []float64
}

// CoincidenceDetector builds two periodic spike trains on a 1 ms grid and
// fires the output only where both inputs spike in the same step.
func CoincidenceDetector(n, period1, period2 int) Coincidence {
	in1 := SpikeTrain(n, period1)
	in2 := SpikeTrain(n, period2)
	// same length by construction
	out, _ := Multiply(in1, in2)
	return Coincidence{
		T:      Arange(0, float64(n), 1),
		Input1: in1,
		Input2: in2,
		Output: out,
	}
}

// LIFParams configures the charge-discharge trace of a leaky integrate-and-fire neuron.
type LIFParams struct {
	URest  float64 // resting potential, mV
	UThres float64 // firing threshold, mV
	DeltaU float64 // depolarisation per synaptic event, mV
	Tau    float64 // membrane time constant, ms
}

// DefaultLIFParams returns the parameters of the reference figure.
func DefaultLIFParams() LIFParams {
	return LIFParams{URest: -70, UThres: -54, DeltaU: 15, Tau: 20}
}

// LIFTrace is the sampled output of LIFChargeDischarge.
type LIFTrace struct {
	T       []float64
	Voltage []float64
	Synapse []float64
	// SpikeT and SpikeU locate the threshold crossing marker.
	SpikeT float64
	SpikeU float64
}

const (
	lifFirstSynapse  = 100
	lifSecondSynapse = 300
	lifSynapseWidth  = 10
)

// LIFChargeDischarge samples 100 ms at 0.1 ms resolution. Synaptic events
// arrive at 10 ms and 30 ms. The first one decays back toward rest. The
// second one stacks on the residual depolarisation, crosses the threshold
// and resets the membrane to rest on the next sample.
func LIFChargeDischarge(p LIFParams) LIFTrace {
	t := Arange(0, 100, 0.1)
	n := len(t)

	syn := Zeros(n)
	syn = Fill(syn, lifFirstSynapse, lifFirstSynapse+lifSynapseWidth, 1)
	syn = Fill(syn, lifSecondSynapse, lifSecondSynapse+lifSynapseWidth, 1)

	v := Full(n, p.URest)
	if n > lifFirstSynapse {
		decay := ExponentialDecay(t[lifFirstSynapse:], t[lifFirstSynapse], p.URest, p.DeltaU, p.Tau)
		copy(v[lifFirstSynapse:], decay)
	}
	if n > lifSecondSynapse {
		residual := p.DeltaU + (v[lifSecondSynapse] - p.URest)
		decay := ExponentialDecay(t[lifSecondSynapse:], t[lifSecondSynapse], p.URest, residual, p.Tau)
		copy(v[lifSecondSynapse:], decay)
		for i := lifSecondSynapse + 1; i < n; i++ {
			v[i] = p.URest
		}
	}

	trace := LIFTrace{T: t, Voltage: v, Synapse: syn, SpikeU: p.UThres}
	if n >= lifSecondSynapse {
		trace.SpikeT = t[lifSecondSynapse-1]
	}
	return trace
}

// LeakyNoiseParams configures LeakyNoise.
type LeakyNoiseParams struct {
	URest      float64 // resting potential, mV
	Noise      float64 // constant drive (or Gaussian mean) added every step, mV
	R          float64 // membrane resistance, MOhm
	C          float64 // membrane capacitance, nF
	Iterations int

	// Gaussian draws the per-step drive from N(Noise, NoiseSigma) instead of
	// adding the constant Noise.
	Gaussian   bool
	NoiseSigma float64
	Seed       uint64
}

// DefaultLeakyNoiseParams returns the parameters of the reference figure.
func DefaultLeakyNoiseParams() LeakyNoiseParams {
	return LeakyNoiseParams{
		URest:      -70,
		Noise:      0.02,
		R:          65,
		C:          8,
		Iterations: 10000,
		NoiseSigma: 0.02,
		Seed:       1,
	}
}

// LeakyFactor is the per-step retention exp(-1/(R*C)).
func LeakyFactor(r, c float64) float64 {
	return math.Exp(-1 / (r * c))
}

// LeakyNoise integrates v[i+1] = u_rest + (v[i]-u_rest)*k + drive starting at rest.
func LeakyNoise(p LeakyNoiseParams) []float64 {
	if p.Iterations <= 0 {
		return []float64{}
	}
	k := LeakyFactor(p.R, p.C)
	drive := func() float64 { return p.Noise }
	if p.Gaussian {
		dist := distuv.Normal{Mu: p.Noise, Sigma: p.NoiseSigma, Src: rand.NewSource(p.Seed)}
		drive = dist.Rand
	}

	v := Zeros(p.Iterations)
	v[0] = p.URest
	for i := 0; i < p.Iterations-1; i++ {
		v[i+1] = p.URest + (v[i]-p.URest)*k + drive()
	}
	return v
}
