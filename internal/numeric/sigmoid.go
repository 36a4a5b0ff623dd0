package numeric

import "math"

// SigmoidParams configures the spiking-probability sigmoid.
type SigmoidParams struct {
	NaturalPeriod float64 // ms a neuron at URef takes to reach 50% spiking probability
	TimeStep      float64 // ms per trial
	URest         float64 // lower edge of the effective range, mV
	UThres        float64 // upper edge of the effective range, mV
	URef          float64 // reference voltage, mV
	X0            float64 // sigmoid midpoint, mV
}

// DefaultSigmoidParams returns the parameters of the reference figure.
func DefaultSigmoidParams() SigmoidParams {
	return SigmoidParams{
		NaturalPeriod: 1000,
		TimeStep:      1,
		URest:         -70,
		UThres:        -54,
		URef:          -62.5,
		X0:            -54,
	}
}

// SigmoidCurve is the result of SigmoidFit.
type SigmoidCurve struct {
	// P is the per-step spiking probability at URef.
	P float64
	// NormX0 is the midpoint normalised into [URest, UThres].
	NormX0 float64
	// K is the steepness solving S(URef) = P.
	K float64
	U []float64
	S []float64
}

// SpikeProbability returns the per-trial probability that gives a 50% chance
// of at least one spike within naturalPeriod.
func SpikeProbability(naturalPeriod, timeStep float64) float64 {
	trials := naturalPeriod / timeStep
	return 1 - math.Pow(1-0.5, 1/trials)
}

// SigmoidFit solves the steepness of a logistic curve that passes through
// SpikeProbability at URef, then samples it from URest-1 to UThres+10 mV.
func SigmoidFit(p SigmoidParams) SigmoidCurve {
	prob := SpikeProbability(p.NaturalPeriod, p.TimeStep)
	u := Arange(p.URest-1, p.UThres+10, 0.1)

	span := p.UThres - p.URest
	normalize := func(x float64) float64 { return (x - p.URest) / span }
	normX0 := normalize(p.X0)
	normURef := normalize(p.URef)
	k := (math.Log(prob) - math.Log(1-prob)) / (normURef - normX0)

	s := make([]float64, len(u))
	for i, ui := range u {
		s[i] = Logistic(normalize(ui), k, normX0)
	}
	return SigmoidCurve{P: prob, NormX0: normX0, K: k, U: u, S: s}
}

// Logistic returns 1 / (1 + exp(-k*(x-x0))).
func Logistic(x, k, x0 float64) float64 {
	return 1 / (1 + math.Exp(-k*(x-x0)))
}
