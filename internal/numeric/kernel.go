package numeric

import "math"

// EPSCKernel evaluates the two-sided exponential learning window at each t:
// -exp(-|t|/tau) before the reference spike, +exp(-|t|/tau) after it, and
// exactly zero at t == 0.
func EPSCKernel(t []float64, tau float64) []float64 {
	out := make([]float64, len(t))
	for i, ti := range t {
		switch {
		case ti < 0:
			out[i] = -math.Exp(-math.Abs(ti) / tau)
		case ti > 0:
			out[i] = math.Exp(-math.Abs(ti) / tau)
		}
	}
	return out
}

// EPSCWindow returns the 1 ms grid over [-50, 50) and the window sampled on it.
func EPSCWindow(tau float64) (t, amplitude []float64) {
	t = Arange(-50, 50, 1)
	return t, EPSCKernel(t, tau)
}

// BiexpKernel evaluates a double-exponential synaptic current,
// exp(-t/tauDecay) - exp(-t/tauRise), scaled so its peak is 1.
// Values for t < 0 are zero. tauRise must be smaller than tauDecay.
func BiexpKernel(t []float64, tauRise, tauDecay float64) []float64 {
	out := make([]float64, len(t))
	if tauRise <= 0 || tauDecay <= tauRise {
		return out
	}
	// time of the peak, from d/dt = 0
	tPeak := tauRise * tauDecay / (tauDecay - tauRise) * math.Log(tauDecay/tauRise)
	norm := math.Exp(-tPeak/tauDecay) - math.Exp(-tPeak/tauRise)
	for i, ti := range t {
		if ti < 0 {
			continue
		}
		out[i] = (math.Exp(-ti/tauDecay) - math.Exp(-ti/tauRise)) / norm
	}
	return out
}

// ExponentialDecay returns base + amp*exp(-(t-t0)/tau) for every t.
func ExponentialDecay(t []float64, t0, base, amp, tau float64) []float64 {
	out := make([]float64, len(t))
	for i, ti := range t {
		out[i] = base + amp*math.Exp(-(ti-t0)/tau)
	}
	return out
}
