package numeric

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Convolve returns the discrete convolution of x with kernel, trimmed to
// len(x) and centred the way numpy's mode="same" centres it.
func Convolve(x, kernel []float64) []float64 {
	n, m := len(x), len(kernel)
	out := make([]float64, n)
	if n == 0 || m == 0 {
		return out
	}
	// offset into the full (n+m-1) convolution
	offset := (m - 1) / 2
	for i := range out {
		full := i + offset
		var acc float64
		for j := 0; j < m; j++ {
			k := full - j
			if k < 0 || k >= n {
				continue
			}
			acc += x[k] * kernel[j]
		}
		out[i] = acc
	}
	return out
}

// BoxKernel returns a moving-average kernel of width w.
func BoxKernel(w int) []float64 {
	if w < 1 {
		w = 1
	}
	return Full(w, 1/float64(w))
}

// GaussianKernel returns a Gaussian kernel of standard deviation sigma
// sampled over [-radius, radius] and normalised to sum to 1.
func GaussianKernel(sigma float64, radius int) []float64 {
	if radius < 0 {
		radius = 0
	}
	k := make([]float64, 2*radius+1)
	if sigma <= 0 {
		k[radius] = 1
		return k
	}
	for i := range k {
		x := float64(i - radius)
		k[i] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// Smooth applies a moving average of width w. Widths below 2 return a copy.
func Smooth(x []float64, w int) []float64 {
	if w < 2 {
		return Scale(x, 1)
	}
	return Convolve(x, BoxKernel(w))
}

// SmoothGaussian applies a Gaussian window spanning w samples with sigma
// w/4. Widths below 2 return a copy.
func SmoothGaussian(x []float64, w int) []float64 {
	if w < 2 {
		return Scale(x, 1)
	}
	return Convolve(x, GaussianKernel(float64(w)/4, w/2))
}
