package numeric

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics printed alongside a histogram.
type Summary struct {
	Mean   float64
	Std    float64 // population standard deviation
	Median float64
}

// Summarize returns the mean, population standard deviation and median of xs.
func Summarize(xs []float64) (Summary, error) {
	n := len(xs)
	if n == 0 {
		return Summary{}, fmt.Errorf("summarize: %w", ErrEmpty)
	}
	mean := stat.Mean(xs, nil)
	var variance float64
	if n > 1 {
		// stat.Variance is the unbiased estimator; rescale to ddof=0.
		variance = stat.Variance(xs, nil) * float64(n-1) / float64(n)
	}
	return Summary{Mean: mean, Std: math.Sqrt(variance), Median: Median(xs)}, nil
}

// Median returns the middle value of xs, averaging the two middles when the
// length is even. It returns NaN for an empty slice.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MeanCovariance returns the column means and the sample covariance matrix
// (normalised by N-1) of observations given as equal-length columns.
func MeanCovariance(cols ...[]float64) ([]float64, *mat.SymDense, error) {
	if len(cols) == 0 || len(cols[0]) == 0 {
		return nil, nil, fmt.Errorf("covariance: %w", ErrEmpty)
	}
	rows := len(cols[0])
	for i, c := range cols {
		if len(c) != rows {
			return nil, nil, fmt.Errorf("covariance column %d has %d rows, want %d: %w", i, len(c), rows, ErrShapeMismatch)
		}
	}
	if rows < 2 {
		return nil, nil, fmt.Errorf("covariance needs at least 2 observations, got %d", rows)
	}

	data := mat.NewDense(rows, len(cols), nil)
	means := make([]float64, len(cols))
	for j, c := range cols {
		data.SetCol(j, c)
		means[j] = stat.Mean(c, nil)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)
	return means, &cov, nil
}
