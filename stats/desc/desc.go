// Package desc provides descriptive statistics primitives for analysis of
// physiological trace metrics: mean, population standard deviation,
// coefficient of variation, linear-interpolated percentiles, first
// differences, and trapezoidal integration.
package desc

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of the values.
// Returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	// Use Kahan summation for numerical stability.
	var sum, c float64
	for _, x := range values {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(values))
}

// Std returns the population standard deviation of the values.
// Returns 0 for slices with fewer than one element.
func Std(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	mean := Mean(values)

	var m2 float64
	for _, x := range values {
		d := x - mean
		m2 += d * d
	}

	return math.Sqrt(m2 / float64(n))
}

// CV returns the coefficient of variation in percent: std / mean * 100.
// Returns 0 when the mean is not positive.
func CV(values []float64) float64 {
	mean := Mean(values)
	if mean <= 0 {
		return 0
	}

	return Std(values) / mean * 100
}

// Percentile returns the p-th percentile (0..100) of the values using
// linear interpolation between closest ranks. The input is not modified.
// Returns NaN for an empty slice.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}

	if n == 1 {
		return values[0]
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}

	if p >= 100 {
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)

	if lo+1 >= n {
		return sorted[n-1]
	}

	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Diff returns the first differences values[i+1] - values[i].
// Returns nil for slices with fewer than two elements.
func Diff(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}

	out := make([]float64, len(values)-1)
	for i := range out {
		out[i] = values[i+1] - values[i]
	}

	return out
}

// Trapezoid integrates y over x using the composite trapezoidal rule.
// Both slices must have equal length; returns 0 for fewer than two samples.
func Trapezoid(y, x []float64) float64 {
	n := min(len(y), len(x))
	if n < 2 {
		return 0
	}

	var sum float64
	for i := 1; i < n; i++ {
		sum += 0.5 * (x[i] - x[i-1]) * (y[i] + y[i-1])
	}

	return sum
}
