package detect

import "github.com/cwbudde/algo-myograph/stats/desc"

// baselinePercentile is the percentile of the force distribution used as
// the resting-force estimate. A low percentile is robust to the presence
// of high-force contraction peaks, unlike a mean.
const baselinePercentile = 10

// Baseline estimates the resting force level of a trace as the 10th
// percentile of its force samples. Returns NaN for an empty slice.
func Baseline(force []float64) float64 {
	return desc.Percentile(force, baselinePercentile)
}
