// Package trace defines the force-vs-time signal model shared by all
// contractility analysis components.
//
// A Trace pairs a strictly increasing time axis (seconds) with a force
// channel (mN), assumed uniformly sampled. All downstream components index
// into the trace's full arrays using one absolute index space; bin-level
// views never reslice into local arrays.
package trace

import "errors"

// MinSamples is the minimum number of samples required for analysis.
// Shorter recordings cannot support the fixed search windows used by the
// boundary and kinetics calculators.
const MinSamples = 100

// Errors returned by trace validation.
var (
	ErrEmpty          = errors.New("trace: empty signal")
	ErrLengthMismatch = errors.New("trace: time and force lengths differ")
	ErrTooShort       = errors.New("trace: fewer samples than required minimum")
	ErrNonMonotonic   = errors.New("trace: time axis is not strictly increasing")
)

// Trace is one force recording. Time is in seconds, Force in mN.
type Trace struct {
	Time  []float64
	Force []float64
}

// Len returns the number of samples.
func (t Trace) Len() int { return len(t.Time) }

// Duration returns time[last] - time[first], or 0 for traces with fewer
// than two samples.
func (t Trace) Duration() float64 {
	if len(t.Time) < 2 {
		return 0
	}

	return t.Time[len(t.Time)-1] - t.Time[0]
}

// Validate checks the trace against the input contract: equal channel
// lengths, at least MinSamples samples, strictly increasing time.
func (t Trace) Validate() error {
	if len(t.Time) == 0 {
		return ErrEmpty
	}

	if len(t.Time) != len(t.Force) {
		return ErrLengthMismatch
	}

	if len(t.Time) < MinSamples {
		return ErrTooShort
	}

	for i := 1; i < len(t.Time); i++ {
		if t.Time[i] <= t.Time[i-1] {
			return ErrNonMonotonic
		}
	}

	return nil
}

// Window returns the first seconds of the trace with the time axis
// normalized to start at zero, along with the total duration of the
// original recording. If the recording is not longer than the requested
// window, the whole normalized trace is returned.
//
// The cut index is the first sample whose normalized time reaches the
// window length, so the returned slice covers [0, seconds).
func (t Trace) Window(seconds float64) (Trace, float64) {
	n := len(t.Time)
	if n == 0 {
		return Trace{}, 0
	}

	normalized := make([]float64, n)
	for i, v := range t.Time {
		normalized[i] = v - t.Time[0]
	}

	total := normalized[n-1]

	out := Trace{Time: normalized, Force: t.Force}
	if total <= seconds {
		return out, total
	}

	end := searchSorted(normalized, seconds)

	return Trace{Time: normalized[:end], Force: t.Force[:end]}, total
}

// searchSorted returns the first index at which v could be inserted into
// the sorted slice while keeping it sorted (left insertion point).
func searchSorted(sorted []float64, v float64) int {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}
