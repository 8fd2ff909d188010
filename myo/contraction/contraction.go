// Package contraction derives per-contraction boundaries and tonic state
// from detected peaks.
//
// A contraction's start and end are the crossings of baseline plus 10% of
// the peak amplitude, located inside bounded search windows around the
// peak. When a window runs past the trace, the boundary clamps to the
// nearest valid index. A contraction whose successor starts before it has
// ended is flagged as incomplete relaxation (tonic overlap); the negative
// interval is clamped to zero for duration accounting.
package contraction

import (
	"math"

	"github.com/cwbudde/algo-myograph/myo/detect"
	"github.com/cwbudde/algo-myograph/myo/trace"
	"github.com/cwbudde/algo-myograph/stats/desc"
)

const (
	// boundaryFraction of the peak amplitude defines start/end crossings.
	boundaryFraction = 0.1

	// Search window lengths around each peak, seconds.
	startSearchSec = 1.0
	endSearchSec   = 1.5

	// minSearchSamples is the smallest search slice worth scanning;
	// shorter slices fall back to the window boundary.
	minSearchSamples = 10
)

// Bounds is one contraction derived from a peak. Start and End are
// absolute indices into the full trace arrays.
type Bounds struct {
	Start    int
	End      int
	Duration float64 // seconds

	// IncompleteRelaxation marks a contraction whose successor starts
	// before this one's measured end.
	IncompleteRelaxation bool
}

// Result holds per-contraction bounds and the tonic/phasic summary.
type Result struct {
	Contractions []Bounds
	Intervals    []float64 // inter-contraction gaps, clamped to >= 0

	TotalContractionTime float64
	TotalQuiescentTime   float64
	DutyCyclePercent     float64

	NumIncompleteRelaxation     int
	PercentIncompleteRelaxation float64

	// MeanQuiescentTone is the mean force over fully relaxed gaps;
	// MeanTonicForce the mean over overlapping (incompletely relaxed)
	// stretches. Both default to the baseline when no such gap exists.
	MeanQuiescentTone float64
	MeanTonicForce    float64

	// PhasicTonicRatio is complete / incomplete relaxation counts:
	// +Inf when every contraction relaxes fully, NaN for zero peaks.
	PhasicTonicRatio float64
}

// Classify derives contraction boundaries and tonic metrics for the given
// peaks. Peak indices must address the full trace arrays; the peaks may be
// any ordered subset of a trace's detected peaks (e.g. one time bin).
// Zero peaks yields a zero-valued result rather than an error.
func Classify(tr trace.Trace, peaks []detect.Peak, baseline, sampleRate float64) Result {
	force := tr.Force
	time := tr.Time

	if len(peaks) == 0 {
		var total float64
		if len(time) > 1 {
			total = time[len(time)-1] - time[0]
		}

		return Result{
			TotalQuiescentTime: total,
			MeanQuiescentTone:  baseline,
			MeanTonicForce:     baseline,
			PhasicTonicRatio:   math.NaN(),
		}
	}

	startWindow := int(startSearchSec * sampleRate)
	endWindow := int(endSearchSec * sampleRate)

	bounds := make([]Bounds, len(peaks))

	for i, p := range peaks {
		threshold := baseline + boundaryFraction*p.Amplitude

		searchStart := max(p.Index-startWindow, 0)
		start := searchStart

		if p.Index-searchStart > minSearchSamples {
			for j := searchStart; j < p.Index; j++ {
				if force[j] >= threshold {
					start = j
					break
				}
			}
		}

		searchEnd := min(p.Index+endWindow, len(force))
		end := searchEnd - 1

		if searchEnd-p.Index > minSearchSamples {
			for j := p.Index; j < searchEnd; j++ {
				if force[j] <= threshold {
					end = j
					break
				}
			}
		}

		bounds[i] = Bounds{
			Start:    start,
			End:      end,
			Duration: time[end] - time[start],
		}
	}

	// Inter-contraction gaps; a negative gap means the next contraction
	// started before this one ended.
	intervals := make([]float64, 0, len(bounds)-1)
	incomplete := 0

	for i := 0; i+1 < len(bounds); i++ {
		gap := time[bounds[i+1].Start] - time[bounds[i].End]
		if gap < 0 {
			gap = 0
			bounds[i].IncompleteRelaxation = true
			incomplete++
		}

		intervals = append(intervals, gap)
	}

	// One flag per contraction: the final one can never be evaluated and
	// counts as complete, matching the reference implementation.
	flagged := 0
	if len(bounds) > 1 {
		flagged = len(bounds)
	}

	totalRecording := time[len(time)-1] - time[0]

	var totalContraction float64
	for _, b := range bounds {
		totalContraction += b.Duration
	}

	res := Result{
		Contractions:            bounds,
		Intervals:               intervals,
		TotalContractionTime:    totalContraction,
		TotalQuiescentTime:      math.Max(0, totalRecording-totalContraction),
		NumIncompleteRelaxation: incomplete,
	}

	if totalRecording > 0 {
		res.DutyCyclePercent = totalContraction / totalRecording * 100
	}

	if flagged > 0 {
		res.PercentIncompleteRelaxation = float64(incomplete) / float64(flagged) * 100
	}

	res.MeanQuiescentTone = meanOverGaps(force, bounds, false, baseline)
	res.MeanTonicForce = meanOverGaps(force, bounds, true, baseline)

	if incomplete > 0 {
		res.PhasicTonicRatio = float64(flagged-incomplete) / float64(incomplete)
	} else {
		res.PhasicTonicRatio = math.Inf(1)
	}

	return res
}

// meanOverGaps averages the force over inter-contraction stretches that
// match the wanted relaxation state. For complete gaps the stretch runs
// from one end to the next start; for incomplete relaxation the two
// overlap and the stretch runs from the next start to the previous end.
// Returns the baseline when no matching stretch exists.
func meanOverGaps(force []float64, bounds []Bounds, incomplete bool, baseline float64) float64 {
	var samples []float64

	for i := 0; i+1 < len(bounds); i++ {
		if bounds[i].IncompleteRelaxation != incomplete {
			continue
		}

		e := bounds[i].End
		s := bounds[i+1].Start

		if incomplete {
			if s < e {
				samples = append(samples, force[s:e]...)
			}
		} else if s > e {
			samples = append(samples, force[e:s]...)
		}
	}

	if len(samples) == 0 {
		return baseline
	}

	return desc.Mean(samples)
}
