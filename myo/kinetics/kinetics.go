// Package kinetics measures rise and relaxation timing of contractions.
//
// Rise time spans the 10% to 90% amplitude crossings on the ascending
// phase, relaxation time the 90% to 10% crossings on the descending phase.
// Every crossing is the FIRST qualifying sample in its search window;
// selecting the last qualifying sample silently widens the measured
// interval toward the window edge and inflates the result (historically by
// several-fold on the relaxation side).
//
// The calculator accepts any ordered subset of a trace's peak indices but
// always indexes the full trace arrays. Feeding it indices rebased onto a
// truncated slice corrupts every measurement.
package kinetics

import (
	"github.com/cwbudde/algo-myograph/myo/trace"
)

const (
	// Crossing fractions of the peak amplitude.
	lowerFraction = 0.1
	upperFraction = 0.9

	// excursionFraction of the amplitude traversed between the 10% and
	// 90% crossings; rates are excursionFraction*amp / time.
	excursionFraction = 0.8

	// Search window lengths around each peak, seconds.
	riseSearchSec  = 1.0
	relaxSearchSec = 2.0

	// minSearchSamples is the smallest search slice worth scanning.
	minSearchSamples = 10
)

// Result collects kinetics samples over a set of peaks. Slices are
// independent: a peak contributes to each only when the relevant crossings
// exist inside its search windows, so lengths may differ.
type Result struct {
	RiseTimes  []float64 // 10% -> 90% ascending, s
	RelaxTimes []float64 // 90% -> 10% descending, s
	RiseRates  []float64 // mN/s
	RelaxRates []float64 // mN/s

	TimesToPeak    []float64 // 10% onset -> peak maximum, s
	TimesFromPeak  []float64 // peak maximum -> 10% return, s
	RiseFallRatios []float64 // TimeToPeak / TimeFromPeak; 1 = symmetric
}

// Calculate measures kinetics for every peak index with positive amplitude
// above the baseline. Indices must address the full trace arrays and may
// be any subset of the detected peaks (e.g. those inside one time bin).
func Calculate(tr trace.Trace, peakIndices []int, baseline, sampleRate float64) Result {
	force := tr.Force
	time := tr.Time

	riseWindow := int(riseSearchSec * sampleRate)
	relaxWindow := int(relaxSearchSec * sampleRate)

	var res Result

	for _, peak := range peakIndices {
		if peak < 0 || peak >= len(force) {
			continue
		}

		amp := force[peak] - baseline
		if amp <= 0 {
			continue
		}

		lower := baseline + lowerFraction*amp
		upper := baseline + upperFraction*amp

		onset := riseKinetics(&res, force, time, peak, riseWindow, amp, lower, upper)
		offset := relaxKinetics(&res, force, time, peak, relaxWindow, amp, lower, upper)

		// Waveform shape needs both crossings with positive intervals.
		if onset < 0 {
			continue
		}

		ttp := time[peak] - time[onset]
		if ttp <= 0 {
			continue
		}

		res.TimesToPeak = append(res.TimesToPeak, ttp)

		if offset < 0 {
			continue
		}

		tfp := time[offset] - time[peak]
		if tfp <= 0 {
			continue
		}

		res.TimesFromPeak = append(res.TimesFromPeak, tfp)
		res.RiseFallRatios = append(res.RiseFallRatios, ttp/tfp)
	}

	return res
}

// riseKinetics scans the window preceding the peak for the first samples
// reaching the 10% and 90% levels. Returns the onset index, or -1 when no
// 10% crossing exists.
func riseKinetics(res *Result, force, time []float64, peak, window int, amp, lower, upper float64) int {
	searchStart := max(peak-window, 0)
	if peak-searchStart <= minSearchSamples {
		return -1
	}

	onset := -1
	idx90 := -1

	for i := searchStart; i < peak; i++ {
		if onset < 0 && force[i] >= lower {
			onset = i
		}

		if force[i] >= upper {
			idx90 = i
			break
		}
	}

	if onset < 0 {
		return -1
	}

	if idx90 >= 0 && onset < idx90 {
		rt := time[idx90] - time[onset]
		if rt > 0 {
			res.RiseTimes = append(res.RiseTimes, rt)
			res.RiseRates = append(res.RiseRates, excursionFraction*amp/rt)
		}
	}

	return onset
}

// relaxKinetics scans the window following the peak. The offset is the
// first sample at or below the 10% level occurring AFTER the first 90%
// crossing; when no such later sample exists it falls back to the first
// 10% crossing anywhere in the window. Returns the offset index, or -1.
func relaxKinetics(res *Result, force, time []float64, peak, window int, amp, lower, upper float64) int {
	searchEnd := min(peak+window, len(force))
	if searchEnd-peak <= minSearchSamples {
		return -1
	}

	idx90 := -1
	first10 := -1
	offset := -1

	for i := peak; i < searchEnd; i++ {
		if idx90 < 0 && force[i] <= upper {
			idx90 = i
		}

		if force[i] <= lower {
			if first10 < 0 {
				first10 = i
			}

			if idx90 >= 0 && i > idx90 {
				offset = i
				break
			}
		}
	}

	if idx90 < 0 || first10 < 0 {
		return -1
	}

	if offset < 0 {
		// No 10% crossing after the 90% crossing inside the window.
		offset = first10
	}

	if idx90 < offset {
		rxt := time[offset] - time[idx90]
		if rxt > 0 {
			res.RelaxTimes = append(res.RelaxTimes, rxt)
			res.RelaxRates = append(res.RelaxRates, excursionFraction*amp/rxt)
		}
	}

	return offset
}
