package contractility

import (
	"github.com/cwbudde/algo-myograph/myo/contraction"
	"github.com/cwbudde/algo-myograph/myo/detect"
	"github.com/cwbudde/algo-myograph/myo/kinetics"
	"github.com/cwbudde/algo-myograph/myo/trace"
	"github.com/cwbudde/algo-myograph/stats/desc"
)

// BinSummary is the metric record for one fixed-duration time bin. A bin
// with zero peaks is emitted as an explicit zero-valued record; only bins
// starting at or beyond the trace's actual duration are skipped.
//
//nolint:revive
type BinSummary struct {
	Bin           int // 1-based bin number
	TimeStart_sec float64
	TimeEnd_sec   float64

	Contractions  int
	Frequency_cpm float64

	MeanAmplitude_mN float64
	MeanPeriod_sec   float64
	MeanDuration_sec float64

	MeanRiseTime_sec         float64
	MeanRelaxTime_sec        float64
	MeanRiseRate_mN_per_sec  float64
	MeanRelaxRate_mN_per_sec float64

	MeanTimeToPeak_sec   float64
	MeanTimeFromPeak_sec float64
	MeanRiseFallRatio    float64

	IntegralForce_mN_s float64

	MeanContractionDuration_sec      float64
	MeanIntercontractionInterval_sec float64
	DutyCycle_percent                float64
	TotalContractionTime_sec         float64
	PercentIncompleteRelaxation      float64
	NumIncompleteRelaxation          int
}

// binnedSummaries computes the per-bin metric family over the analysis
// window. Peaks stay addressed by their absolute full-trace indices;
// boundary and kinetics calculations for a bin's peaks run against the
// complete window arrays, never against a bin-local slice.
func binnedSummaries(window trace.Trace, peaks []detect.Peak, baseline float64, cfg Config) []BinSummary {
	nBins := int(cfg.TimeWindow_sec / cfg.BinDuration_sec)
	actual := window.Duration()

	out := make([]BinSummary, 0, nBins)

	for bin := range nBins {
		start := float64(bin) * cfg.BinDuration_sec
		end := start + cfg.BinDuration_sec

		if start >= actual {
			continue
		}

		from, to := sampleRange(window.Time, start, end)
		if to <= from {
			continue
		}

		inBin := peaksInRange(peaks, start, end)

		b := BinSummary{
			Bin:           bin + 1,
			TimeStart_sec: start,
			TimeEnd_sec:   end,
			Contractions:  len(inBin),
			Frequency_cpm: float64(len(inBin)) / cfg.BinDuration_sec * 60,
		}

		if len(inBin) > 0 {
			fillBinMetrics(&b, window, inBin, baseline, cfg)
		}

		b.IntegralForce_mN_s = integralAboveBaseline(window, baseline, from, to)

		out = append(out, b)
	}

	return out
}

func fillBinMetrics(b *BinSummary, window trace.Trace, inBin []detect.Peak, baseline float64, cfg Config) {
	amplitudes := make([]float64, len(inBin))
	peakTimes := make([]float64, len(inBin))
	widths := make([]float64, len(inBin))
	indices := make([]int, len(inBin))

	for i, p := range inBin {
		amplitudes[i] = p.Amplitude
		peakTimes[i] = p.Time
		widths[i] = p.Width / cfg.SampleRate_Hz
		indices[i] = p.Index
	}

	b.MeanAmplitude_mN = desc.Mean(amplitudes)

	if len(inBin) > 1 {
		b.MeanPeriod_sec = desc.Mean(desc.Diff(peakTimes))
	}

	b.MeanDuration_sec = desc.Mean(widths)

	kin := kinetics.Calculate(window, indices, baseline, cfg.SampleRate_Hz)
	b.MeanRiseTime_sec = desc.Mean(kin.RiseTimes)
	b.MeanRelaxTime_sec = desc.Mean(kin.RelaxTimes)
	b.MeanRiseRate_mN_per_sec = desc.Mean(kin.RiseRates)
	b.MeanRelaxRate_mN_per_sec = desc.Mean(kin.RelaxRates)
	b.MeanTimeToPeak_sec = desc.Mean(kin.TimesToPeak)
	b.MeanTimeFromPeak_sec = desc.Mean(kin.TimesFromPeak)
	b.MeanRiseFallRatio = desc.Mean(kin.RiseFallRatios)

	cls := contraction.Classify(window, inBin, baseline, cfg.SampleRate_Hz)
	b.MeanContractionDuration_sec = meanDurations(cls.Contractions)
	b.MeanIntercontractionInterval_sec = desc.Mean(cls.Intervals)
	b.DutyCycle_percent = cls.DutyCyclePercent
	b.TotalContractionTime_sec = cls.TotalContractionTime
	b.PercentIncompleteRelaxation = cls.PercentIncompleteRelaxation
	b.NumIncompleteRelaxation = cls.NumIncompleteRelaxation
}

// sampleRange returns the half-open index range [from, to) of samples
// whose time falls inside [start, end).
func sampleRange(time []float64, start, end float64) (from, to int) {
	from = len(time)

	for i, t := range time {
		if t >= start {
			from = i
			break
		}
	}

	to = from
	for to < len(time) && time[to] < end {
		to++
	}

	return from, to
}

// peaksInRange returns the peaks whose time falls inside [start, end),
// preserving their absolute indices.
func peaksInRange(peaks []detect.Peak, start, end float64) []detect.Peak {
	var out []detect.Peak

	for _, p := range peaks {
		if p.Time >= start && p.Time < end {
			out = append(out, p)
		}
	}

	return out
}
