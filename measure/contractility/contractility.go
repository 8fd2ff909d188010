// Package contractility computes whole-window and time-binned contraction
// metrics from a force trace.
//
// One Analyze call runs the full pipeline on a single trace: window
// extraction, baseline estimation, peak detection, boundary and tonic
// classification, kinetics, and metric aggregation. All parameters are
// fixed per run so that results are directly comparable across
// experimental conditions. Traces are fully independent; callers may
// analyze many files in parallel without coordination.
package contractility

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-myograph/myo/contraction"
	"github.com/cwbudde/algo-myograph/myo/detect"
	"github.com/cwbudde/algo-myograph/myo/kinetics"
	"github.com/cwbudde/algo-myograph/myo/trace"
	"github.com/cwbudde/algo-myograph/stats/desc"
)

// Errors returned by Analyze.
var (
	ErrInvalidSampleRate = errors.New("contractility: sample rate must be positive")
	ErrInvalidWindow     = errors.New("contractility: time window must be positive")
	ErrInvalidBin        = errors.New("contractility: bin duration must be positive")
)

// Config holds the fixed analysis parameters for one run.
type Config struct {
	PeakHeight_mN     float64 // minimum peak height above baseline
	PeakProminence_mN float64 // minimum local prominence
	PeakDistance      int     // minimum peak spacing, samples
	PeakWidth         int     // minimum half-prominence width, samples

	SampleRate_Hz    float64
	TimeWindow_sec   float64 // leading portion of each recording analyzed
	BinDuration_sec  float64
	FlagAmplitude_mN float64 // mean amplitude below this flags the file
}

// DefaultConfig returns the standard parameters for intestinal smooth
// muscle recorded at 250 Hz: 150 s analysis window, 10 s bins.
func DefaultConfig() Config {
	return Config{
		PeakHeight_mN:     0.05,
		PeakProminence_mN: 0.05,
		PeakDistance:      250,
		PeakWidth:         75,
		SampleRate_Hz:     250,
		TimeWindow_sec:    150,
		BinDuration_sec:   10,
		FlagAmplitude_mN:  0.03,
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.SampleRate_Hz <= 0 {
		return ErrInvalidSampleRate
	}

	if c.TimeWindow_sec <= 0 {
		return ErrInvalidWindow
	}

	if c.BinDuration_sec <= 0 {
		return ErrInvalidBin
	}

	return nil
}

func (c Config) criteria() detect.Criteria {
	return detect.Criteria{
		Height:     c.PeakHeight_mN,
		Prominence: c.PeakProminence_mN,
		Distance:   c.PeakDistance,
		Width:      c.PeakWidth,
	}
}

// Summary is the whole-window metric record for one trace. Zero detected
// peaks yields a zero-valued summary with only the baseline, duration, and
// quiescent time populated.
//
//nolint:revive
type Summary struct {
	NumContractions int

	MeanAmplitude_mN float64
	AmplitudeCV      float64 // percent

	Frequency_cpm  float64
	MeanPeriod_sec float64
	PeriodCV       float64 // percent

	// MeanDuration_sec is the mean half-maximum width of the detected
	// peaks, the detector's own duration estimate.
	MeanDuration_sec     float64
	MeanWidthHalfMax_sec float64

	MeanRiseTime_sec         float64
	MeanRelaxTime_sec        float64
	MeanRiseRate_mN_per_sec  float64
	MeanRelaxRate_mN_per_sec float64

	MeanTimeToPeak_sec   float64
	MeanTimeFromPeak_sec float64
	MeanRiseFallRatio    float64

	IntegralForce_mN_sec float64
	Baseline_mN          float64
	TotalDuration_sec    float64

	MeanContractionDuration_sec      float64
	MeanIntercontractionInterval_sec float64
	DutyCycle_percent                float64
	TotalContractionTime_sec         float64
	TotalQuiescentTime_sec           float64

	PercentIncompleteRelaxation float64
	NumIncompleteRelaxation     int
	MeanQuiescentTone_mN        float64
	MeanTonicForce_mN           float64
	PhasicTonicRatio            float64 // +Inf without incomplete relaxations, NaN for zero peaks

	ForcePerContraction_mN_sec    float64
	ForcePerMinute_mN_sec_per_min float64
	AmplitudeFrequencyProduct     float64
	ContractionWorkIndex          float64

	// AmplitudeFlag is non-empty when the mean amplitude falls below the
	// configured review threshold. Flagged files are never excluded.
	AmplitudeFlag string
}

// Analysis bundles everything one pipeline run produces. Window, Peaks,
// and Baseline are retained for validation views; Summary and Bins are the
// exported metric records.
type Analysis struct {
	Window   trace.Trace // analysis window, time normalized to start at 0
	Peaks    []detect.Peak
	Baseline float64
	Summary  Summary
	Bins     []BinSummary
}

// Analyze runs the full contractility pipeline on one trace. The trace
// must satisfy the input contract (trace.Validate); zero detected peaks is
// a valid outcome, not an error. The analysis is deterministic: identical
// trace and configuration always produce identical output.
func Analyze(tr trace.Trace, cfg Config) (*Analysis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := tr.Validate(); err != nil {
		return nil, fmt.Errorf("contractility: %w", err)
	}

	window, _ := tr.Window(cfg.TimeWindow_sec)
	peaks, baseline := detect.Detect(window, cfg.criteria())

	a := &Analysis{
		Window:   window,
		Peaks:    peaks,
		Baseline: baseline,
	}

	a.Summary = summarize(window, peaks, baseline, cfg)
	a.Bins = binnedSummaries(window, peaks, baseline, cfg)

	return a, nil
}

func summarize(window trace.Trace, peaks []detect.Peak, baseline float64, cfg Config) Summary {
	n := len(peaks)

	duration := window.Duration()

	s := Summary{
		NumContractions:   n,
		Baseline_mN:       baseline,
		TotalDuration_sec: float64(window.Len()) / cfg.SampleRate_Hz,
	}

	if n == 0 {
		s.TotalQuiescentTime_sec = duration
		s.MeanQuiescentTone_mN = baseline
		s.MeanTonicForce_mN = baseline
		s.PhasicTonicRatio = math.NaN()

		return s
	}

	amplitudes := make([]float64, n)
	peakTimes := make([]float64, n)
	widths := make([]float64, n)
	indices := make([]int, n)

	for i, p := range peaks {
		amplitudes[i] = p.Amplitude
		peakTimes[i] = p.Time
		widths[i] = p.Width / cfg.SampleRate_Hz
		indices[i] = p.Index
	}

	s.MeanAmplitude_mN = desc.Mean(amplitudes)
	s.AmplitudeCV = desc.CV(amplitudes)

	if duration > 0 {
		s.Frequency_cpm = float64(n) / duration * 60
	}

	if n > 1 {
		periods := desc.Diff(peakTimes)
		s.MeanPeriod_sec = desc.Mean(periods)
		s.PeriodCV = desc.CV(periods)
	}

	s.MeanWidthHalfMax_sec = desc.Mean(widths)
	s.MeanDuration_sec = s.MeanWidthHalfMax_sec

	kin := kinetics.Calculate(window, indices, baseline, cfg.SampleRate_Hz)
	s.MeanRiseTime_sec = desc.Mean(kin.RiseTimes)
	s.MeanRelaxTime_sec = desc.Mean(kin.RelaxTimes)
	s.MeanRiseRate_mN_per_sec = desc.Mean(kin.RiseRates)
	s.MeanRelaxRate_mN_per_sec = desc.Mean(kin.RelaxRates)
	s.MeanTimeToPeak_sec = desc.Mean(kin.TimesToPeak)
	s.MeanTimeFromPeak_sec = desc.Mean(kin.TimesFromPeak)
	s.MeanRiseFallRatio = desc.Mean(kin.RiseFallRatios)

	s.IntegralForce_mN_sec = integralAboveBaseline(window, baseline, 0, window.Len())

	cls := contraction.Classify(window, peaks, baseline, cfg.SampleRate_Hz)
	s.MeanContractionDuration_sec = meanDurations(cls.Contractions)
	s.MeanIntercontractionInterval_sec = desc.Mean(cls.Intervals)
	s.DutyCycle_percent = cls.DutyCyclePercent
	s.TotalContractionTime_sec = cls.TotalContractionTime
	s.TotalQuiescentTime_sec = cls.TotalQuiescentTime
	s.PercentIncompleteRelaxation = cls.PercentIncompleteRelaxation
	s.NumIncompleteRelaxation = cls.NumIncompleteRelaxation
	s.MeanQuiescentTone_mN = cls.MeanQuiescentTone
	s.MeanTonicForce_mN = cls.MeanTonicForce
	s.PhasicTonicRatio = cls.PhasicTonicRatio

	s.ForcePerContraction_mN_sec = s.IntegralForce_mN_sec / float64(n)

	if duration > 0 {
		s.ForcePerMinute_mN_sec_per_min = s.IntegralForce_mN_sec / (duration / 60)
	}

	s.AmplitudeFrequencyProduct = s.MeanAmplitude_mN * s.Frequency_cpm
	s.ContractionWorkIndex = s.MeanAmplitude_mN * s.MeanDuration_sec * s.Frequency_cpm

	if s.MeanAmplitude_mN < cfg.FlagAmplitude_mN {
		s.AmplitudeFlag = fmt.Sprintf(
			"LOW_AMP (%.4f mN < %g mN) - Review validation plot",
			s.MeanAmplitude_mN, cfg.FlagAmplitude_mN)
	}

	return s
}

// integralAboveBaseline integrates max(force-baseline, 0) over [from, to)
// using the trapezoidal rule against the trace's time axis.
func integralAboveBaseline(window trace.Trace, baseline float64, from, to int) float64 {
	if to-from < 2 {
		return 0
	}

	above := make([]float64, to-from)
	for i := from; i < to; i++ {
		above[i-from] = math.Max(window.Force[i]-baseline, 0)
	}

	return desc.Trapezoid(above, window.Time[from:to])
}

func meanDurations(bounds []contraction.Bounds) float64 {
	if len(bounds) == 0 {
		return 0
	}

	durations := make([]float64, len(bounds))
	for i, b := range bounds {
		durations[i] = b.Duration
	}

	return desc.Mean(durations)
}
