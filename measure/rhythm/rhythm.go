// Package rhythm estimates the dominant contraction rhythm of a force
// trace from its magnitude spectrum.
//
// Periodic smooth muscle activity concentrates spectral energy at the
// contraction frequency. The estimate complements time-domain peak
// counting: it is insensitive to individual missed or double-counted
// events, and agreement between the two is a useful consistency check
// during validation.
package rhythm

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Physiological band searched for the dominant rhythm. Intestinal slow
// waves sit well below 1 Hz; anything above 2 Hz is noise or mains ripple.
const (
	defaultMinFreqHz = 0.01
	defaultMaxFreqHz = 2.0
)

// Config holds spectral estimation parameters.
type Config struct {
	SampleRate_Hz float64
	MinFreq_Hz    float64 // lower edge of the search band
	MaxFreq_Hz    float64 // upper edge of the search band
}

// DefaultConfig returns the standard band for intestinal recordings at
// 250 Hz.
func DefaultConfig() Config {
	return Config{
		SampleRate_Hz: 250,
		MinFreq_Hz:    defaultMinFreqHz,
		MaxFreq_Hz:    defaultMaxFreqHz,
	}
}

// Result holds the dominant-rhythm estimate.
//
//nolint:revive
type Result struct {
	DominantFreq_Hz  float64
	DominantFreq_cpm float64
	PeakMagnitude    float64 // linear magnitude at the dominant bin
	BandEnergy       float64 // sum of squared magnitudes inside the band
	FFTSize          int
}

// Analyze estimates the dominant rhythm of the baseline-subtracted force
// signal. The signal is mean-removed, Hann windowed, and transformed; the
// dominant bin is the largest magnitude inside the configured band.
// Returns a zero Result for signals too short to resolve the band.
func Analyze(force []float64, baseline float64, cfg Config) Result {
	cfg = normalizeConfig(cfg)

	if len(force) < 2 {
		return Result{}
	}

	fftSize := nextPowerOf2(len(force))
	if fftSize <= 1 {
		return Result{}
	}

	adjusted := make([]float64, len(force))
	for i, v := range force {
		adjusted[i] = v - baseline
	}

	// Remove the residual mean so DC leakage cannot mask the band.
	mean := 0.0
	for _, v := range adjusted {
		mean += v
	}

	mean /= float64(len(adjusted))

	for i := range adjusted {
		adjusted[i] -= mean
	}

	vecmath.MulBlockInPlace(adjusted, hann(len(adjusted)))

	inData := make([]complex128, fftSize)
	for i, v := range adjusted {
		inData[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, inData); err != nil {
		return Result{}
	}

	binCount := fftSize/2 + 1

	re := make([]float64, binCount)
	im := make([]float64, binCount)

	for i := range binCount {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	magnitude := make([]float64, binCount)
	vecmath.Magnitude(magnitude, re, im)

	binWidth := cfg.SampleRate_Hz / float64(fftSize)

	lo := int(math.Ceil(cfg.MinFreq_Hz / binWidth))
	hi := int(math.Floor(cfg.MaxFreq_Hz / binWidth))

	lo = max(lo, 1)
	hi = min(hi, binCount-1)

	if lo > hi {
		return Result{FFTSize: fftSize}
	}

	res := Result{FFTSize: fftSize}

	best := lo
	for i := lo; i <= hi; i++ {
		res.BandEnergy += magnitude[i] * magnitude[i]

		if magnitude[i] > magnitude[best] {
			best = i
		}
	}

	res.DominantFreq_Hz = float64(best) * binWidth
	res.DominantFreq_cpm = res.DominantFreq_Hz * 60
	res.PeakMagnitude = magnitude[best]

	return res
}

func normalizeConfig(cfg Config) Config {
	if cfg.SampleRate_Hz <= 0 {
		cfg.SampleRate_Hz = 250
	}

	if cfg.MinFreq_Hz <= 0 {
		cfg.MinFreq_Hz = defaultMinFreqHz
	}

	if cfg.MaxFreq_Hz <= cfg.MinFreq_Hz {
		cfg.MaxFreq_Hz = defaultMaxFreqHz
	}

	return cfg
}

// hann returns symmetric Hann window coefficients.
func hann(n int) []float64 {
	coeffs := make([]float64, n)
	if n == 1 {
		coeffs[0] = 1
		return coeffs
	}

	for i := range coeffs {
		coeffs[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}

	return coeffs
}

func nextPowerOf2(n int) int {
	if n <= 0 {
		return 0
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
