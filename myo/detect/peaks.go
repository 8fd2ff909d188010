// Package detect locates contraction peaks in a force trace.
//
// Detection applies four criteria simultaneously to the baseline-subtracted
// force signal: an absolute height floor, a local prominence minimum, a
// minimum spacing between accepted peaks, and a minimum width at half
// prominence. The width criterion is the primary noise filter: electrical
// noise spikes are narrow while real contractions are wide.
//
// All parameters are fixed per run so that detection is directly comparable
// across conditions (baseline, drug-treated, WT, KO).
package detect

import (
	"sort"

	"github.com/cwbudde/algo-myograph/myo/trace"
)

// widthRelHeight places the width measurement at half of each peak's
// prominence above its base.
const widthRelHeight = 0.5

// Criteria holds the fixed peak detection thresholds.
type Criteria struct {
	Height     float64 // minimum height above baseline, mN
	Prominence float64 // minimum local prominence, mN
	Distance   int     // minimum spacing between accepted peaks, samples
	Width      int     // minimum width at half prominence, samples
}

// DefaultCriteria returns the standard thresholds for intestinal smooth
// muscle recorded at 250 Hz.
func DefaultCriteria() Criteria {
	return Criteria{
		Height:     0.05,
		Prominence: 0.05,
		Distance:   250, // 1.0 s at 250 Hz
		Width:      75,  // 0.3 s at 250 Hz
	}
}

// Peak is one detected contraction peak. Index addresses the full trace
// arrays; Width is the half-prominence width in samples (interpolated).
type Peak struct {
	Index      int
	Time       float64
	Amplitude  float64 // force[Index] - baseline, mN
	Prominence float64
	Width      float64
}

// Detect estimates the baseline of the trace and returns all peaks of the
// baseline-subtracted force that satisfy every criterion. Zero peaks is a
// valid result; detection never fails.
func Detect(tr trace.Trace, crit Criteria) ([]Peak, float64) {
	baseline := Baseline(tr.Force)

	adjusted := make([]float64, len(tr.Force))
	for i, v := range tr.Force {
		adjusted[i] = v - baseline
	}

	indices, prominences, widths := findPeaks(adjusted, crit)

	peaks := make([]Peak, len(indices))
	for i, idx := range indices {
		peaks[i] = Peak{
			Index:      idx,
			Time:       tr.Time[idx],
			Amplitude:  tr.Force[idx] - baseline,
			Prominence: prominences[i],
			Width:      widths[i],
		}
	}

	return peaks, baseline
}

// findPeaks applies the height, distance, prominence, and width criteria
// in that order, mirroring the filter sequence of the reference detector.
func findPeaks(x []float64, crit Criteria) (indices []int, prominences, widths []float64) {
	indices = localMaxima(x)

	// Height floor.
	kept := indices[:0]
	for _, idx := range indices {
		if x[idx] >= crit.Height {
			kept = append(kept, idx)
		}
	}

	indices = kept

	// Minimum spacing, pruning lower peaks first.
	if crit.Distance > 1 {
		indices = selectByDistance(x, indices, crit.Distance)
	}

	// Prominence against the nearest higher samples (or signal edges).
	prominences = make([]float64, 0, len(indices))
	leftBases := make([]int, 0, len(indices))
	rightBases := make([]int, 0, len(indices))
	kept = indices[:0]

	for _, idx := range indices {
		prom, lb, rb := prominence(x, idx)
		if prom >= crit.Prominence {
			kept = append(kept, idx)
			prominences = append(prominences, prom)
			leftBases = append(leftBases, lb)
			rightBases = append(rightBases, rb)
		}
	}

	indices = kept

	// Width at half prominence with linear interpolation at the crossings.
	widths = make([]float64, 0, len(indices))
	keptProm := prominences[:0]
	kept = indices[:0]

	for i, idx := range indices {
		w := widthAt(x, idx, prominences[i], leftBases[i], rightBases[i])
		if w >= float64(crit.Width) {
			kept = append(kept, idx)
			keptProm = append(keptProm, prominences[i])
			widths = append(widths, w)
		}
	}

	return kept, keptProm, widths
}

// localMaxima returns the midpoints of all local maxima in x, treating
// flat plateaus as single maxima. The first and last sample can never
// qualify.
func localMaxima(x []float64) []int {
	var midpoints []int

	i := 1
	iMax := len(x) - 1

	for i < iMax {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < iMax && x[ahead] == x[i] {
				ahead++
			}

			if x[ahead] < x[i] {
				left := i
				right := ahead - 1
				midpoints = append(midpoints, (left+right)/2)
				i = ahead
			}
		}

		i++
	}

	return midpoints
}

// selectByDistance keeps a subset of peaks spaced at least distance
// samples apart. Peaks are evaluated in order of decreasing height, so a
// taller peak always survives its smaller neighbors.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	n := len(peaks)
	if n == 0 {
		return peaks
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] < x[peaks[order[b]]]
	})

	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}

	for i := n - 1; i >= 0; i-- {
		j := order[i]
		if !keep[j] {
			continue
		}

		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}

		for k := j + 1; k < n && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := peaks[:0]
	for i, idx := range peaks {
		if keep[i] {
			out = append(out, idx)
		}
	}

	return out
}

// prominence measures how far the peak at idx rises above its surrounding
// valleys. The bases are the lowest samples between the peak and the
// nearest higher sample on each side (or the signal edge).
func prominence(x []float64, idx int) (prom float64, leftBase, rightBase int) {
	peakVal := x[idx]

	leftMin := peakVal
	leftBase = idx

	for i := idx; i >= 0 && x[i] <= peakVal; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
			leftBase = i
		}
	}

	rightMin := peakVal
	rightBase = idx

	for i := idx; i < len(x) && x[i] <= peakVal; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
			rightBase = i
		}
	}

	return peakVal - max(leftMin, rightMin), leftBase, rightBase
}

// widthAt returns the interpolated width in samples of the peak at idx,
// measured at peakVal - prominence*widthRelHeight.
func widthAt(x []float64, idx int, prom float64, leftBase, rightBase int) float64 {
	height := x[idx] - prom*widthRelHeight

	i := idx
	for leftBase < i && height < x[i] {
		i--
	}

	leftIP := float64(i)
	if x[i] < height {
		leftIP += (height - x[i]) / (x[i+1] - x[i])
	}

	i = idx
	for i < rightBase && height < x[i] {
		i++
	}

	rightIP := float64(i)
	if x[i] < height {
		rightIP -= (height - x[i]) / (x[i-1] - x[i])
	}

	return rightIP - leftIP
}
