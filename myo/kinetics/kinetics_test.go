package kinetics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-myograph/myo/trace"
)

const rate = 250.0

// rampPulse builds a trace with a single trapezoid pulse: linear rise over
// riseSec to amplitude, hold for holdSec, linear fall over fallSec back to
// zero, starting at startSec. Returns the trace and the apex sample index
// (plateau midpoint, as the detector reports it).
func rampPulse(totalSec, startSec, riseSec, holdSec, fallSec, amplitude float64) (trace.Trace, int) {
	n := int(totalSec * rate)
	tm := make([]float64, n)
	f := make([]float64, n)

	riseEnd := startSec + riseSec
	holdEnd := riseEnd + holdSec
	fallEnd := holdEnd + fallSec

	for i := range tm {
		t := float64(i) / rate
		tm[i] = t

		switch {
		case t >= startSec && t < riseEnd:
			f[i] = amplitude * (t - startSec) / riseSec
		case t >= riseEnd && t <= holdEnd:
			f[i] = amplitude
		case t > holdEnd && t < fallEnd:
			f[i] = amplitude * (1 - (t-holdEnd)/fallSec)
		}
	}

	peak := int((riseEnd + holdEnd) / 2 * rate)

	return trace.Trace{Time: tm, Force: f}, peak
}

func TestCalculate_TrapezoidRampTimes(t *testing.T) {
	// 0.5 s linear rise to 0.10 mN, short hold, 1.0 s linear fall. The
	// 10-90% crossings cover 80% of each ramp: rise 0.4 s, relax 0.8 s.
	tr, peak := rampPulse(10, 4, 0.5, 0.2, 1.0, 0.10)

	res := Calculate(tr, []int{peak}, 0, rate)

	if len(res.RiseTimes) != 1 || len(res.RelaxTimes) != 1 {
		t.Fatalf("got %d rise / %d relax samples, want 1 each",
			len(res.RiseTimes), len(res.RelaxTimes))
	}

	if math.Abs(res.RiseTimes[0]-0.4) > 0.02 {
		t.Errorf("rise time = %g s, want ~0.4 s", res.RiseTimes[0])
	}

	if math.Abs(res.RelaxTimes[0]-0.8) > 0.02 {
		t.Errorf("relax time = %g s, want ~0.8 s", res.RelaxTimes[0])
	}

	// Rates cover 80% of the 0.10 mN excursion.
	if math.Abs(res.RiseRates[0]-0.08/res.RiseTimes[0]) > 1e-9 {
		t.Errorf("rise rate = %g, want %g", res.RiseRates[0], 0.08/res.RiseTimes[0])
	}

	if math.Abs(res.RelaxRates[0]-0.08/res.RelaxTimes[0]) > 1e-9 {
		t.Errorf("relax rate = %g, want %g", res.RelaxRates[0], 0.08/res.RelaxTimes[0])
	}

	if len(res.RiseFallRatios) != 1 {
		t.Fatalf("got %d ratios, want 1", len(res.RiseFallRatios))
	}

	if res.RiseFallRatios[0] >= 1 {
		t.Errorf("rise/fall ratio = %g, want < 1 (faster rise than fall)", res.RiseFallRatios[0])
	}
}

func TestCalculate_FirstCrossingNotLast(t *testing.T) {
	// A pulse that dips below 10% then briefly rises again inside the
	// relaxation window. The offset must be the FIRST 10% crossing after
	// the 90% crossing; picking a later one would inflate relax time.
	tr, peak := rampPulse(10, 4, 0.2, 0.1, 0.4, 0.10)

	// Second small bump after the pulse has fully relaxed.
	for i, tv := range tr.Time {
		d := math.Abs(tv - 5.5)
		if d < 0.2 {
			tr.Force[i] += 0.05 * (1 - d/0.2)
		}
	}

	res := Calculate(tr, []int{peak}, 0, rate)

	if len(res.RelaxTimes) != 1 {
		t.Fatalf("got %d relax samples, want 1", len(res.RelaxTimes))
	}

	// 80% of the 0.4 s fall; the bump at 5.5 s is inside the 2 s window
	// but must not move the offset.
	if math.Abs(res.RelaxTimes[0]-0.32) > 0.02 {
		t.Errorf("relax time = %g s, want ~0.32 s", res.RelaxTimes[0])
	}
}

func TestCalculate_SubsetUsesAbsoluteIndices(t *testing.T) {
	tr, peak := rampPulse(20, 12, 0.5, 0.2, 1.0, 0.10)

	full := Calculate(tr, []int{peak}, 0, rate)
	subset := Calculate(tr, []int{peak}, 0, rate)

	if len(full.RiseTimes) != 1 || len(subset.RiseTimes) != 1 {
		t.Fatal("expected one rise sample from both runs")
	}

	if full.RiseTimes[0] != subset.RiseTimes[0] {
		t.Errorf("subset rise %g differs from full-run rise %g",
			subset.RiseTimes[0], full.RiseTimes[0])
	}
}

func TestCalculate_SkipsNonPositiveAmplitude(t *testing.T) {
	tr, _ := rampPulse(10, 4, 0.5, 0.2, 1.0, 0.10)

	// Index 0 has zero force; with baseline 0 its amplitude is 0.
	res := Calculate(tr, []int{0}, 0, rate)

	if len(res.RiseTimes) != 0 || len(res.TimesToPeak) != 0 {
		t.Error("zero-amplitude peak must contribute nothing")
	}
}

func TestCalculate_EmptyPeakSet(t *testing.T) {
	tr, _ := rampPulse(10, 4, 0.5, 0.2, 1.0, 0.10)

	res := Calculate(tr, nil, 0, rate)

	if len(res.RiseTimes) != 0 || len(res.RelaxTimes) != 0 || len(res.RiseFallRatios) != 0 {
		t.Error("empty peak set must yield an empty result")
	}
}

func TestCalculate_TruncatedRelaxWindowClamps(t *testing.T) {
	// Pulse close to the end of the trace: the fall is cut off before
	// reaching the 10% level, so no relax time can be measured but the
	// rise side is unaffected.
	tr, peak := rampPulse(6, 5, 0.5, 0.2, 1.0, 0.10)

	res := Calculate(tr, []int{peak}, 0, rate)

	if len(res.RiseTimes) != 1 {
		t.Fatalf("got %d rise samples, want 1", len(res.RiseTimes))
	}

	if len(res.RelaxTimes) != 0 {
		t.Errorf("got %d relax samples, want 0 for truncated fall", len(res.RelaxTimes))
	}
}
