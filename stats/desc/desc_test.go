package desc

import (
	"math"
	"testing"
)

const tolerance = 1e-12

func almostEqual(a, b, tol float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}

	return math.Abs(a-b) <= tol
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{3}, 3},
		{"symmetric", []float64{-1, 0, 1}, 0},
		{"constant", []float64{2.5, 2.5, 2.5, 2.5}, 2.5},
		{"ramp", []float64{1, 2, 3, 4}, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.values); !almostEqual(got, tt.want, tolerance) {
				t.Errorf("Mean(%v) = %g, want %g", tt.values, got, tt.want)
			}
		})
	}
}

func TestStd_Population(t *testing.T) {
	// Population std of {2, 4, 4, 4, 5, 5, 7, 9} is exactly 2.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Std(values); !almostEqual(got, 2, tolerance) {
		t.Errorf("Std = %g, want 2", got)
	}

	if got := Std(nil); got != 0 {
		t.Errorf("Std(nil) = %g, want 0", got)
	}

	if got := Std([]float64{5, 5, 5}); !almostEqual(got, 0, tolerance) {
		t.Errorf("Std(constant) = %g, want 0", got)
	}
}

func TestCV(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9} // mean 5, std 2
	if got := CV(values); !almostEqual(got, 40, 1e-9) {
		t.Errorf("CV = %g, want 40", got)
	}

	if got := CV([]float64{0, 0}); got != 0 {
		t.Errorf("CV of zero-mean values = %g, want 0", got)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{15, 20, 35, 40, 50}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 15},
		{100, 50},
		{50, 35},
		{25, 20},
		{10, 17}, // rank 0.4 between 15 and 20
		{40, 29}, // rank 1.6 between 20 and 35
	}

	for _, tt := range tests {
		if got := Percentile(values, tt.p); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("Percentile(%g) = %g, want %g", tt.p, got, tt.want)
		}
	}
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 50)

	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input mutated: %v", values)
	}
}

func TestPercentile_Empty(t *testing.T) {
	if got := Percentile(nil, 10); !math.IsNaN(got) {
		t.Errorf("Percentile(nil) = %g, want NaN", got)
	}
}

func TestPercentile_Idempotent(t *testing.T) {
	values := []float64{0.1, 0.4, 0.2, 0.9, 0.5, 0.3}

	first := Percentile(values, 10)
	second := Percentile(values, 10)

	if first != second {
		t.Errorf("percentile not idempotent: %g vs %g", first, second)
	}
}

func TestDiff(t *testing.T) {
	got := Diff([]float64{1, 3, 6, 10})
	want := []float64{2, 3, 4}

	if len(got) != len(want) {
		t.Fatalf("Diff length = %d, want %d", len(got), len(want))
	}

	for i := range want {
		if !almostEqual(got[i], want[i], tolerance) {
			t.Errorf("Diff[%d] = %g, want %g", i, got[i], want[i])
		}
	}

	if Diff([]float64{1}) != nil {
		t.Error("Diff of single element should be nil")
	}
}

func TestTrapezoid(t *testing.T) {
	// Integral of y = x over [0, 1] is 0.5.
	n := 101
	x := make([]float64, n)
	y := make([]float64, n)

	for i := range x {
		x[i] = float64(i) / float64(n-1)
		y[i] = x[i]
	}

	if got := Trapezoid(y, x); !almostEqual(got, 0.5, 1e-12) {
		t.Errorf("Trapezoid(linear) = %g, want 0.5", got)
	}

	// Constant function over non-uniform spacing.
	x2 := []float64{0, 0.5, 2}
	y2 := []float64{3, 3, 3}

	if got := Trapezoid(y2, x2); !almostEqual(got, 6, tolerance) {
		t.Errorf("Trapezoid(constant) = %g, want 6", got)
	}

	if got := Trapezoid([]float64{1}, []float64{0}); got != 0 {
		t.Errorf("Trapezoid of single point = %g, want 0", got)
	}
}
