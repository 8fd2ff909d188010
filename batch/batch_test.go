package batch

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/cwbudde/algo-myograph/measure/contractility"
	"github.com/cwbudde/algo-myograph/myo/trace"
)

const rate = 250.0

var errUnreadable = errors.New("unreadable")

// syntheticLoader serves traces keyed by path. Path "bad" fails to load,
// path "short" loads a trace that fails validation.
func syntheticLoader(path string) (trace.Trace, error) {
	switch path {
	case "bad":
		return trace.Trace{}, errUnreadable
	case "short":
		return pulses(0.2, nil), nil
	default:
		return pulses(150, []float64{5, 15, 25}), nil
	}
}

func pulses(seconds float64, centers []float64) trace.Trace {
	n := int(seconds * rate)
	tm := make([]float64, n)
	f := make([]float64, n)

	for i := range tm {
		tm[i] = float64(i) / rate
	}

	for _, c := range centers {
		for i, t := range tm {
			d := math.Abs(t - c)
			if d < 0.5 {
				f[i] += 0.10 * (1 - d/0.5)
			}
		}
	}

	return trace.Trace{Time: tm, Force: f}
}

func TestRun_IsolatesFailures(t *testing.T) {
	paths := []string{"a.txt", "bad", "b.txt", "short", "c.txt"}

	results := Run(paths, syntheticLoader, contractility.DefaultConfig(), 2)

	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}

	ok, failed := Partition(results)

	if len(ok) != 3 || len(failed) != 2 {
		t.Fatalf("partition = %d ok / %d failed, want 3 / 2", len(ok), len(failed))
	}

	if !errors.Is(failed[0].Err, errUnreadable) {
		t.Errorf("load failure error = %v, want errUnreadable", failed[0].Err)
	}

	if !errors.Is(failed[1].Err, trace.ErrTooShort) {
		t.Errorf("validation failure error = %v, want ErrTooShort", failed[1].Err)
	}

	for _, r := range ok {
		if r.Analysis == nil {
			t.Fatalf("analyzed file %q has nil analysis", r.Path)
		}

		if r.Analysis.Summary.NumContractions != 3 {
			t.Errorf("%q: NumContractions = %d, want 3", r.Path, r.Analysis.Summary.NumContractions)
		}
	}
}

func TestRun_PreservesInputOrder(t *testing.T) {
	var paths []string
	for i := range 20 {
		paths = append(paths, fmt.Sprintf("file_%02d.txt", i))
	}

	results := Run(paths, syntheticLoader, contractility.DefaultConfig(), 4)

	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("result %d is %q, want %q", i, r.Path, paths[i])
		}
	}
}

func TestRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	paths := []string{"a.txt", "b.txt", "c.txt", "d.txt"}

	serial := Run(paths, syntheticLoader, contractility.DefaultConfig(), 1)
	parallel := Run(paths, syntheticLoader, contractility.DefaultConfig(), 4)

	for i := range serial {
		if !reflect.DeepEqual(serial[i].Analysis.Summary, parallel[i].Analysis.Summary) {
			t.Errorf("summary %d differs between worker counts", i)
		}
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/raw/Mouse_01_baseline.txt", "Mouse_01_baseline"},
		{"plain.txt", "plain"},
		{"noext", "noext"},
		{"padded .txt", "padded"},
	}

	for _, tt := range tests {
		if got := stem(tt.path); got != tt.want {
			t.Errorf("stem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
