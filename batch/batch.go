// Package batch analyzes many recordings with per-file failure isolation.
//
// Every file is an independent unit of work: traces share no state, so
// files are fanned out across a small worker pool with no coordination
// beyond collecting results. A file that fails to load or validate yields
// a FileResult carrying the error; it never aborts or corrupts the rest of
// the run.
package batch

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/cwbudde/algo-myograph/measure/contractility"
	"github.com/cwbudde/algo-myograph/myo/trace"
)

// Loader reads one recording from disk.
type Loader func(path string) (trace.Trace, error)

// FileResult is the outcome for one file: either Analysis is non-nil or
// Err is non-nil, never both.
type FileResult struct {
	Path     string
	Name     string // file name without extension
	Analysis *contractility.Analysis
	Err      error
}

// Failed reports whether the file could not be analyzed.
func (r FileResult) Failed() bool { return r.Err != nil }

// Run analyzes every path and returns one result per input, in input
// order. workers limits concurrent analyses; values below 1 select
// GOMAXPROCS.
func Run(paths []string, load Loader, cfg contractility.Config, workers int) []FileResult {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]FileResult, len(paths))

	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				results[i] = analyzeOne(paths[i], load, cfg)
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}

	close(jobs)
	wg.Wait()

	return results
}

func analyzeOne(path string, load Loader, cfg contractility.Config) FileResult {
	res := FileResult{
		Path: path,
		Name: stem(path),
	}

	tr, err := load(path)
	if err != nil {
		res.Err = err
		return res
	}

	analysis, err := contractility.Analyze(tr, cfg)
	if err != nil {
		res.Err = err
		return res
	}

	res.Analysis = analysis

	return res
}

// Partition splits results into analyzed and failed subsets, preserving
// order.
func Partition(results []FileResult) (ok, failed []FileResult) {
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r)
		} else {
			ok = append(ok, r)
		}
	}

	return ok, failed
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}
