// Command myoanalyze runs contractility analysis over wire myograph
// force recordings and writes an Excel workbook plus per-file validation
// plots.
//
// Usage:
//
//	myoanalyze [flags] [peak-height-mN]
//
// Without -input it runs in project mode: it expects a 1_RawData
// directory under the project folder, writes results to 3_Results, and
// moves successfully analyzed recordings to 2_Processed when that
// directory exists.
//
// Examples:
//
//	myoanalyze
//	myoanalyze 0.08
//	myoanalyze -dir /data/exp042
//	myoanalyze -input traces/ -out results/
//	myoanalyze -config analysis.yaml -workers 8
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-myograph/batch"
	"github.com/cwbudde/algo-myograph/internal/labchart"
	"github.com/cwbudde/algo-myograph/internal/report"
	"github.com/cwbudde/algo-myograph/measure/contractility"
	"github.com/cwbudde/algo-myograph/measure/rhythm"
)

// Project layout directories.
const (
	rawDir       = "1_RawData"
	processedDir = "2_Processed"
	resultsDir   = "3_Results"
)

// Peak heights outside this range are almost always a unit mistake.
const (
	minSaneHeight = 0.01
	maxSaneHeight = 0.50
)

// fileConfig mirrors contractility.Config with optional fields so a YAML
// file only overrides what it names.
type fileConfig struct {
	PeakHeight_mN     *float64 `yaml:"peak_height_mn"`     //nolint:revive
	PeakProminence_mN *float64 `yaml:"peak_prominence_mn"` //nolint:revive
	PeakDistance      *int     `yaml:"peak_distance"`
	PeakWidth         *int     `yaml:"peak_width"`
	SampleRate_Hz     *float64 `yaml:"sample_rate_hz"`    //nolint:revive
	TimeWindow_sec    *float64 `yaml:"time_window_sec"`   //nolint:revive
	BinDuration_sec   *float64 `yaml:"bin_duration_sec"`  //nolint:revive
	FlagAmplitude_mN  *float64 `yaml:"flag_amplitude_mn"` //nolint:revive
}

func (fc fileConfig) applyTo(cfg *contractility.Config) {
	if fc.PeakHeight_mN != nil {
		cfg.PeakHeight_mN = *fc.PeakHeight_mN
	}
	if fc.PeakProminence_mN != nil {
		cfg.PeakProminence_mN = *fc.PeakProminence_mN
	}
	if fc.PeakDistance != nil {
		cfg.PeakDistance = *fc.PeakDistance
	}
	if fc.PeakWidth != nil {
		cfg.PeakWidth = *fc.PeakWidth
	}
	if fc.SampleRate_Hz != nil {
		cfg.SampleRate_Hz = *fc.SampleRate_Hz
	}
	if fc.TimeWindow_sec != nil {
		cfg.TimeWindow_sec = *fc.TimeWindow_sec
	}
	if fc.BinDuration_sec != nil {
		cfg.BinDuration_sec = *fc.BinDuration_sec
	}
	if fc.FlagAmplitude_mN != nil {
		cfg.FlagAmplitude_mN = *fc.FlagAmplitude_mN
	}
}

func main() {
	dir := flag.String("dir", ".", "project folder containing "+rawDir)
	input := flag.String("input", "", "explicit input file or directory (disables project mode)")
	out := flag.String("out", "", "output directory (default: <dir>/"+resultsDir+", or alongside -input)")
	configPath := flag.String("config", "", "YAML file with analysis parameters")
	workers := flag.Int("workers", 0, "parallel analysis workers (0 = number of CPUs)")
	noPlots := flag.Bool("no-plots", false, "skip validation plot rendering")
	rhythmCheck := flag.Bool("rhythm", false, "print the spectral dominant-rhythm estimate per file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: myoanalyze [flags] [peak-height-mN]\n\n")
		fmt.Fprintf(os.Stderr, "Analyzes wire myograph force recordings.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := contractility.DefaultConfig()

	if *configPath != "" {
		if err := loadConfigFile(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	if flag.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "error: at most one positional argument (peak height in mN)\n")
		os.Exit(1)
	}

	if flag.NArg() == 1 {
		h, err := strconv.ParseFloat(flag.Arg(0), 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid peak height %q\n", flag.Arg(0))
			os.Exit(1)
		}

		if h < minSaneHeight || h > maxSaneHeight {
			fmt.Fprintf(os.Stderr, "warning: peak height %.3f mN outside the usual %.2f-%.2f mN range\n",
				h, minSaneHeight, maxSaneHeight)
		}

		cfg.PeakHeight_mN = h
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	inputDir, outputDir, projectMode, singleFile, err := resolveDirs(*dir, *input, *out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	paths := []string{singleFile}
	if singleFile == "" {
		paths, err = listRecordings(inputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "error: no .txt or .csv recordings in %s\n", inputDir)
		os.Exit(1)
	}

	printBanner(cfg, inputDir, outputDir, len(paths))

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	results := batch.Run(paths, labchart.Load, cfg, *workers)
	ok, failed := batch.Partition(results)

	stamp := time.Now().Format("20060102_150405")
	workbook := filepath.Join(outputDir, "Myography_Analysis_"+stamp+".xlsx")

	if err := report.WriteWorkbook(workbook, results); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s (%d of %d files analyzed)\n", workbook, len(ok), len(results))

	if !*noPlots {
		for _, r := range ok {
			plot := filepath.Join(outputDir, r.Name+"_validation.png")
			if err := report.WriteValidationPlot(plot, r.Name, r.Analysis, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "warning: plot for %s: %v\n", r.Name, err)
			}
		}
	}

	if *rhythmCheck {
		reportRhythm(ok, cfg.SampleRate_Hz)
	}

	reportFlags(ok)

	for _, r := range failed {
		fmt.Fprintf(os.Stderr, "warning: skipped %s: %v\n", r.Path, r.Err)
	}

	if projectMode {
		moveProcessed(*dir, ok)
	}

	if len(ok) == 0 {
		fmt.Fprintf(os.Stderr, "error: no file could be analyzed\n")
		os.Exit(1)
	}
}

func loadConfigFile(path string, cfg *contractility.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	fc.applyTo(cfg)

	return nil
}

func resolveDirs(projectDir, input, out string) (inputDir, outputDir string, projectMode bool, singleFile string, err error) {
	if input != "" {
		info, err := os.Stat(input)
		if err != nil {
			return "", "", false, "", err
		}

		inputDir = input
		if !info.IsDir() {
			inputDir = filepath.Dir(input)
			singleFile = input
		}

		if out == "" {
			out = inputDir
		}

		return inputDir, out, false, singleFile, nil
	}

	inputDir = filepath.Join(projectDir, rawDir)
	if _, err := os.Stat(inputDir); err != nil {
		return "", "", false, "", fmt.Errorf("project mode: %w (use -input for a plain directory)", err)
	}

	if out == "" {
		out = filepath.Join(projectDir, resultsDir)
	}

	return inputDir, out, true, "", nil
}

func listRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".csv":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(paths)

	return paths, nil
}

func printBanner(cfg contractility.Config, inputDir, outputDir string, n int) {
	fmt.Println("Myography contractility analysis")
	fmt.Printf("  input:          %s (%d files)\n", inputDir, n)
	fmt.Printf("  output:         %s\n", outputDir)
	fmt.Printf("  peak height:    %.3f mN\n", cfg.PeakHeight_mN)
	fmt.Printf("  prominence:     %.3f mN\n", cfg.PeakProminence_mN)
	fmt.Printf("  min distance:   %d samples\n", cfg.PeakDistance)
	fmt.Printf("  min width:      %d samples\n", cfg.PeakWidth)
	fmt.Printf("  sample rate:    %.0f Hz\n", cfg.SampleRate_Hz)
	fmt.Printf("  time window:    %.0f s\n", cfg.TimeWindow_sec)
	fmt.Printf("  bin duration:   %.0f s\n", cfg.BinDuration_sec)
	fmt.Printf("  flag amplitude: %.3f mN\n", cfg.FlagAmplitude_mN)
}

// reportRhythm prints the spectral frequency estimate next to the counted
// one so large disagreements stand out before anyone trusts the numbers.
func reportRhythm(ok []batch.FileResult, sampleRate float64) {
	rcfg := rhythm.DefaultConfig()
	rcfg.SampleRate_Hz = sampleRate

	fmt.Println("\nSpectral rhythm cross-check:")

	for _, r := range ok {
		res := rhythm.Analyze(r.Analysis.Window.Force, r.Analysis.Baseline, rcfg)
		fmt.Printf("  %s: %.2f cpm spectral vs %.2f cpm counted\n",
			r.Name, res.DominantFreq_cpm, r.Analysis.Summary.Frequency_cpm)
	}
}

func reportFlags(ok []batch.FileResult) {
	var flagged []batch.FileResult

	for _, r := range ok {
		if r.Analysis.Summary.AmplitudeFlag != "" {
			flagged = append(flagged, r)
		}
	}

	if len(flagged) == 0 {
		return
	}

	fmt.Printf("\n%d file(s) flagged for review:\n", len(flagged))

	for _, r := range flagged {
		fmt.Printf("  %s: %s\n", r.Name, r.Analysis.Summary.AmplitudeFlag)
	}
}

// moveProcessed relocates successfully analyzed recordings out of the raw
// data folder. It only acts when the project already carries a processed
// directory, so ad hoc projects keep their raw files in place.
func moveProcessed(projectDir string, ok []batch.FileResult) {
	dst := filepath.Join(projectDir, processedDir)
	if _, err := os.Stat(dst); err != nil {
		return
	}

	for _, r := range ok {
		target := filepath.Join(dst, filepath.Base(r.Path))
		if err := os.Rename(r.Path, target); err != nil {
			fmt.Fprintf(os.Stderr, "warning: move %s: %v\n", r.Path, err)
		}
	}
}
