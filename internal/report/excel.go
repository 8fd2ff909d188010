// Package report renders analysis results for human review: an Excel
// workbook with overall and binned metric sheets, and per-file validation
// plots showing the detected contractions against the thresholds actually
// used.
//
// The package consumes finished analyses read-only; it performs no
// computation of its own beyond formatting.
package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/cwbudde/algo-myograph/batch"
)

// Sheet names in the output workbook.
const (
	overallSheet = "Overall_Metrics"
	binsSheet    = "10sec_Bins"
)

// overallColumns is the column order of the overall sheet, kept stable so
// downstream statistics templates keep working.
var overallColumns = []string{
	"Filename", "Num_Contractions", "Mean_Amplitude_mN", "Amplitude_CV",
	"Frequency_cpm", "Mean_Period_sec", "Period_CV", "Mean_Duration_sec",
	"Mean_Rise_Time_sec", "Mean_Relax_Time_sec", "Mean_Rise_Rate_mN_per_sec",
	"Mean_Relax_Rate_mN_per_sec",
	"Mean_Time_to_Peak_sec", "Mean_Time_from_Peak_sec", "Mean_Rise_Fall_Ratio",
	"Mean_Width_Half_Max_sec",
	"Integral_Force_mN_sec", "Baseline_mN", "Total_Duration_sec",
	"Mean_Contraction_Duration_sec", "Mean_Intercontraction_Interval_sec",
	"Duty_Cycle_percent", "Total_Contraction_Time_sec", "Total_Quiescent_Time_sec",
	"Percent_Incomplete_Relaxation", "N_Incomplete_Relaxation",
	"Mean_Quiescent_Tone_mN", "Mean_Tonic_Force_mN", "Phasic_Tonic_Ratio",
	"Force_Per_Contraction_mN_sec", "Force_Per_Minute_mN_sec_per_min",
	"Amplitude_Frequency_Product", "Contraction_Work_Index",
	"Amplitude_Flag",
}

var binColumns = []string{
	"Filename", "Bin", "Time_Start_sec", "Time_End_sec",
	"Contractions", "Frequency_cpm", "Mean_Amplitude_mN",
	"Mean_Period_sec", "Mean_Duration_sec", "Mean_Rise_Time_sec",
	"Mean_Relax_Time_sec", "Mean_Rise_Rate_mN_per_sec",
	"Mean_Relax_Rate_mN_per_sec",
	"Mean_Time_to_Peak_sec", "Mean_Time_from_Peak_sec",
	"Mean_Rise_Fall_Ratio",
	"Integral_Force_mN_s",
	"Mean_Contraction_Duration_sec", "Mean_Intercontraction_Interval_sec",
	"Duty_Cycle_percent", "Total_Contraction_Time_sec",
	"Percent_Incomplete_Relaxation", "N_Incomplete_Relaxation",
}

// WriteWorkbook writes the overall and binned metrics of every analyzed
// file to an xlsx workbook at path. Failed files are omitted; the caller
// reports them separately.
func WriteWorkbook(path string, results []batch.FileResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeOverall(f, results); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if err := writeBins(f, results); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	// Drop the default sheet and land the reader on the overall metrics.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	idx, err := f.GetSheetIndex(overallSheet)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	f.SetActiveSheet(idx)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return nil
}

func writeOverall(f *excelize.File, results []batch.FileResult) error {
	if _, err := f.NewSheet(overallSheet); err != nil {
		return err
	}

	if err := writeRow(f, overallSheet, 1, toCells(overallColumns)); err != nil {
		return err
	}

	row := 2

	for _, r := range results {
		if r.Failed() {
			continue
		}

		s := r.Analysis.Summary

		cells := []any{
			r.Name, s.NumContractions, num(s.MeanAmplitude_mN), num(s.AmplitudeCV),
			num(s.Frequency_cpm), num(s.MeanPeriod_sec), num(s.PeriodCV), num(s.MeanDuration_sec),
			num(s.MeanRiseTime_sec), num(s.MeanRelaxTime_sec), num(s.MeanRiseRate_mN_per_sec),
			num(s.MeanRelaxRate_mN_per_sec),
			num(s.MeanTimeToPeak_sec), num(s.MeanTimeFromPeak_sec), num(s.MeanRiseFallRatio),
			num(s.MeanWidthHalfMax_sec),
			num(s.IntegralForce_mN_sec), num(s.Baseline_mN), num(s.TotalDuration_sec),
			num(s.MeanContractionDuration_sec), num(s.MeanIntercontractionInterval_sec),
			num(s.DutyCycle_percent), num(s.TotalContractionTime_sec), num(s.TotalQuiescentTime_sec),
			num(s.PercentIncompleteRelaxation), s.NumIncompleteRelaxation,
			num(s.MeanQuiescentTone_mN), num(s.MeanTonicForce_mN), num(s.PhasicTonicRatio),
			num(s.ForcePerContraction_mN_sec), num(s.ForcePerMinute_mN_sec_per_min),
			num(s.AmplitudeFrequencyProduct), num(s.ContractionWorkIndex),
			s.AmplitudeFlag,
		}

		if err := writeRow(f, overallSheet, row, cells); err != nil {
			return err
		}

		row++
	}

	return nil
}

func writeBins(f *excelize.File, results []batch.FileResult) error {
	if _, err := f.NewSheet(binsSheet); err != nil {
		return err
	}

	if err := writeRow(f, binsSheet, 1, toCells(binColumns)); err != nil {
		return err
	}

	row := 2

	for _, r := range results {
		if r.Failed() {
			continue
		}

		for _, b := range r.Analysis.Bins {
			cells := []any{
				r.Name, b.Bin, num(b.TimeStart_sec), num(b.TimeEnd_sec),
				b.Contractions, num(b.Frequency_cpm), num(b.MeanAmplitude_mN),
				num(b.MeanPeriod_sec), num(b.MeanDuration_sec), num(b.MeanRiseTime_sec),
				num(b.MeanRelaxTime_sec), num(b.MeanRiseRate_mN_per_sec),
				num(b.MeanRelaxRate_mN_per_sec),
				num(b.MeanTimeToPeak_sec), num(b.MeanTimeFromPeak_sec),
				num(b.MeanRiseFallRatio),
				num(b.IntegralForce_mN_s),
				num(b.MeanContractionDuration_sec), num(b.MeanIntercontractionInterval_sec),
				num(b.DutyCycle_percent), num(b.TotalContractionTime_sec),
				num(b.PercentIncompleteRelaxation), b.NumIncompleteRelaxation,
			}

			if err := writeRow(f, binsSheet, row, cells); err != nil {
				return err
			}

			row++
		}
	}

	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	return f.SetSheetRow(sheet, ref, &cells)
}

func toCells(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}

	return out
}

// num maps non-finite values to the textual representations spreadsheets
// accept: infinities to "inf" and NaN to an empty cell.
func num(v float64) any {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 0):
		return "inf"
	default:
		return v
	}
}
