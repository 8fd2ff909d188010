package report

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/cwbudde/algo-myograph/measure/contractility"
	"github.com/cwbudde/algo-myograph/myo/detect"
	"github.com/cwbudde/algo-myograph/myo/trace"
)

// zoomSeconds is the span of the lower detail panel.
const zoomSeconds = 60.0

var (
	traceColor     = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	baselineColor  = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	thresholdColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	peakColor      = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
)

// WriteValidationPlot renders a two panel PNG for visual QC of one
// analyzed file: the full analysis window on top and the first minute
// below, both overlaid with the baseline, the detection threshold, and
// the accepted peaks.
func WriteValidationPlot(path, name string, a *contractility.Analysis, cfg contractility.Config) error {
	full, err := tracePanel(a.Window, a.Peaks, a.Baseline, cfg.PeakHeight_mN,
		fmt.Sprintf("%s  (%d contractions, %.1f cpm)",
			name, a.Summary.NumContractions, a.Summary.Frequency_cpm))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	zoomed, zoomPeaks := zoomWindow(a.Window, a.Peaks, zoomSeconds)

	zoom, err := tracePanel(zoomed, zoomPeaks, a.Baseline, cfg.PeakHeight_mN,
		fmt.Sprintf("First %.0f s detail", zoomSeconds))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	img := vgimg.NewWith(
		vgimg.UseWH(10*vg.Inch, 7*vg.Inch),
		vgimg.UseDPI(150),
	)
	dc := draw.New(img)

	plots := [][]*plot.Plot{{full}, {zoom}}
	canvases := plot.Align(plots, draw.Tiles{Rows: 2, Cols: 1}, dc)

	for r := range plots {
		for c := range plots[r] {
			plots[r][c].Draw(canvases[r][c])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return nil
}

func tracePanel(tr trace.Trace, peaks []detect.Peak, baseline, height float64, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Force (mN)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(traceXYs(tr))
	if err != nil {
		return nil, err
	}

	line.Color = traceColor
	line.Width = vg.Points(0.5)
	p.Add(line)
	p.Legend.Add("Force", line)

	if tr.Len() > 0 {
		x0, x1 := tr.Time[0], tr.Time[tr.Len()-1]

		base, err := horizontalLine(x0, x1, baseline, baselineColor, nil)
		if err != nil {
			return nil, err
		}

		p.Add(base)
		p.Legend.Add(fmt.Sprintf("Baseline %.3f mN", baseline), base)

		thr, err := horizontalLine(x0, x1, baseline+height, thresholdColor,
			[]vg.Length{vg.Points(4), vg.Points(2)})
		if err != nil {
			return nil, err
		}

		p.Add(thr)
		p.Legend.Add(fmt.Sprintf("Threshold %.3f mN", baseline+height), thr)
	}

	if len(peaks) > 0 {
		pts := make(plotter.XYs, len(peaks))
		for i, pk := range peaks {
			pts[i].X = pk.Time
			pts[i].Y = tr.Force[pk.Index]
		}

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}

		scatter.GlyphStyle.Color = peakColor
		scatter.GlyphStyle.Radius = vg.Points(2.5)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add("Peaks", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false

	return p, nil
}

func horizontalLine(x0, x1, y float64, c color.Color, dashes []vg.Length) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
	if err != nil {
		return nil, err
	}

	line.Color = c
	line.Width = vg.Points(1)
	line.Dashes = dashes

	return line, nil
}

func traceXYs(tr trace.Trace) plotter.XYs {
	pts := make(plotter.XYs, tr.Len())
	for i := range pts {
		pts[i].X = tr.Time[i]
		pts[i].Y = tr.Force[i]
	}

	return pts
}

// zoomWindow cuts the leading seconds of the trace and keeps only the
// peaks that fall inside, reindexed into the shortened slices.
func zoomWindow(tr trace.Trace, peaks []detect.Peak, seconds float64) (trace.Trace, []detect.Peak) {
	cut := tr.Len()

	for i, t := range tr.Time {
		if t-tr.Time[0] >= seconds {
			cut = i
			break
		}
	}

	out := trace.Trace{Time: tr.Time[:cut], Force: tr.Force[:cut]}

	var kept []detect.Peak

	for _, pk := range peaks {
		if pk.Index < cut {
			kept = append(kept, pk)
		}
	}

	return out, kept
}
