// Package charter renders parameter contours as HTML line charts.
package charter

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/neurlang/magphase/magphase"
)

// Contours renders the F0 contour and the per frame log energy of ps to w.
// The x axis is the frame start time in seconds.
func Contours(w io.Writer, title string, ps *magphase.ParameterSet) error {
	if err := ps.Validate(); err != nil {
		return err
	}
	grid, err := magphase.GridFromF0(ps.F0, ps.SampleRate)
	if err != nil {
		return err
	}

	var (
		f0     = make([]opts.LineData, ps.Frames())
		energy = make([]opts.LineData, ps.Frames())
		xs     = make([]string, ps.Frames())
	)
	for i, fr := range grid.Frames {
		xs[i] = fmt.Sprintf("%.3f", float64(fr.Center)/float64(ps.SampleRate))
		f0[i] = opts.LineData{Value: ps.F0[i]}
		energy[i] = opts.LineData{Value: logEnergy(ps.Mag[i]), YAxisIndex: 1}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d frames, %d Hz, fft %d", ps.Frames(), ps.SampleRate, ps.FFTLen),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "F0 (Hz)"}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "energy (dB)"})

	line.SetXAxis(xs).
		AddSeries("F0", f0).
		AddSeries("energy", energy).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: false}))

	return line.Render(w)
}

// logEnergy returns the frame energy in dB, floored at -120.
func logEnergy(mag []float64) float64 {
	var sum float64
	for _, m := range mag {
		sum += m * m
	}
	return math.Max(10*math.Log10(sum+1e-12), -120)
}
