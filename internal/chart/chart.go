// Package chart renders junction reports: an interactive go-echarts page for
// the browser and a static PNG for embedding.
package chart

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"crossing-simulator/internal/cycle"
	"crossing-simulator/internal/signal"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// JourneyLabel names a journey by its crossing indices, e.g. "0 → 1 → 2".
func JourneyLabel(j cycle.JourneyReport) string {
	parts := make([]string, len(j.Indices))
	for i, n := range j.Indices {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " → ")
}

// RenderHTML writes a page with the journey duration chart followed by one
// wait-curve chart per crossing that has a timeline.
func RenderHTML(w io.Writer, r *cycle.Report) error {
	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.PageTitle = fmt.Sprintf("Junction %s", r.JunctionID)

	page.AddCharts(durationLine(r))
	for _, c := range r.Crossings {
		if c.WaitCurve == nil {
			continue
		}
		page.AddCharts(waitLine(r, c))
	}
	return page.Render(w)
}

func xAxis(n int) []string {
	xs := make([]string, n)
	for i := range xs {
		xs[i] = strconv.Itoa(i)
	}
	return xs
}

func durationLine(r *cycle.Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Crossing duration", Subtitle: fmt.Sprintf("junction=%s cycle=%ds", r.JunctionID, r.Cycle.Duration)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Start second", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Duration (s)", NameLocation: "middle", NameGap: 35}),
	)
	line.SetXAxis(xAxis(r.Cycle.Duration + 1))
	for _, j := range r.Journeys {
		data := make([]opts.LineData, len(j.Curve))
		for i, p := range j.Curve {
			if p.Valid {
				data[i] = opts.LineData{Value: p.Seconds}
			} else {
				// echarts leaves a gap for "-"
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(JourneyLabel(j), data)
	}
	return line
}

func waitLine(r *cycle.Report, c cycle.CrossingReport) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "240px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Wait for green: %s", crossingLabel(c))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Wait (s)", Max: r.Cycle.Duration}),
	)
	data := make([]opts.LineData, len(c.WaitCurve))
	for i, v := range c.WaitCurve {
		data[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(xAxis(len(c.WaitCurve))).AddSeries(string(c.ID), data)
	return line
}

func crossingLabel(c cycle.CrossingReport) string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.ID)
}

// RenderPNG draws the journey duration curves. Invalid points break a curve
// into separate line pieces.
func RenderPNG(w io.Writer, r *cycle.Report, width, height vg.Length) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Junction %s - crossing duration", r.JunctionID)
	p.X.Label.Text = "Start second"
	p.Y.Label.Text = "Duration (s)"
	p.X.Min = 0
	p.X.Max = float64(r.Cycle.Duration)

	for i, j := range r.Journeys {
		runs := validRuns(j.Curve)
		for k, xys := range runs {
			l, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("journey %s: %w", JourneyLabel(j), err)
			}
			l.Color = plotutil.Color(i)
			l.Width = vg.Points(1.5)
			p.Add(l)
			if k == 0 {
				p.Legend.Add(JourneyLabel(j), l)
			}
		}
	}
	p.Legend.Top = true

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// validRuns splits a curve into maximal runs of valid points.
func validRuns(c signal.DurationCurve) []plotter.XYs {
	var runs []plotter.XYs
	var cur plotter.XYs
	for i, pt := range c {
		if !pt.Valid {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(i), Y: float64(pt.Seconds)})
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}
