package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/bakitorunoglu/TrackRadar/internal/journal"
)

// RenderHTML writes an interactive session report page with one chart
// for route deviation and reported accuracy and one for ground speed.
// Fixes must be chronological, as the journal returns them.
func RenderHTML(w io.Writer, s *Summary, fixes []journal.Fix) error {
	xs := make([]string, 0, len(fixes))
	devData := make([]opts.LineData, 0, len(fixes))
	accData := make([]opts.LineData, 0, len(fixes))
	speedXs := make([]string, 0, len(fixes))
	speedData := make([]opts.LineData, 0, len(fixes))

	var start int64
	if len(fixes) > 0 {
		start = fixes[0].At.UnixNano()
	}
	for i, f := range fixes {
		elapsed := float64(f.At.UnixNano()-start) / 1e9
		xs = append(xs, fmt.Sprintf("%.0f", elapsed))
		devData = append(devData, opts.LineData{Value: f.DistanceM})
		accData = append(accData, opts.LineData{Value: f.AccuracyM})
		if i > 0 {
			d := pairDistance(fixes[i-1], f)
			dt := f.At.Sub(fixes[i-1].At).Seconds()
			if dt > 0 {
				speedXs = append(speedXs, fmt.Sprintf("%.0f", elapsed))
				speedData = append(speedData, opts.LineData{Value: d / dt})
			}
		}
	}

	subtitle := fmt.Sprintf("session %s, route %s, %d fixes", s.SessionID, s.RouteName, s.FixCount)

	deviation := charts.NewLine()
	deviation.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Session Report",
			Theme:     "dark",
			Width:     "1200px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Route Deviation",
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "elapsed (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "meters"}),
	)
	deviation.SetXAxis(xs).
		AddSeries("deviation", devData).
		AddSeries("accuracy", accData)

	speed := charts.NewLine()
	speed.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  "dark",
			Width:  "1200px",
			Height: "400px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Ground Speed",
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "elapsed (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m/s"}),
	)
	speed.SetXAxis(speedXs).
		AddSeries("speed", speedData)

	page := components.NewPage()
	page.AddCharts(deviation, speed)
	return page.Render(w)
}
