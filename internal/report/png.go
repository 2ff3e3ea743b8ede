package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/bakitorunoglu/TrackRadar/internal/journal"
)

// RenderPNG writes a static deviation chart for the session to path.
// The x axis is elapsed seconds since the first fix.
func RenderPNG(path string, s *Summary, fixes []journal.Fix) error {
	if len(fixes) == 0 {
		return fmt.Errorf("render png: session %s has no fixes", s.SessionID)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Route Deviation: %s (%s)", s.SessionID, s.RouteName)
	p.X.Label.Text = "Elapsed (s)"
	p.Y.Label.Text = "Meters"

	start := fixes[0].At.UnixNano()
	devPts := make(plotter.XYs, len(fixes))
	accPts := make(plotter.XYs, len(fixes))
	for i, f := range fixes {
		elapsed := float64(f.At.UnixNano()-start) / 1e9
		devPts[i].X = elapsed
		devPts[i].Y = f.DistanceM
		accPts[i].X = elapsed
		accPts[i].Y = f.AccuracyM
	}

	devLine, err := plotter.NewLine(devPts)
	if err != nil {
		return fmt.Errorf("render png: deviation series: %w", err)
	}
	devLine.Width = vg.Points(1)
	devLine.Color = color.RGBA{R: 214, G: 69, B: 65, A: 255}

	accLine, err := plotter.NewLine(accPts)
	if err != nil {
		return fmt.Errorf("render png: accuracy series: %w", err)
	}
	accLine.Width = vg.Points(1)
	accLine.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}

	p.Add(devLine, accLine)
	p.Legend.Add("deviation", devLine)
	p.Legend.Add("accuracy", accLine)
	p.Legend.Top = true

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("render png: save %s: %w", path, err)
	}
	return nil
}
