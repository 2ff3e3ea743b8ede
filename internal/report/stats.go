// Package report derives per-session statistics from journaled
// tracking data and renders them as text, interactive HTML, or PNG.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/bakitorunoglu/TrackRadar/internal/geo"
	"github.com/bakitorunoglu/TrackRadar/internal/journal"
	"github.com/bakitorunoglu/TrackRadar/internal/units"
)

// Summary is the derived statistics for one tracked session. Speeds
// are meters per second and distances meters, matching the journal.
type Summary struct {
	SessionID string
	RouteName string

	FixCount      int
	OffTrackFixes int
	Duration      time.Duration
	DistanceM     float64
	MeanSpeedMS   float64
	MaxSpeedMS    float64

	DeviationP50M float64
	DeviationP85M float64
	DeviationP98M float64
	MaxDeviationM float64
	MeanAccuracyM float64

	AlarmCounts map[string]int
}

// Summarize derives a Summary from a session's journaled fixes and
// alarms. Fixes must be chronological, as the journal returns them.
func Summarize(session *journal.Session, fixes []journal.Fix, alarms []journal.Alarm) *Summary {
	s := &Summary{
		SessionID:   session.ID,
		RouteName:   session.RouteName,
		FixCount:    len(fixes),
		AlarmCounts: make(map[string]int),
	}
	for _, a := range alarms {
		s.AlarmCounts[a.Kind]++
	}
	if len(fixes) == 0 {
		return s
	}

	devs := make([]float64, 0, len(fixes))
	var accSum float64
	for _, f := range fixes {
		if !f.OnTrack {
			s.OffTrackFixes++
		}
		devs = append(devs, f.DistanceM)
		accSum += f.AccuracyM
		if f.DistanceM > s.MaxDeviationM {
			s.MaxDeviationM = f.DistanceM
		}
	}
	s.MeanAccuracyM = accSum / float64(len(fixes))

	sort.Float64s(devs)
	s.DeviationP50M = stat.Quantile(0.50, stat.Empirical, devs, nil)
	s.DeviationP85M = stat.Quantile(0.85, stat.Empirical, devs, nil)
	s.DeviationP98M = stat.Quantile(0.98, stat.Empirical, devs, nil)

	s.Duration = fixes[len(fixes)-1].At.Sub(fixes[0].At)
	for i := 1; i < len(fixes); i++ {
		d := pairDistance(fixes[i-1], fixes[i])
		s.DistanceM += d
		if dt := fixes[i].At.Sub(fixes[i-1].At).Seconds(); dt > 0 {
			if v := d / dt; v > s.MaxSpeedMS {
				s.MaxSpeedMS = v
			}
		}
	}
	if secs := s.Duration.Seconds(); secs > 0 {
		s.MeanSpeedMS = s.DistanceM / secs
	}
	return s
}

func pairDistance(a, b journal.Fix) float64 {
	return geo.Distance(
		geo.Point{Lat: a.Lat, Lon: a.Lon},
		geo.Point{Lat: b.Lat, Lon: b.Lon},
	)
}

// WriteText renders the summary as an aligned table in the operator's
// display system.
func WriteText(w io.Writer, s *Summary, system string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Session\t%s\n", s.SessionID)
	fmt.Fprintf(tw, "Route\t%s\n", s.RouteName)
	fmt.Fprintf(tw, "Fixes\t%d (%d off track)\n", s.FixCount, s.OffTrackFixes)
	fmt.Fprintf(tw, "Duration\t%s\n", s.Duration.Round(time.Second))
	fmt.Fprintf(tw, "Distance\t%.0f %s\n",
		units.ConvertDistance(s.DistanceM, system), units.DistanceLabel(system))
	fmt.Fprintf(tw, "Mean speed\t%.1f %s\n",
		units.ConvertSpeed(s.MeanSpeedMS, system), units.SpeedLabel(system))
	fmt.Fprintf(tw, "Max speed\t%.1f %s\n",
		units.ConvertSpeed(s.MaxSpeedMS, system), units.SpeedLabel(system))
	fmt.Fprintf(tw, "Deviation P50/P85/P98\t%.1f / %.1f / %.1f %s\n",
		units.ConvertDistance(s.DeviationP50M, system),
		units.ConvertDistance(s.DeviationP85M, system),
		units.ConvertDistance(s.DeviationP98M, system),
		units.DistanceLabel(system))
	fmt.Fprintf(tw, "Max deviation\t%.1f %s\n",
		units.ConvertDistance(s.MaxDeviationM, system), units.DistanceLabel(system))
	fmt.Fprintf(tw, "Mean accuracy\t%.1f %s\n",
		units.ConvertDistance(s.MeanAccuracyM, system), units.DistanceLabel(system))

	kinds := make([]string, 0, len(s.AlarmCounts))
	for k := range s.AlarmCounts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	if len(kinds) == 0 {
		fmt.Fprintf(tw, "Alarms\tnone\n")
	} else {
		for _, k := range kinds {
			fmt.Fprintf(tw, "Alarms (%s)\t%d\n", k, s.AlarmCounts[k])
		}
	}

	return tw.Flush()
}
