package engine

import (
	"math"

	"github.com/bakitorunoglu/TrackRadar/internal/geo"
	"github.com/bakitorunoglu/TrackRadar/internal/track"
)

// Evaluate classifies a fix against the route. Segments are scanned in
// route order, point pairs from the end of each segment backward. For
// each arc the distance from the fix is reduced by the fix's reported
// accuracy and floored at zero; the scan short-circuits at the first
// arc whose adjusted distance is within onTrackThreshold.
//
// The returned distance is signed: non-positive means on-track,
// positive means off-track, and the magnitude is the minimum adjusted
// distance seen during the scan. A route with no point pairs yields
// (false, math.MaxFloat64). Cost is linear in the number of route
// points, which bounds the per-fix latency on long routes.
func Evaluate(fix geo.Point, accuracy float64, route *track.Route, onTrackThreshold float64) (bool, float64) {
	minAdjusted := math.MaxFloat64
	if route == nil {
		return false, minAdjusted
	}
	for _, seg := range route.Segments {
		for i := len(seg) - 1; i >= 1; i-- {
			adjusted := geo.DistanceToSegment(fix, seg[i-1], seg[i]) - accuracy
			if adjusted < 0 {
				adjusted = 0
			}
			if adjusted < minAdjusted {
				minAdjusted = adjusted
			}
			if adjusted <= onTrackThreshold {
				return true, -minAdjusted
			}
		}
	}
	return false, minAdjusted
}
