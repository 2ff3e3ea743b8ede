// Package track holds the route model and per-session fix history shared
// by the decision engine and the reporting layer.
package track

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bakitorunoglu/TrackRadar/internal/geo"
)

// RouteSegment is an ordered run of waypoints. Consecutive points form
// the arcs the proximity scan measures against; a segment with fewer
// than two points contributes no arcs.
type RouteSegment []geo.Point

// Route is an ordered list of segments with a display name. Routes are
// loaded once at startup and never mutated afterwards.
type Route struct {
	Name     string
	Segments []RouteSegment
}

// PairCount returns the number of point pairs (arcs) across all
// segments. Zero means the proximity scan has nothing to measure
// against.
func (r *Route) PairCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, seg := range r.Segments {
		if len(seg) > 1 {
			n += len(seg) - 1
		}
	}
	return n
}

// TimedPoint is a fix stamped with a monotonic timestamp in
// nanoseconds. The timestamp comes from the engine's tick source, not
// wall time, so intervals stay valid across clock adjustments.
type TimedPoint struct {
	geo.Point
	AtNanos int64
}

// routeDocument is the JSON shape of a route file: a name plus segments
// of [lat, lon] pairs.
type routeDocument struct {
	Name     string        `json:"name"`
	Segments [][][]float64 `json:"segments"`
}

// LoadRoute loads a route from a JSON file. The file is validated to
// ensure it has a .json extension and is under the max file size, and
// every coordinate pair must be a [lat, lon] array with in-range
// values.
func LoadRoute(path string) (*Route, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("route file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat route file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("route file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read route file: %w", err)
	}

	var doc routeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse route JSON: %w", err)
	}

	route, err := doc.toRoute()
	if err != nil {
		return nil, fmt.Errorf("invalid route: %w", err)
	}
	return route, nil
}

func (d *routeDocument) toRoute() (*Route, error) {
	route := &Route{
		Name:     d.Name,
		Segments: make([]RouteSegment, 0, len(d.Segments)),
	}
	for si, rawSeg := range d.Segments {
		seg := make(RouteSegment, 0, len(rawSeg))
		for pi, pair := range rawSeg {
			if len(pair) != 2 {
				return nil, fmt.Errorf("segment %d point %d: want [lat, lon], got %d values", si, pi, len(pair))
			}
			lat, lon := pair[0], pair[1]
			if lat < -90 || lat > 90 {
				return nil, fmt.Errorf("segment %d point %d: latitude %f out of range", si, pi, lat)
			}
			if lon < -180 || lon > 180 {
				return nil, fmt.Errorf("segment %d point %d: longitude %f out of range", si, pi, lon)
			}
			seg = append(seg, geo.Point{Lat: lat, Lon: lon})
		}
		route.Segments = append(route.Segments, seg)
	}
	return route, nil
}
