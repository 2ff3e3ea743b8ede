package geo

import (
	"math"
	"testing"
)

// oneDegreeMeters is the arc length of one degree of latitude on the
// spherical model: earthRadiusMeters * pi / 180.
const oneDegreeMeters = 111194.92664455873

func TestDistance_SamePoint(t *testing.T) {
	p := Point{Lat: 52.5, Lon: 13.4}
	if d := Distance(p, p); d != 0 {
		t.Errorf("Distance(p, p) = %v, want 0", d)
	}
}

func TestDistance_OneDegreeLatitude(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 1, Lon: 0}
	d := Distance(a, b)

	if math.Abs(d-oneDegreeMeters) > 0.01 {
		t.Errorf("Distance = %v, want %v", d, oneDegreeMeters)
	}
}

func TestDistance_OneDegreeLongitudeAtEquator(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 1}
	d := Distance(a, b)

	if math.Abs(d-oneDegreeMeters) > 0.01 {
		t.Errorf("Distance = %v, want %v", d, oneDegreeMeters)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Point{Lat: 41.0082, Lon: 28.9784}
	b := Point{Lat: 39.9334, Lon: 32.8597}

	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("Distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDistance_SmallDisplacement(t *testing.T) {
	// 0.001 degrees of latitude is roughly 111.19 meters.
	a := Point{Lat: 48.1, Lon: 11.5}
	b := Point{Lat: 48.101, Lon: 11.5}
	d := Distance(a, b)

	if math.Abs(d-oneDegreeMeters/1000) > 0.1 {
		t.Errorf("Distance = %v, want ~%v", d, oneDegreeMeters/1000)
	}
}

func TestBearing_CardinalDirections(t *testing.T) {
	origin := Point{Lat: 0, Lon: 0}
	tests := []struct {
		name string
		to   Point
		want float64
	}{
		{"north", Point{Lat: 1, Lon: 0}, 0},
		{"east", Point{Lat: 0, Lon: 1}, 90},
		{"south", Point{Lat: -1, Lon: 0}, 180},
		{"west", Point{Lat: 0, Lon: -1}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Bearing = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceToSegment_PointOnSegment(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 1}
	p := Point{Lat: 0, Lon: 0.5}

	if d := DistanceToSegment(p, a, b); d > 0.5 {
		t.Errorf("DistanceToSegment for on-arc point = %v, want ~0", d)
	}
}

func TestDistanceToSegment_PointAtEndpoint(t *testing.T) {
	a := Point{Lat: 10, Lon: 10}
	b := Point{Lat: 10, Lon: 11}

	if d := DistanceToSegment(a, a, b); d != 0 {
		t.Errorf("DistanceToSegment at start endpoint = %v, want 0", d)
	}
}

func TestDistanceToSegment_PerpendicularOffset(t *testing.T) {
	// Point half a degree north of the midpoint of an equatorial segment.
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 1}
	p := Point{Lat: 0.5, Lon: 0.5}

	d := DistanceToSegment(p, a, b)
	want := oneDegreeMeters / 2
	if math.Abs(d-want) > 100 {
		t.Errorf("DistanceToSegment = %v, want ~%v", d, want)
	}
}

func TestDistanceToSegment_ProjectionBeforeStart(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 1}
	p := Point{Lat: 0, Lon: -1}

	d := DistanceToSegment(p, a, b)
	want := Distance(p, a)
	if d != want {
		t.Errorf("DistanceToSegment = %v, want endpoint distance %v", d, want)
	}
}

func TestDistanceToSegment_ProjectionPastEnd(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 1}
	p := Point{Lat: 0, Lon: 2}

	d := DistanceToSegment(p, a, b)
	want := Distance(p, b)
	if d != want {
		t.Errorf("DistanceToSegment = %v, want endpoint distance %v", d, want)
	}
}

func TestDistanceToSegment_DegenerateSegment(t *testing.T) {
	a := Point{Lat: 45, Lon: 9}
	p := Point{Lat: 45.1, Lon: 9}

	d := DistanceToSegment(p, a, a)
	want := Distance(p, a)
	if d != want {
		t.Errorf("DistanceToSegment degenerate = %v, want %v", d, want)
	}
}

func TestDistanceToSegment_NeverNegative(t *testing.T) {
	points := []Point{
		{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: -1, Lon: 2},
		{Lat: 89, Lon: 0}, {Lat: 0, Lon: 179}, {Lat: -45, Lon: -90},
	}
	a := Point{Lat: 0.1, Lon: 0.1}
	b := Point{Lat: 0.2, Lon: 0.9}

	for _, p := range points {
		d := DistanceToSegment(p, a, b)
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			t.Errorf("DistanceToSegment(%v) = %v, want finite non-negative", p, d)
		}
	}
}

func TestDistanceToSegment_OffsetSmallerThanEndpointDistances(t *testing.T) {
	// For a point whose projection lands inside the segment the arc
	// distance must not exceed either endpoint distance.
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 2}
	p := Point{Lat: 0.3, Lon: 1}

	d := DistanceToSegment(p, a, b)
	if d > Distance(p, a) || d > Distance(p, b) {
		t.Errorf("DistanceToSegment = %v exceeds endpoint distances %v / %v",
			d, Distance(p, a), Distance(p, b))
	}
}
