// Package geo provides great-circle distance primitives for WGS-84
// coordinates. All distances are in meters on a spherical Earth model.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used for all spherical math.
const earthRadiusMeters = 6371000.0

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func toDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// clampUnit clamps v into [-1, 1] so trig inverses stay defined when
// floating point error pushes an argument marginally out of domain.
func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// angularDistance returns the central angle between a and b in radians
// using the haversine formula.
func angularDistance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	return angularDistance(a, b) * earthRadiusMeters
}

// initialBearingRad returns the initial bearing from a to b in radians,
// measured clockwise from true north in the range (-pi, pi].
func initialBearingRad(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return math.Atan2(y, x)
}

// Bearing returns the initial great-circle bearing from a to b in
// degrees, normalized to [0, 360).
func Bearing(a, b Point) float64 {
	deg := toDegrees(initialBearingRad(a, b))
	return math.Mod(deg+360.0, 360.0)
}

// DistanceToSegment returns the shortest distance in meters from p to the
// geodesic arc between a and b. When the perpendicular projection of p
// onto the great circle through a and b falls outside the arc, the
// distance to the nearer endpoint is returned instead. The result is
// always non-negative and finite for finite inputs.
func DistanceToSegment(p, a, b Point) float64 {
	segAngle := angularDistance(a, b)
	if segAngle == 0 {
		// Degenerate segment: both endpoints coincide.
		return Distance(p, a)
	}

	pointAngle := angularDistance(a, p)
	if pointAngle == 0 {
		return 0
	}

	bearingToPoint := initialBearingRad(a, p)
	bearingToEnd := initialBearingRad(a, b)
	relative := bearingToPoint - bearingToEnd

	// Projection falls before the segment start when the point sits more
	// than 90 degrees off the segment bearing.
	if math.Cos(relative) < 0 {
		return Distance(p, a)
	}

	// Cross-track central angle: perpendicular offset from the great
	// circle through a and b.
	crossTrack := math.Asin(clampUnit(math.Sin(pointAngle) * math.Sin(relative)))

	// Along-track central angle: arc length from a to the projection.
	alongTrack := math.Acos(clampUnit(math.Cos(pointAngle) / math.Cos(crossTrack)))
	if alongTrack > segAngle {
		return Distance(p, b)
	}

	return math.Abs(crossTrack) * earthRadiusMeters
}
