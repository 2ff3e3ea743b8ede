// Package units converts the metric quantities the engine works in to
// the operator's configured display system
package units

// Display system constants
const (
	Metric   = "metric"
	Imperial = "imperial"
)

// ValidSystems contains all valid display system values
var ValidSystems = []string{Metric, Imperial}

// IsValid checks if the given system is in the list of valid systems
func IsValid(system string) bool {
	for _, validSystem := range ValidSystems {
		if system == validSystem {
			return true
		}
	}
	return false
}

// GetValidSystemsString returns a comma-separated string of valid systems for error messages
func GetValidSystemsString() string {
	return "metric, imperial"
}

const (
	kmhPerMps    = 3.6
	mphPerMps    = 2.2369362920544
	feetPerMeter = 3.280839895013123
)

// ConvertSpeed converts a speed from meters per second to the system's
// display unit: km/h for metric, mph for imperial.
// The engine and journal always work in m/s
func ConvertSpeed(speedMPS float64, system string) float64 {
	switch system {
	case Imperial:
		return speedMPS * mphPerMps
	default:
		return speedMPS * kmhPerMps
	}
}

// SpeedLabel returns the speed unit label for the system
func SpeedLabel(system string) string {
	if system == Imperial {
		return "mph"
	}
	return "km/h"
}

// ConvertDistance converts a distance from meters to the system's
// short-distance display unit: meters for metric, feet for imperial.
// The engine and journal always work in meters
func ConvertDistance(meters float64, system string) float64 {
	if system == Imperial {
		return meters * feetPerMeter
	}
	return meters
}

// DistanceLabel returns the short-distance unit label for the system
func DistanceLabel(system string) string {
	if system == Imperial {
		return "ft"
	}
	return "m"
}
