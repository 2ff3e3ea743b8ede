package gpsmux

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentences that carry no position solution are reported with these
// sentinel errors so callers can tell "skip this line" from a corrupt
// sentence.
var (
	// ErrUnsupportedSentence marks a well-formed sentence of a type the
	// parser does not extract positions from (GSV, VTG, proprietary).
	ErrUnsupportedSentence = errors.New("unsupported nmea sentence")

	// ErrNoFix marks an RMC with void status or a GGA with fix quality
	// zero: the receiver is talking but has no position solution.
	ErrNoFix = errors.New("receiver has no fix")
)

const metersPerSecondPerKnot = 1852.0 / 3600.0

// Fix is one position solution extracted from an RMC or GGA sentence.
// HDOP and Satellites are carried by GGA only; Speed and Course by RMC
// only. Zero values mean the sentence did not carry the field.
type Fix struct {
	Lat        float64
	Lon        float64
	HDOP       float64
	Satellites int
	SpeedMS    float64
	CourseDeg  float64
	Sentence   string
}

// AccuracyMeters estimates the horizontal error of this fix from its
// dilution of precision. baseError is the receiver's error at HDOP 1;
// sentences without an HDOP field fall back to it unscaled.
func (f Fix) AccuracyMeters(baseError float64) float64 {
	if f.HDOP > 0 {
		return f.HDOP * baseError
	}
	return baseError
}

// ParseFix extracts a position solution from one NMEA 0183 sentence.
// RMC and GGA sentences from any talker (GP, GN, GL, ...) are
// understood; everything else returns ErrUnsupportedSentence. The
// sentence checksum is mandatory and verified.
func ParseFix(line string) (Fix, error) {
	body, err := checksumBody(line)
	if err != nil {
		return Fix{}, err
	}

	fields := strings.Split(body, ",")
	typ := fields[0]
	if len(typ) != 5 {
		return Fix{}, ErrUnsupportedSentence
	}

	switch typ[2:] {
	case "RMC":
		return parseRMC(fields)
	case "GGA":
		return parseGGA(fields)
	}
	return Fix{}, ErrUnsupportedSentence
}

// checksumBody strips the framing from a sentence and verifies its
// checksum, returning the bare body between '$' and '*'.
func checksumBody(line string) (string, error) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "$") {
		return "", fmt.Errorf("sentence does not start with $: %q", line)
	}
	star := strings.LastIndexByte(s, '*')
	if star < 0 || len(s)-star != 3 {
		return "", fmt.Errorf("sentence has no two-digit checksum: %q", line)
	}

	body := s[1:star]
	want, err := strconv.ParseUint(s[star+1:], 16, 8)
	if err != nil {
		return "", fmt.Errorf("bad checksum digits in %q: %w", line, err)
	}

	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	if sum != byte(want) {
		return "", fmt.Errorf("checksum mismatch in %q: computed %02X, sentence says %02X", line, sum, want)
	}
	return body, nil
}

// parseRMC reads the recommended minimum sentence:
//
//	$GPRMC,time,status,lat,NS,lon,EW,speed_knots,course,date,...*hh
func parseRMC(fields []string) (Fix, error) {
	if len(fields) < 7 {
		return Fix{}, fmt.Errorf("rmc sentence has %d fields, want at least 7", len(fields))
	}
	if fields[2] != "A" {
		return Fix{}, ErrNoFix
	}

	lat, err := parseCoordinate(fields[3], fields[4])
	if err != nil {
		return Fix{}, fmt.Errorf("rmc latitude: %w", err)
	}
	lon, err := parseCoordinate(fields[5], fields[6])
	if err != nil {
		return Fix{}, fmt.Errorf("rmc longitude: %w", err)
	}

	fix := Fix{Lat: lat, Lon: lon, Sentence: "RMC"}
	if len(fields) > 7 && fields[7] != "" {
		knots, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return Fix{}, fmt.Errorf("rmc speed %q: %w", fields[7], err)
		}
		fix.SpeedMS = knots * metersPerSecondPerKnot
	}
	if len(fields) > 8 && fields[8] != "" {
		course, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return Fix{}, fmt.Errorf("rmc course %q: %w", fields[8], err)
		}
		fix.CourseDeg = course
	}
	return fix, nil
}

// parseGGA reads the fix data sentence:
//
//	$GPGGA,time,lat,NS,lon,EW,quality,numSV,hdop,alt,...*hh
func parseGGA(fields []string) (Fix, error) {
	if len(fields) < 7 {
		return Fix{}, fmt.Errorf("gga sentence has %d fields, want at least 7", len(fields))
	}
	if fields[6] == "" || fields[6] == "0" {
		return Fix{}, ErrNoFix
	}

	lat, err := parseCoordinate(fields[2], fields[3])
	if err != nil {
		return Fix{}, fmt.Errorf("gga latitude: %w", err)
	}
	lon, err := parseCoordinate(fields[4], fields[5])
	if err != nil {
		return Fix{}, fmt.Errorf("gga longitude: %w", err)
	}

	fix := Fix{Lat: lat, Lon: lon, Sentence: "GGA"}
	if len(fields) > 7 && fields[7] != "" {
		sats, err := strconv.Atoi(fields[7])
		if err != nil {
			return Fix{}, fmt.Errorf("gga satellite count %q: %w", fields[7], err)
		}
		fix.Satellites = sats
	}
	if len(fields) > 8 && fields[8] != "" {
		hdop, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return Fix{}, fmt.Errorf("gga hdop %q: %w", fields[8], err)
		}
		fix.HDOP = hdop
	}
	return fix, nil
}

// parseCoordinate converts an NMEA ddmm.mmmm value and its hemisphere
// letter to signed decimal degrees.
func parseCoordinate(value, hemisphere string) (float64, error) {
	if value == "" || hemisphere == "" {
		return 0, errors.New("empty coordinate field")
	}
	raw, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q: %w", value, err)
	}

	degrees := float64(int(raw / 100))
	minutes := raw - degrees*100
	if minutes >= 60 {
		return 0, fmt.Errorf("coordinate %q has %.4f minutes", value, minutes)
	}
	decimal := degrees + minutes/60

	switch hemisphere {
	case "N", "E":
		return decimal, nil
	case "S", "W":
		return -decimal, nil
	}
	return 0, fmt.Errorf("unknown hemisphere %q", hemisphere)
}
