package dataset

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"

	"sigmon/pkg/contracts/domain"
)

// ErrInvalidDMS is returned when a degrees-minutes-seconds string cannot be parsed.
var ErrInvalidDMS = errors.New("invalid degrees-minutes-seconds coordinate")

// centiArcsecondsPerDegree converts degrees to hundredths of an arcsecond,
// the resolution of the DMS rendering.
const centiArcsecondsPerDegree = 3600 * 100

// ValidLatLng reports whether the pair is a point on the sphere.
func ValidLatLng(lat, lng float64) bool {
	return s2.LatLngFromDegrees(lat, lng).IsValid()
}

// FormatDecimal renders a coordinate pair with six decimal places.
func FormatDecimal(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

// FormatDMS renders a coordinate pair as D°M'S.ss"H, D°M'S.ss"H.
func FormatDMS(lat, lng float64) string {
	return formatDMSComponent(lat, "N", "S") + ", " + formatDMSComponent(lng, "E", "W")
}

// formatDMSComponent works in whole hundredths of an arcsecond so rounding
// can never produce a 60.00 seconds field.
func formatDMSComponent(v float64, pos, neg string) string {
	hemi := pos
	if v < 0 {
		hemi = neg
	}
	total := int64(math.Round(math.Abs(v) * centiArcsecondsPerDegree))
	deg := total / centiArcsecondsPerDegree
	rem := total % centiArcsecondsPerDegree
	mins := rem / 6000
	cs := rem % 6000
	return fmt.Sprintf("%d°%d'%d.%02d\"%s", deg, mins, cs/100, cs%100, hemi)
}

var dmsPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*°\s*(?:(\d+(?:\.\d+)?)\s*['′]\s*)?(?:(\d+(?:\.\d+)?)\s*["″]\s*)?([NSEWnsew])?\s*$`)

// parseDMSComponent parses one D°M'S"H value into signed decimal degrees.
func parseDMSComponent(s string) (float64, error) {
	m := dmsPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDMS, s)
	}
	var parts [3]float64
	for i := 0; i < 3; i++ {
		if m[i+1] == "" {
			continue
		}
		f, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDMS, s)
		}
		parts[i] = f
	}
	if parts[1] >= 60 || parts[2] >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDMS, s)
	}
	v := parts[0] + parts[1]/60 + parts[2]/3600
	switch strings.ToUpper(m[4]) {
	case "S", "W":
		v = -v
	}
	return v, nil
}

// ParseDMS parses a pair produced by FormatDMS back into decimal degrees.
func ParseDMS(s string) (lat, lng float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDMS, s)
	}
	if lat, err = parseDMSComponent(parts[0]); err != nil {
		return 0, 0, err
	}
	if lng, err = parseDMSComponent(parts[1]); err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// parseCoordinate accepts a decimal degree cell (dot or comma decimal) or a
// single DMS component.
func parseCoordinate(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if isBlank(s) {
		return 0, false
	}
	num := s
	if !strings.Contains(num, ".") && strings.Count(num, ",") == 1 {
		num = strings.Replace(num, ",", ".", 1)
	}
	if f, ok := parseNumber(num); ok {
		return f, true
	}
	if strings.Contains(s, "°") {
		if f, err := parseDMSComponent(s); err == nil {
			return f, true
		}
	}
	return 0, false
}

// DeriveCoordinates fills the Koordinat and Koordinat_DMS strings of rec
// from its latitude and longitude. It only reads Latitude and Longitude, so
// repeated calls yield the same strings.
func DeriveCoordinates(rec *domain.Record) {
	lat, latOK := rec.Latitude.Float()
	lng, lngOK := rec.Longitude.Float()
	if !latOK || !lngOK {
		rec.Coordinate = domain.CoordinatesUnavailable
		rec.CoordinateDMS = domain.CoordinatesUnavailable
		return
	}
	rec.Coordinate = FormatDecimal(lat, lng)
	rec.CoordinateDMS = FormatDMS(lat, lng)
}
