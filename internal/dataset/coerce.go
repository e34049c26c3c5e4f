package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"sigmon/pkg/contracts/domain"
)

// qualitativeScores maps survey labels (English and Indonesian) onto a
// numeric scale so they rank alongside measured values.
var qualitativeScores = map[string]float64{
	"excellent":   4,
	"sangat baik": 4,
	"good":        3,
	"baik":        3,
	"fair":        2,
	"cukup":       2,
	"poor":        1,
	"buruk":       1,
}

// CoerceValue converts an operator cell into the tagged value variant.
// Coercion never fails: unrecognised text is kept as Text.
func CoerceValue(cell string) domain.Value {
	s := strings.TrimSpace(cell)
	if isBlank(s) {
		return domain.Missing()
	}
	if score, ok := qualitativeScores[strings.ToLower(s)]; ok {
		return domain.Numeric(score)
	}
	if f, ok := parseNumber(s); ok {
		return domain.Numeric(f)
	}
	return domain.Text(s)
}

func isBlank(s string) bool {
	return s == "" || s == "-" || strings.EqualFold(s, "nan")
}

// parseNumber accepts a dot decimal or, when no dot is present, a single
// comma decimal separator followed by one or two digits ("12,5"). A comma
// with three digits after it reads as thousands grouping and is rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		if frac := len(s) - strings.Index(s, ",") - 1; frac < 1 || frac > 2 {
			return 0, false
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// dateLayouts are tried in order. Day-first layouts precede month-first ones
// because the source sheets are Indonesian.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"January 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
}

// excelEpoch is day zero of the 1900 date system as Excel counts it
// (including the phantom 1900-02-29).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses a Tanggal cell. The second result is false when the cell
// is blank or matches no known layout.
func ParseDate(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if isBlank(s) {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Serial day numbers from spreadsheet exports. Values below 61 fall in the
	// range Excel miscounts and are rejected along with anything past 9999-12-31.
	if f, ok := parseNumber(s); ok && f >= 61 && f < 2958466 {
		days := math.Floor(f)
		frac := f - days
		t := excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(frac * float64(24*time.Hour)))
		return t, true
	}
	return time.Time{}, false
}
