package domain

import (
	"time"
)

// CoordinateFormat selects which coordinate string is shown in headlines and popups.
type CoordinateFormat string

const (
	CoordinateDecimal CoordinateFormat = "decimal"
	CoordinateDMS     CoordinateFormat = "dms"
)

// ModeSelection holds the per-mode location subset and chosen parameter.
type ModeSelection struct {
	Locations []string `json:"locations"`
	Parameter string   `json:"parameter"`
}

// Selection is the live filter state applied on every render.
type Selection struct {
	Month            string           `json:"month" validate:"required,month"`
	Regions          []string         `json:"regions"`
	Route            ModeSelection    `json:"route"`
	Static           ModeSelection    `json:"static"`
	ShowCoordinates  bool             `json:"show_coordinates"`
	CoordinateFormat CoordinateFormat `json:"coordinate_format" validate:"omitempty,oneof=decimal dms"`
}

// ForMode returns the selection block for m.
func (s Selection) ForMode(m Mode) ModeSelection {
	if m == ModeStatic {
		return s.Static
	}
	return s.Route
}

// WithMode returns a copy of s with the block for m replaced.
func (s Selection) WithMode(m Mode, ms ModeSelection) Selection {
	if m == ModeStatic {
		s.Static = ms
	} else {
		s.Route = ms
	}
	return s
}

// Clone returns a deep copy so stored snapshots never alias live slices.
func (s Selection) Clone() Selection {
	c := s
	c.Regions = cloneStrings(s.Regions)
	c.Route.Locations = cloneStrings(s.Route.Locations)
	c.Static.Locations = cloneStrings(s.Static.Locations)
	return c
}

// PickCoordinate returns the coordinate string in the selected format.
func (s Selection) PickCoordinate(decimal, dms string) string {
	if s.CoordinateFormat == CoordinateDMS {
		return dms
	}
	return decimal
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Configuration is a named snapshot of a selection.
type Configuration struct {
	Name      string    `json:"name" validate:"required,min=1,max=100"`
	Selection Selection `json:"selection"`
	SavedAt   time.Time `json:"saved_at"`
}

// Options are the cascaded choice lists offered to the selectors. Each list
// is computed from the view produced by the stages before it.
type Options struct {
	Months     []string           `json:"months"`
	Regions    []string           `json:"regions"`
	HasRegion  bool               `json:"has_region"`
	Locations  map[Mode][]string  `json:"locations"`
	Parameters map[Mode][]string  `json:"parameters"`
	Operators  []Operator         `json:"operators"`
	Formats    []CoordinateFormat `json:"coordinate_formats"`
	Counts     map[Mode]int       `json:"row_counts"`
}
