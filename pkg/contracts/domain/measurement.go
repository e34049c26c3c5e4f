// Package domain contains the shared data contracts of the SIGMON QoE dashboard:
// the loaded measurement table, the live selection, named configurations and
// the render model produced for charts, the map and the comparison tables.
package domain

import (
	"time"
)

// Column names as they appear in the source spreadsheets.
const (
	ColumnDate          = "Tanggal"
	ColumnMonth         = "Bulan"
	ColumnDateText      = "Tanggal_str"
	ColumnLocation      = "Alamat"
	ColumnRegion        = "Kabupaten/Kota"
	ColumnMode          = "Jenis Pengukuran"
	ColumnParameter     = "Parameter"
	ColumnLatitude      = "Latitude"
	ColumnLongitude     = "Longitude"
	ColumnCoordinate    = "Koordinat"
	ColumnCoordinateDMS = "Koordinat_DMS"
	ColumnOperator      = "Operator"
	ColumnValue         = "Nilai"
)

// Layouts for the derived date columns.
const (
	MonthLayout    = "January 2006"
	DateTextLayout = "02-01-2006"
)

// AllMonths is the month selector sentinel that disables the month filter.
const AllMonths = "All"

// CoordinatesUnavailable replaces both coordinate strings when a row lacks
// a latitude or longitude.
const CoordinatesUnavailable = "coordinates unavailable"

// Mode is the measurement mode found in the Jenis Pengukuran column.
type Mode string

const (
	ModeRoute  Mode = "Route Test"
	ModeStatic Mode = "Static Test"
)

// Modes lists the measurement modes in display order.
var Modes = []Mode{ModeRoute, ModeStatic}

// Valid reports whether m is one of the two measurement modes.
func (m Mode) Valid() bool {
	return m == ModeRoute || m == ModeStatic
}

// Slug is the URL form of the mode ("route" or "static").
func (m Mode) Slug() string {
	switch m {
	case ModeRoute:
		return "route"
	case ModeStatic:
		return "static"
	default:
		return ""
	}
}

// ModeFromSlug resolves "route"/"static" or a full mode name.
func ModeFromSlug(s string) (Mode, bool) {
	switch s {
	case "route", string(ModeRoute):
		return ModeRoute, true
	case "static", string(ModeStatic):
		return ModeStatic, true
	}
	return "", false
}

// Operator is one of the three tracked cellular carriers. The operator name
// is also the column header carrying its measurements.
type Operator string

const (
	OperatorTelkomsel Operator = "Telkomsel"
	OperatorIOH       Operator = "IOH"
	OperatorXL        Operator = "XL Axiata"
)

// Operators is the fixed operator order used for melting and chart series.
var Operators = []Operator{OperatorTelkomsel, OperatorIOH, OperatorXL}

// operatorColors is the fixed chart and marker color assignment.
var operatorColors = map[Operator]string{
	OperatorTelkomsel: "#E4002B",
	OperatorIOH:       "#FFC400",
	OperatorXL:        "#005BAC",
}

// Color returns the hex color assigned to the operator.
func (o Operator) Color() string {
	if c, ok := operatorColors[o]; ok {
		return c
	}
	return "#808080"
}

// Record is one normalized row of the loaded table.
type Record struct {
	// Cells holds the raw text of every column keyed by header.
	Cells map[string]string `json:"cells"`

	Date      time.Time `json:"date,omitempty"`
	HasDate   bool      `json:"has_date"`
	Month     string    `json:"month"`
	DateText  string    `json:"date_text"`
	Location  string    `json:"location"`
	Region    string    `json:"region,omitempty"`
	Mode      Mode      `json:"mode"`
	Parameter string    `json:"parameter"`

	Latitude      Value  `json:"latitude"`
	Longitude     Value  `json:"longitude"`
	Coordinate    string `json:"coordinate"`
	CoordinateDMS string `json:"coordinate_dms"`

	Values map[Operator]Value `json:"values"`
}

// Warning is a non-fatal load or pipeline notice shown next to the data.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Table is the normalized dataset held by the session. Filters never mutate it.
type Table struct {
	Source    string     `json:"source"`
	Columns   []string   `json:"columns"`
	Records   []Record   `json:"records"`
	Operators []Operator `json:"operators"`
	HasRegion bool       `json:"has_region"`
	HasCoords bool       `json:"has_coordinates"`
	Warnings  []Warning  `json:"warnings,omitempty"`
	// Halted is set when a required column is absent; the pipeline renders
	// the warnings and stops for this table.
	Halted   bool      `json:"halted"`
	LoadedAt time.Time `json:"loaded_at"`
}

// HasColumn reports whether the source header contained name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}
