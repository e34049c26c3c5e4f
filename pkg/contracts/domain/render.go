package domain

import (
	"time"
)

// LongRow is one (source row, operator) pair after the wide-to-long reshape.
type LongRow struct {
	Location      string    `json:"location"`
	Date          time.Time `json:"date,omitempty"`
	DateText      string    `json:"date_text"`
	Month         string    `json:"month"`
	Region        string    `json:"region,omitempty"`
	Mode          Mode      `json:"mode"`
	Parameter     string    `json:"parameter"`
	Latitude      Value     `json:"latitude"`
	Longitude     Value     `json:"longitude"`
	Coordinate    string    `json:"coordinate"`
	CoordinateDMS string    `json:"coordinate_dms"`
	Operator      Operator  `json:"operator"`
	Value         Value     `json:"value"`
	// Index is the position of the source record in the loaded table.
	Index int `json:"index"`
}

// Extreme is a ranked long-form row.
type Extreme struct {
	Operator      Operator `json:"operator"`
	Location      string   `json:"location"`
	Value         float64  `json:"value"`
	Coordinate    string   `json:"coordinate"`
	CoordinateDMS string   `json:"coordinate_dms"`
	DateText      string   `json:"date_text"`
}

// Undetermined is reported when no numeric value is available for ranking.
const Undetermined = "cannot be determined"

// Headline carries the highest/lowest annotation for one mode and parameter.
type Headline struct {
	Determined bool     `json:"determined"`
	Highest    *Extreme `json:"highest,omitempty"`
	Lowest     *Extreme `json:"lowest,omitempty"`
	HighText   string   `json:"high_text"`
	LowText    string   `json:"low_text"`
}

// ComparisonRow is one per-operator extremes record.
type ComparisonRow struct {
	Operator  Operator `json:"operator"`
	Parameter string   `json:"parameter"`
	Mode      Mode     `json:"mode"`
	Max       Extreme  `json:"max"`
	Min       Extreme  `json:"min"`
}

// ChartSeries is one operator's bars across the chart categories.
type ChartSeries struct {
	Operator Operator `json:"operator"`
	Color    string   `json:"color"`
	// Values aligns with Chart.Categories; Missing marks an absent bar.
	Values []Value `json:"values"`
}

// Chart is a grouped bar chart keyed by location.
type Chart struct {
	Title      string        `json:"title"`
	Parameter  string        `json:"parameter"`
	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
}

// ModeStatus is the render outcome for one mode.
type ModeStatus string

const (
	StatusOK      ModeStatus = "ok"
	StatusNoData  ModeStatus = "no_data"
	StatusWarning ModeStatus = "warning"
)

// ModeResult is the pipeline output for one measurement mode.
type ModeResult struct {
	Mode       Mode            `json:"mode"`
	Status     ModeStatus      `json:"status"`
	Message    string          `json:"message,omitempty"`
	Parameter  string          `json:"parameter"`
	Rows       []LongRow       `json:"rows"`
	Chart      *Chart          `json:"chart,omitempty"`
	Headline   Headline        `json:"headline"`
	Comparison []ComparisonRow `json:"comparison"`
}

// MapMarker is a single map pin.
type MapMarker struct {
	Mode      Mode     `json:"mode"`
	Operator  Operator `json:"operator"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Icon      string   `json:"icon"`
	Color     string   `json:"color"`
	Cluster   string   `json:"cluster"`
	Popup     string   `json:"popup"`
}

// LegendEntry is a line of the static map legend.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// LatLng is a plain coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapModel is the combined marker model for both modes.
type MapModel struct {
	Markers []MapMarker   `json:"markers"`
	Legend  []LegendEntry `json:"legend"`
	Center  *LatLng       `json:"center,omitempty"`
	// Bounds holds the south-west and north-east corners.
	Bounds []LatLng `json:"bounds,omitempty"`
}

// RenderModel is everything the dashboard shows for one selection.
type RenderModel struct {
	Selection   Selection    `json:"selection"`
	Warnings    []Warning    `json:"warnings,omitempty"`
	Halted      bool         `json:"halted"`
	Modes       []ModeResult `json:"modes"`
	Map         MapModel     `json:"map"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// ModeResult returns the result block for m, or nil.
func (r *RenderModel) ModeResult(m Mode) *ModeResult {
	for i := range r.Modes {
		if r.Modes[i].Mode == m {
			return &r.Modes[i]
		}
	}
	return nil
}
