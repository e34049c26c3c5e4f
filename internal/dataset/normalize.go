package dataset

import (
	"fmt"
	"strings"
	"time"

	"sigmon/pkg/contracts/domain"
)

// Warning codes attached to a normalized table.
const (
	WarnMissingColumn     = "missing_column"
	WarnUnknownMode       = "unknown_mode"
	WarnUnparsedDate      = "unparsed_date"
	WarnInvalidCoordinate = "invalid_coordinate"
	WarnNoOperators       = "no_operator_columns"
)

// RequiredColumns must all be present for the pipeline to run.
var RequiredColumns = []string{
	domain.ColumnDate,
	domain.ColumnLocation,
	domain.ColumnMode,
	domain.ColumnParameter,
}

// MissingColumnError reports a required column absent from the header.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing", e.Column)
}

// CheckColumns returns a *MissingColumnError for the first required column
// not found in columns.
func CheckColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for _, req := range RequiredColumns {
		if !present[req] {
			return &MissingColumnError{Column: req}
		}
	}
	return nil
}

// Normalize converts a Raw table into the typed table the pipeline reads.
// A missing required column does not fail the load: the table is returned
// with Halted set and a warning explaining why.
func Normalize(raw *Raw) (*domain.Table, error) {
	if raw == nil || len(raw.Columns) == 0 {
		return nil, ErrEmptyFile
	}

	table := &domain.Table{
		Source:   raw.Source,
		Columns:  append([]string(nil), raw.Columns...),
		Records:  make([]domain.Record, 0, len(raw.Rows)),
		LoadedAt: time.Now(),
	}
	table.HasRegion = table.HasColumn(domain.ColumnRegion)
	table.HasCoords = table.HasColumn(domain.ColumnLatitude) && table.HasColumn(domain.ColumnLongitude)
	for _, op := range domain.Operators {
		if table.HasColumn(string(op)) {
			table.Operators = append(table.Operators, op)
		}
	}

	if err := CheckColumns(raw.Columns); err != nil {
		table.Halted = true
		table.Warnings = append(table.Warnings, domain.Warning{Code: WarnMissingColumn, Message: err.Error()})
	}
	if len(table.Operators) == 0 {
		table.Warnings = append(table.Warnings, domain.Warning{
			Code:    WarnNoOperators,
			Message: "no operator columns (Telkomsel, IOH, XL Axiata) found",
		})
	}

	var unknownModes, badDates, badCoords int
	for _, cells := range raw.Rows {
		rec := normalizeRecord(cells, table)
		if !rec.Mode.Valid() {
			unknownModes++
		}
		if !rec.HasDate && strings.TrimSpace(cells[domain.ColumnDate]) != "" {
			badDates++
		}
		if table.HasCoords && rec.Coordinate == domain.CoordinatesUnavailable &&
			(strings.TrimSpace(cells[domain.ColumnLatitude]) != "" || strings.TrimSpace(cells[domain.ColumnLongitude]) != "") {
			badCoords++
		}
		table.Records = append(table.Records, rec)
	}

	if unknownModes > 0 && table.HasColumn(domain.ColumnMode) {
		table.Warnings = append(table.Warnings, domain.Warning{
			Code:    WarnUnknownMode,
			Message: fmt.Sprintf("%d rows have a measurement type other than %q or %q and are excluded", unknownModes, domain.ModeRoute, domain.ModeStatic),
		})
	}
	if badDates > 0 {
		table.Warnings = append(table.Warnings, domain.Warning{
			Code:    WarnUnparsedDate,
			Message: fmt.Sprintf("%d rows have a date that could not be parsed", badDates),
		})
	}
	if badCoords > 0 {
		table.Warnings = append(table.Warnings, domain.Warning{
			Code:    WarnInvalidCoordinate,
			Message: fmt.Sprintf("%d rows have an unusable latitude or longitude", badCoords),
		})
	}

	return table, nil
}

func normalizeRecord(cells map[string]string, table *domain.Table) domain.Record {
	rec := domain.Record{
		Cells:     cells,
		Location:  strings.TrimSpace(cells[domain.ColumnLocation]),
		Region:    strings.TrimSpace(cells[domain.ColumnRegion]),
		Mode:      normalizeMode(cells[domain.ColumnMode]),
		Parameter: strings.TrimSpace(cells[domain.ColumnParameter]),
		Latitude:  domain.Missing(),
		Longitude: domain.Missing(),
		Values:    make(map[domain.Operator]domain.Value, len(table.Operators)),
	}

	if d, ok := ParseDate(cells[domain.ColumnDate]); ok {
		rec.Date = d
		rec.HasDate = true
		rec.Month = d.Format(domain.MonthLayout)
		rec.DateText = d.Format(domain.DateTextLayout)
	}

	lat, latOK := parseCoordinate(cells[domain.ColumnLatitude])
	lng, lngOK := parseCoordinate(cells[domain.ColumnLongitude])
	if latOK && lngOK && ValidLatLng(lat, lng) {
		rec.Latitude = domain.Numeric(lat)
		rec.Longitude = domain.Numeric(lng)
	}
	DeriveCoordinates(&rec)

	for _, op := range table.Operators {
		rec.Values[op] = CoerceValue(cells[string(op)])
	}
	return rec
}

// normalizeMode canonicalises the measurement type case-insensitively.
// Other values are kept verbatim and belong to neither partition.
func normalizeMode(cell string) domain.Mode {
	s := strings.TrimSpace(cell)
	for _, m := range domain.Modes {
		if strings.EqualFold(s, string(m)) {
			return m
		}
	}
	return domain.Mode(s)
}
