package pipeline

import (
	"errors"
	"fmt"

	"sigmon/pkg/contracts/domain"
)

// ErrNoData is returned when a mode has nothing to show for the selection.
var ErrNoData = errors.New("no data")

// Reshape melts the rows of v with the given parameter into long form: for
// each operator column in fixed order, one row per source record whose value
// is not missing. Identifying columns are copied from the source record.
func Reshape(v View, parameter string) ([]domain.LongRow, error) {
	if v.Table == nil || len(v.Table.Operators) == 0 {
		return nil, fmt.Errorf("%w: no operator columns", ErrNoData)
	}
	if parameter == "" {
		return nil, fmt.Errorf("%w: no parameter selected", ErrNoData)
	}

	selected := v.filter(func(r *domain.Record) bool { return r.Parameter == parameter })
	if selected.Len() == 0 {
		return nil, fmt.Errorf("%w: parameter %q not present", ErrNoData, parameter)
	}

	rows := make([]domain.LongRow, 0, selected.Len()*len(v.Table.Operators))
	for _, op := range v.Table.Operators {
		for _, idx := range selected.Rows {
			rec := &v.Table.Records[idx]
			val, ok := rec.Values[op]
			if !ok || val.IsMissing() {
				continue
			}
			rows = append(rows, domain.LongRow{
				Location:      rec.Location,
				Date:          rec.Date,
				DateText:      rec.DateText,
				Month:         rec.Month,
				Region:        rec.Region,
				Mode:          rec.Mode,
				Parameter:     rec.Parameter,
				Latitude:      rec.Latitude,
				Longitude:     rec.Longitude,
				Coordinate:    rec.Coordinate,
				CoordinateDMS: rec.CoordinateDMS,
				Operator:      op,
				Value:         val,
				Index:         idx,
			})
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: every %q value is missing", ErrNoData, parameter)
	}
	return rows, nil
}
