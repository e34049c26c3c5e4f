package pipeline

import (
	"sigmon/pkg/contracts/domain"
)

// Options computes the cascaded selector choices for sel: months from the
// whole table, regions after the month filter, locations and parameters per
// mode after the region filter, and row counts after the location filter.
func Options(t *domain.Table, sel domain.Selection) domain.Options {
	opts := domain.Options{
		Months:     []string{domain.AllMonths},
		Regions:    []string{},
		Locations:  make(map[domain.Mode][]string, len(domain.Modes)),
		Parameters: make(map[domain.Mode][]string, len(domain.Modes)),
		Counts:     make(map[domain.Mode]int, len(domain.Modes)),
		Formats:    []domain.CoordinateFormat{domain.CoordinateDecimal, domain.CoordinateDMS},
		Operators:  []domain.Operator{},
	}
	if t == nil {
		return opts
	}

	all := All(t)
	opts.Months = append(opts.Months, all.Months()...)
	opts.HasRegion = t.HasRegion
	if t.Operators != nil {
		opts.Operators = t.Operators
	}

	monthView := FilterMonth(all, sel.Month)
	if t.HasRegion {
		opts.Regions = monthView.Regions()
	}

	parts := PartitionModes(FilterRegions(monthView, sel.Regions))
	for _, m := range domain.Modes {
		part := parts[m]
		opts.Locations[m] = part.Locations()
		opts.Parameters[m] = part.Parameters()
		opts.Counts[m] = FilterLocations(part, sel.ForMode(m).Locations).Len()
	}
	return opts
}

// DefaultSelection is the selection applied when a table is loaded: every
// month, no region restriction, every location of each mode, the first
// parameter of each mode, and decimal coordinates shown.
func DefaultSelection(t *domain.Table) domain.Selection {
	sel := domain.Selection{
		Month:            domain.AllMonths,
		Regions:          []string{},
		ShowCoordinates:  true,
		CoordinateFormat: domain.CoordinateDecimal,
	}
	parts := PartitionModes(All(t))
	for _, m := range domain.Modes {
		part := parts[m]
		ms := domain.ModeSelection{Locations: part.Locations()}
		if params := part.Parameters(); len(params) > 0 {
			ms.Parameter = params[0]
		}
		sel = sel.WithMode(m, ms)
	}
	return sel
}
