package pipeline

import (
	"sigmon/pkg/contracts/domain"
)

// View is an ordered subset of a table's records, referenced by index so
// filtering never copies or mutates the table.
type View struct {
	Table *domain.Table
	Rows  []int
}

// All returns the view over every record of t.
func All(t *domain.Table) View {
	v := View{Table: t}
	if t == nil {
		return v
	}
	v.Rows = make([]int, len(t.Records))
	for i := range t.Records {
		v.Rows[i] = i
	}
	return v
}

// Len returns the number of rows in the view.
func (v View) Len() int { return len(v.Rows) }

// Record returns the i-th record of the view.
func (v View) Record(i int) *domain.Record {
	return &v.Table.Records[v.Rows[i]]
}

func (v View) filter(keep func(*domain.Record) bool) View {
	out := View{Table: v.Table, Rows: make([]int, 0, len(v.Rows))}
	for _, idx := range v.Rows {
		if keep(&v.Table.Records[idx]) {
			out.Rows = append(out.Rows, idx)
		}
	}
	return out
}

// distinct collects non-empty field values in first-appearance order.
func (v View) distinct(field func(*domain.Record) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, idx := range v.Rows {
		s := field(&v.Table.Records[idx])
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Months lists the Bulan labels present in the view.
func (v View) Months() []string {
	return v.distinct(func(r *domain.Record) string { return r.Month })
}

// Regions lists the Kabupaten/Kota values present in the view.
func (v View) Regions() []string {
	return v.distinct(func(r *domain.Record) string { return r.Region })
}

// Locations lists the Alamat values present in the view.
func (v View) Locations() []string {
	return v.distinct(func(r *domain.Record) string { return r.Location })
}

// Parameters lists the Parameter values present in the view.
func (v View) Parameters() []string {
	return v.distinct(func(r *domain.Record) string { return r.Parameter })
}

// FilterMonth keeps rows whose Bulan equals month. The "All" sentinel keeps
// every row.
func FilterMonth(v View, month string) View {
	if month == domain.AllMonths {
		return v
	}
	return v.filter(func(r *domain.Record) bool { return r.Month == month })
}

// FilterRegions keeps rows whose region is selected. An empty selection, or
// a table without a region column, keeps every row.
func FilterRegions(v View, regions []string) View {
	if len(regions) == 0 || v.Table == nil || !v.Table.HasRegion {
		return v
	}
	set := toSet(regions)
	return v.filter(func(r *domain.Record) bool { return set[r.Region] })
}

// PartitionModes splits the view into one disjoint sub-view per mode. Rows
// with any other mode value appear in neither.
func PartitionModes(v View) map[domain.Mode]View {
	parts := make(map[domain.Mode]View, len(domain.Modes))
	for _, m := range domain.Modes {
		mode := m
		parts[m] = v.filter(func(r *domain.Record) bool { return r.Mode == mode })
	}
	return parts
}

// FilterLocations keeps rows whose Alamat is selected. Unlike the region
// filter, an empty selection keeps no rows.
func FilterLocations(v View, locations []string) View {
	if len(locations) == 0 {
		return View{Table: v.Table, Rows: []int{}}
	}
	set := toSet(locations)
	return v.filter(func(r *domain.Record) bool { return set[r.Location] })
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, s := range values {
		set[s] = true
	}
	return set
}
