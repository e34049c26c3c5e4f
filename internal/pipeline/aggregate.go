package pipeline

import (
	"fmt"
	"sort"

	"sigmon/pkg/contracts/domain"
)

// extremes returns the positions of the highest and lowest numeric values,
// or -1 when no row is numeric. Among equal values the first row in slice
// order wins.
func extremes(rows []domain.LongRow) (hi, lo int) {
	hi, lo = -1, -1
	var hiVal, loVal float64
	for i, r := range rows {
		f, ok := r.Value.Float()
		if !ok {
			continue
		}
		if hi < 0 || f > hiVal {
			hi, hiVal = i, f
		}
		if lo < 0 || f < loVal {
			lo, loVal = i, f
		}
	}
	return hi, lo
}

func toExtreme(r domain.LongRow) domain.Extreme {
	f, _ := r.Value.Float()
	return domain.Extreme{
		Operator:      r.Operator,
		Location:      r.Location,
		Value:         f,
		Coordinate:    r.Coordinate,
		CoordinateDMS: r.CoordinateDMS,
		DateText:      r.DateText,
	}
}

// Headline finds the overall highest and lowest value for the parameter and
// phrases them. With no numeric value both sentences read "cannot be
// determined".
func Headline(rows []domain.LongRow, parameter string, sel domain.Selection) domain.Headline {
	hi, lo := extremes(rows)
	if hi < 0 {
		return domain.Headline{
			HighText: domain.Undetermined,
			LowText:  domain.Undetermined,
		}
	}

	high := toExtreme(rows[hi])
	low := toExtreme(rows[lo])
	return domain.Headline{
		Determined: true,
		Highest:    &high,
		Lowest:     &low,
		HighText:   headlineText(high, "highest", parameter, sel),
		LowText:    headlineText(low, "lowest", parameter, sel),
	}
}

func headlineText(e domain.Extreme, rank, parameter string, sel domain.Selection) string {
	text := fmt.Sprintf("%s has the %s %s at %s", e.Operator, rank, parameter, e.Location)
	if sel.ShowCoordinates {
		text += fmt.Sprintf(" (%s)", sel.PickCoordinate(e.Coordinate, e.CoordinateDMS))
	}
	return text
}

// Compare produces one row per operator that has at least one numeric value,
// in the fixed operator order, with that operator's own maximum and minimum.
func Compare(rows []domain.LongRow, parameter string, mode domain.Mode) []domain.ComparisonRow {
	byOperator := make(map[domain.Operator][]domain.LongRow)
	for _, r := range rows {
		byOperator[r.Operator] = append(byOperator[r.Operator], r)
	}

	out := []domain.ComparisonRow{}
	for _, op := range domain.Operators {
		hi, lo := extremes(byOperator[op])
		if hi < 0 {
			continue
		}
		out = append(out, domain.ComparisonRow{
			Operator:  op,
			Parameter: parameter,
			Mode:      mode,
			Max:       toExtreme(byOperator[op][hi]),
			Min:       toExtreme(byOperator[op][lo]),
		})
	}
	return out
}

// BuildChart groups numeric values by location (in table order) and operator.
// Repeated measurements of the same location and operator are averaged.
func BuildChart(rows []domain.LongRow, operators []domain.Operator, parameter string, mode domain.Mode) *domain.Chart {
	type cell struct {
		sum float64
		n   int
	}
	firstSeen := make(map[string]int)
	cells := make(map[string]map[domain.Operator]*cell)

	for _, r := range rows {
		if idx, ok := firstSeen[r.Location]; !ok || r.Index < idx {
			firstSeen[r.Location] = r.Index
		}
		f, ok := r.Value.Float()
		if !ok {
			continue
		}
		byOp := cells[r.Location]
		if byOp == nil {
			byOp = make(map[domain.Operator]*cell)
			cells[r.Location] = byOp
		}
		c := byOp[r.Operator]
		if c == nil {
			c = &cell{}
			byOp[r.Operator] = c
		}
		c.sum += f
		c.n++
	}

	categories := make([]string, 0, len(firstSeen))
	for loc := range firstSeen {
		categories = append(categories, loc)
	}
	sort.Slice(categories, func(i, j int) bool {
		return firstSeen[categories[i]] < firstSeen[categories[j]]
	})

	chart := &domain.Chart{
		Title:      fmt.Sprintf("%s at selected locations (%s)", parameter, mode),
		Parameter:  parameter,
		Categories: categories,
		Series:     make([]domain.ChartSeries, 0, len(operators)),
	}
	for _, op := range operators {
		values := make([]domain.Value, len(categories))
		for i, loc := range categories {
			if c := cells[loc][op]; c != nil && c.n > 0 {
				values[i] = domain.Numeric(c.sum / float64(c.n))
			} else {
				values[i] = domain.Missing()
			}
		}
		chart.Series = append(chart.Series, domain.ChartSeries{
			Operator: op,
			Color:    op.Color(),
			Values:   values,
		})
	}
	return chart
}
