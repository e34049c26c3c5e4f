package pipeline

import (
	"errors"
	"fmt"
	"time"

	"sigmon/internal/dataset"
	"sigmon/pkg/contracts/domain"
)

// ErrNoTable is returned when the pipeline runs before any table is loaded.
var ErrNoTable = errors.New("no table loaded")

// Run executes the whole chain for sel against the original table: month,
// region, mode partition, per-mode location filter, reshape and aggregation.
// The map model is left empty for the presentation layer to fill.
func Run(t *domain.Table, sel domain.Selection) (*domain.RenderModel, error) {
	if t == nil {
		return nil, ErrNoTable
	}

	model := &domain.RenderModel{
		Selection:   sel.Clone(),
		Warnings:    append([]domain.Warning(nil), t.Warnings...),
		Halted:      t.Halted,
		Modes:       make([]domain.ModeResult, 0, len(domain.Modes)),
		GeneratedAt: time.Now(),
	}

	if t.Halted {
		for _, m := range domain.Modes {
			model.Modes = append(model.Modes, domain.ModeResult{
				Mode:       m,
				Status:     domain.StatusWarning,
				Message:    haltMessage(t),
				Parameter:  sel.ForMode(m).Parameter,
				Rows:       []domain.LongRow{},
				Headline:   domain.Headline{HighText: domain.Undetermined, LowText: domain.Undetermined},
				Comparison: []domain.ComparisonRow{},
			})
		}
		return model, nil
	}

	view := FilterRegions(FilterMonth(All(t), sel.Month), sel.Regions)
	parts := PartitionModes(view)
	for _, m := range domain.Modes {
		model.Modes = append(model.Modes, runMode(parts[m], m, sel))
	}
	return model, nil
}

// runMode produces the result for one mode partition. Empty results are
// reported as a no-data status, never as an error.
func runMode(part View, m domain.Mode, sel domain.Selection) domain.ModeResult {
	ms := sel.ForMode(m)
	result := domain.ModeResult{
		Mode:       m,
		Parameter:  ms.Parameter,
		Rows:       []domain.LongRow{},
		Comparison: []domain.ComparisonRow{},
	}

	rows, err := Reshape(FilterLocations(part, ms.Locations), ms.Parameter)
	if err != nil {
		result.Status = domain.StatusNoData
		result.Message = fmt.Sprintf("no data for %s", m)
		result.Headline = domain.Headline{HighText: domain.Undetermined, LowText: domain.Undetermined}
		return result
	}

	result.Status = domain.StatusOK
	result.Rows = rows
	result.Chart = BuildChart(rows, part.Table.Operators, ms.Parameter, m)
	result.Headline = Headline(rows, ms.Parameter, sel)
	result.Comparison = Compare(rows, ms.Parameter, m)
	return result
}

func haltMessage(t *domain.Table) string {
	for _, w := range t.Warnings {
		if w.Code == dataset.WarnMissingColumn {
			return w.Message
		}
	}
	return "the loaded table cannot be processed"
}
