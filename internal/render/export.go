package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"sigmon/pkg/contracts/domain"
)

// Comparison sheet headers.
var comparisonHeaders = []interface{}{
	"Operator", "Parameter",
	"Max Value", "Max Location", "Max Coordinate",
	"Min Value", "Min Location", "Min Coordinate",
}

// LongRowHeaders is the header line of the long-form CSV export.
var LongRowHeaders = []string{
	"Alamat", "Tanggal", "Bulan", "Kabupaten/Kota", "Jenis Pengukuran",
	"Parameter", "Koordinat", "Operator", "Value",
}

// ComparisonXLSX writes the per-operator comparison table of every mode to
// its own worksheet, followed by the headline sentences.
func ComparisonXLSX(model *domain.RenderModel) ([]byte, error) {
	if model == nil {
		return nil, fmt.Errorf("comparison export: nil render model")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, m := range domain.Modes {
		sheet := string(m)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		if err := writeComparisonSheet(f, sheet, model.ModeResult(m), model.Selection, bold); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeComparisonSheet(f *excelize.File, sheet string, mr *domain.ModeResult, sel domain.Selection, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &comparisonHeaders); err != nil {
		return fmt.Errorf("%s headers: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "H", 20); err != nil {
		return fmt.Errorf("%s widths: %w", sheet, err)
	}

	row := 2
	if mr == nil || mr.Status != domain.StatusOK {
		msg := "no data"
		if mr != nil && mr.Message != "" {
			msg = mr.Message
		}
		return f.SetCellValue(sheet, "A2", msg)
	}

	for _, c := range mr.Comparison {
		values := []interface{}{
			string(c.Operator), c.Parameter,
			c.Max.Value, c.Max.Location, sel.PickCoordinate(c.Max.Coordinate, c.Max.CoordinateDMS),
			c.Min.Value, c.Min.Location, sel.PickCoordinate(c.Min.Coordinate, c.Min.CoordinateDMS),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, row, err)
		}
		row++
	}

	row++
	for _, line := range []string{mr.Headline.HighText, mr.Headline.LowText} {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, line); err != nil {
			return fmt.Errorf("%s headline: %w", sheet, err)
		}
		row++
	}
	return nil
}

// CSVOptions controls the long-form CSV export.
type CSVOptions struct {
	// BOMPrefix adds a UTF-8 byte order mark so spreadsheet tools detect the encoding.
	BOMPrefix bool
}

// LongRowsCSV writes the long rows of every mode that produced data.
func LongRowsCSV(w io.Writer, model *domain.RenderModel, opts CSVOptions) (int, error) {
	if model == nil {
		return 0, fmt.Errorf("csv export: nil render model")
	}
	if opts.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return 0, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(LongRowHeaders); err != nil {
		return 0, fmt.Errorf("failed to write headers: %w", err)
	}

	n := 0
	for _, mr := range model.Modes {
		for _, r := range mr.Rows {
			record := []string{
				r.Location, r.DateText, r.Month, r.Region, string(r.Mode),
				r.Parameter, model.Selection.PickCoordinate(r.Coordinate, r.CoordinateDMS),
				string(r.Operator), r.Value.String(),
			}
			if err := cw.Write(record); err != nil {
				return n, fmt.Errorf("failed to write record %d: %w", n, err)
			}
			n++
		}
	}
	cw.Flush()
	return n, cw.Error()
}
