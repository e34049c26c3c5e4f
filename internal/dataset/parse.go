package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Format identifies the container of an uploaded table.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSheets Format = "sheets"
)

var (
	ErrEmptyFile         = errors.New("file contains no header row")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Raw is an un-normalized table: a header and one cell map per data row.
// Rows shorter than the header are padded with empty strings.
type Raw struct {
	Source   string
	Format   Format
	Encoding string
	Columns  []string
	Rows     []map[string]string
}

// DetectFormat picks the parser from the file extension, falling back to
// content sniffing for unnamed uploads.
func DetectFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case "":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}

	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return FormatXLSX, nil
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	return FormatCSV, nil
}

// Parse reads an uploaded CSV or XLSX file into a Raw table.
func Parse(name string, data []byte) (*Raw, error) {
	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}

	var raw *Raw
	switch format {
	case FormatXLSX:
		raw, err = parseXLSX(data)
	default:
		raw, err = parseCSV(data)
	}
	if err != nil {
		return nil, err
	}
	raw.Source = name
	raw.Format = format
	return raw, nil
}

// decodeText strips a UTF-8 BOM and falls back to Windows-1252 when the bytes
// are not valid UTF-8.
func decodeText(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}
	text, err := charmap.Windows1252.NewDecoder().String(string(data))
	if err != nil {
		return "", "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return text, "windows-1252", nil
}

// sniffDelimiter prefers a comma and switches to a semicolon only when the
// header line has semicolons and no commas.
func sniffDelimiter(text string) rune {
	header := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		header = text[:i]
	}
	if !strings.Contains(header, ",") && strings.Contains(header, ";") {
		return ';'
	}
	return ','
}

func parseCSV(data []byte) (*Raw, error) {
	text, encoding, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, rec)
	}

	raw, err := fromGrid(records)
	if err != nil {
		return nil, err
	}
	raw.Encoding = encoding
	return raw, nil
}

func parseXLSX(data []byte) (*Raw, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	// Raw values keep dates as serial day numbers instead of the cell's
	// locale-dependent display format.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	raw, err := fromGrid(rows)
	if err != nil {
		return nil, err
	}
	raw.Encoding = "xlsx"
	return raw, nil
}

// FromGrid builds a Raw table from a header row followed by data rows, as
// returned by a worksheet read.
func FromGrid(source string, grid [][]string) (*Raw, error) {
	raw, err := fromGrid(grid)
	if err != nil {
		return nil, err
	}
	raw.Source = source
	return raw, nil
}

func fromGrid(grid [][]string) (*Raw, error) {
	headerIdx := -1
	for i, row := range grid {
		if !blankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}

	columns := uniqueColumns(grid[headerIdx])
	raw := &Raw{Columns: columns}

	for _, row := range grid[headerIdx+1:] {
		if blankRow(row) {
			continue
		}
		cells := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				cells[col] = strings.TrimSpace(row[i])
			} else {
				cells[col] = ""
			}
		}
		raw.Rows = append(raw.Rows, cells)
	}
	return raw, nil
}

// uniqueColumns trims header names, names blank headers by position and
// suffixes duplicates so every cell map key is distinct.
func uniqueColumns(header []string) []string {
	result := make([]string, 0, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if seen[name] > 1 {
			name = fmt.Sprintf("%s_%d", name, seen[name])
		}
		result = append(result, name)
	}
	return result
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
