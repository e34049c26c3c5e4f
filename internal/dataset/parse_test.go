package dataset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"sigmon/internal/shared/testutil"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		want    Format
		wantErr error
	}{
		{name: "csv extension", file: "qoe.csv", data: []byte("a,b"), want: FormatCSV},
		{name: "upper case xlsx", file: "QOE.XLSX", data: nil, want: FormatXLSX},
		{name: "zip magic without name", file: "", data: []byte("PK\x03\x04rest"), want: FormatXLSX},
		{name: "text without name", file: "", data: []byte("Tanggal,Alamat"), want: FormatCSV},
		{name: "empty without name", file: "", data: nil, wantErr: ErrEmptyFile},
		{name: "pdf rejected", file: "report.pdf", data: []byte("%PDF"), wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.file, tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCSV(t *testing.T) {
	raw, err := Parse("qoe.csv", []byte(testutil.MeasurementsCSV))
	require.NoError(t, err)

	assert.Equal(t, FormatCSV, raw.Format)
	assert.Equal(t, "utf-8", raw.Encoding)
	assert.Equal(t, "qoe.csv", raw.Source)
	require.Len(t, raw.Rows, 4)
	assert.Equal(t, "SiteA", raw.Rows[0]["Alamat"])
	assert.Equal(t, "Good", raw.Rows[3]["Telkomsel"])
	assert.Equal(t, "", raw.Rows[3]["Latitude"])
}

func TestParseCSVStripsBOMAndPadsShortRows(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Tanggal,Alamat,Parameter\n2025-01-05,SiteA\n\n")...)

	raw, err := Parse("bom.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Tanggal", "Alamat", "Parameter"}, raw.Columns)
	require.Len(t, raw.Rows, 1)
	assert.Equal(t, "", raw.Rows[0]["Parameter"])
}

func TestParseCSVWindows1252(t *testing.T) {
	text := "Tanggal,Alamat,Parameter\n2025-01-05,Jl. Café Raya,Throughput\n"
	encoded, err := charmap.Windows1252.NewEncoder().String(text)
	require.NoError(t, err)

	raw, err := Parse("legacy.csv", []byte(encoded))
	require.NoError(t, err)

	assert.Equal(t, "windows-1252", raw.Encoding)
	assert.Equal(t, "Jl. Café Raya", raw.Rows[0]["Alamat"])
}

func TestParseCSVSemicolonDelimiter(t *testing.T) {
	raw, err := Parse("excel.csv", []byte("Tanggal;Alamat;Telkomsel\n05/01/2025;SiteA;12,5\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Tanggal", "Alamat", "Telkomsel"}, raw.Columns)
	assert.Equal(t, "12,5", raw.Rows[0]["Telkomsel"])
}

func TestParseDuplicateAndBlankHeaders(t *testing.T) {
	raw, err := Parse("dup.csv", []byte("Alamat,,Alamat\nA,B,C\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Alamat", "column_2", "Alamat_2"}, raw.Columns)
	assert.Equal(t, "C", raw.Rows[0]["Alamat_2"])
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("empty.csv", []byte("\n\n"))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Tanggal", "Alamat", "Jenis Pengukuran", "Parameter", "Telkomsel", "IOH", "XL Axiata"},
		{"2025-01-05", "SiteA", "Route Test", "Throughput", 50, 40, 30},
		{"2025-01-05", "SiteB", "Route Test", "Throughput", 20, 60, 45},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	raw, err := Parse("qoe.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, FormatXLSX, raw.Format)
	require.Len(t, raw.Rows, 2)
	assert.Equal(t, "SiteB", raw.Rows[1]["Alamat"])
	assert.Equal(t, "60", raw.Rows[1]["IOH"])
}

func TestParseXLSXRejectsGarbage(t *testing.T) {
	_, err := Parse("broken.xlsx", bytes.Repeat([]byte{0x01}, 32))
	assert.Error(t, err)
}

func TestFromGrid(t *testing.T) {
	raw, err := FromGrid("sheet:abc/Data", [][]string{
		{"Tanggal", "Alamat"},
		{"2025-01-05"},
	})
	require.NoError(t, err)

	assert.Equal(t, "sheet:abc/Data", raw.Source)
	assert.Equal(t, map[string]string{"Tanggal": "2025-01-05", "Alamat": ""}, raw.Rows[0])
}
