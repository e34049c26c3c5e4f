package render

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sigmon/internal/dataset"
	"sigmon/internal/pipeline"
	"sigmon/internal/shared/testutil"
	"sigmon/pkg/contracts/domain"
)

func januarySelection() domain.Selection {
	return domain.Selection{
		Month:            "January 2025",
		Regions:          []string{},
		Route:            domain.ModeSelection{Locations: []string{"SiteA", "SiteB"}, Parameter: "Throughput"},
		Static:           domain.ModeSelection{Locations: []string{"SiteC", "SiteD"}, Parameter: "Throughput"},
		ShowCoordinates:  true,
		CoordinateFormat: domain.CoordinateDecimal,
	}
}

func runModel(t *testing.T, sel domain.Selection) *domain.RenderModel {
	t.Helper()
	raw, err := dataset.Parse("m.csv", []byte(testutil.MeasurementsCSV))
	require.NoError(t, err)
	table, err := dataset.Normalize(raw)
	require.NoError(t, err)
	model, err := pipeline.Run(table, sel)
	require.NoError(t, err)
	return model
}

func TestChartPNG(t *testing.T) {
	model := runModel(t, januarySelection())
	chart := model.ModeResult(domain.ModeRoute).Chart
	require.NotNil(t, chart)

	png, err := ChartPNG(chart, DefaultChartOptions())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	small, err := ChartPNG(chart, ChartOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, small)
}

func TestChartPNGEmpty(t *testing.T) {
	_, err := ChartPNG(nil, DefaultChartOptions())
	assert.ErrorIs(t, err, ErrEmptyChart)

	_, err = ChartPNG(&domain.Chart{Title: "x"}, DefaultChartOptions())
	assert.ErrorIs(t, err, ErrEmptyChart)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
	}{
		{"#E4002B", color.RGBA{R: 0xE4, G: 0x00, B: 0x2B, A: 255}},
		{"005BAC", color.RGBA{R: 0x00, G: 0x5B, B: 0xAC, A: 255}},
		{"#FFF", color.RGBA{R: 128, G: 128, B: 128, A: 255}},
		{"#GGGGGG", color.RGBA{R: 128, G: 128, B: 128, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseHexColor(tt.in))
		})
	}
}

func TestBuildMap(t *testing.T) {
	model := runModel(t, januarySelection())
	m := BuildMap(model)

	require.Len(t, m.Markers, 9)
	counts := map[string]int{}
	for _, mk := range m.Markers {
		counts[mk.Cluster]++
		assert.Equal(t, mk.Operator.Color(), mk.Color)
		assert.Equal(t, ModeIcon(mk.Mode), mk.Icon)
	}
	assert.Equal(t, 6, counts["route"])
	assert.Equal(t, 3, counts["static"])

	first := m.Markers[0]
	assert.Equal(t, IconRoute, first.Icon)
	assert.Contains(t, first.Popup, "<b>SiteA</b>")
	assert.Contains(t, first.Popup, "Operator: Telkomsel")
	assert.Contains(t, first.Popup, "Coordinate: -6.914744, 107.609810")

	require.NotNil(t, m.Center)
	require.Len(t, m.Bounds, 2)
	assert.InDelta(t, -6.917464, m.Bounds[0].Latitude, 1e-6)
	assert.InDelta(t, 106.816635, m.Bounds[0].Longitude, 1e-6)
	assert.InDelta(t, -6.595038, m.Bounds[1].Latitude, 1e-6)
	assert.InDelta(t, 107.619123, m.Bounds[1].Longitude, 1e-6)

	assert.Len(t, m.Legend, len(domain.Operators)+len(domain.Modes))
}

func TestBuildMapOnlyStaticWhenRouteEmpty(t *testing.T) {
	sel := januarySelection()
	sel.Route.Locations = []string{}
	m := BuildMap(runModel(t, sel))

	require.NotEmpty(t, m.Markers)
	for _, mk := range m.Markers {
		assert.Equal(t, domain.ModeStatic, mk.Mode)
		assert.Equal(t, IconStatic, mk.Icon)
	}
}

func TestBuildMapWithoutCoordinates(t *testing.T) {
	sel := januarySelection()
	sel.Month = "February 2025"
	sel.Static.Parameter = "Voice Quality"
	m := BuildMap(runModel(t, sel))

	assert.Empty(t, m.Markers)
	assert.Nil(t, m.Center)
	assert.Empty(t, m.Bounds)
	assert.NotEmpty(t, m.Legend)

	assert.Empty(t, BuildMap(nil).Markers)
}

func TestComparisonXLSX(t *testing.T) {
	sel := januarySelection()
	sel.Static.Locations = []string{}
	data, err := ComparisonXLSX(runModel(t, sel))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Route Test", "Static Test"}, f.GetSheetList())

	rows, err := f.GetRows("Route Test")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 6)
	assert.Equal(t, "Operator", rows[0][0])
	assert.Equal(t, []string{"Telkomsel", "Throughput", "50", "SiteA", "-6.914744, 107.609810", "20", "SiteB", "-6.917464, 107.619123"}, rows[1])
	assert.Equal(t, "IOH", rows[2][0])
	assert.Equal(t, "XL Axiata", rows[3][0])
	assert.True(t, strings.HasPrefix(rows[5][0], "IOH has the highest Throughput at SiteB"))

	static, err := f.GetRows("Static Test")
	require.NoError(t, err)
	require.Len(t, static, 2)
	assert.Equal(t, "no data for Static Test", static[1][0])

	_, err = ComparisonXLSX(nil)
	assert.Error(t, err)
}

func TestLongRowsCSV(t *testing.T) {
	model := runModel(t, januarySelection())

	var buf bytes.Buffer
	n, err := LongRowsCSV(&buf, model, CSVOptions{BOMPrefix: true})
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\xEF\xBB\xBFAlamat,Tanggal"))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, `SiteA,05-01-2025,January 2025,Kota Bandung,Route Test,Throughput,"-6.914744, 107.609810",Telkomsel,50`, lines[1])
}
