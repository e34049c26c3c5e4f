package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sigmon/pkg/contracts/domain"
)

// ErrEmptyChart is returned when there is nothing to draw.
var ErrEmptyChart = errors.New("chart has no categories")

// ChartOptions sizes the rendered image.
type ChartOptions struct {
	Width    vg.Length
	Height   vg.Length
	BarWidth vg.Length
}

// DefaultChartOptions is used for the dashboard PNG endpoint.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		Width:    10 * vg.Inch,
		Height:   6 * vg.Inch,
		BarWidth: vg.Points(14),
	}
}

// ChartPNG draws a grouped bar chart with one bar group per location and
// one colored bar per operator. Missing values are drawn as empty bars.
func ChartPNG(chart *domain.Chart, opts ChartOptions) ([]byte, error) {
	if chart == nil || len(chart.Categories) == 0 {
		return nil, ErrEmptyChart
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultChartOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.BarWidth <= 0 {
		opts.BarWidth = DefaultChartOptions().BarWidth
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Location"
	p.Y.Label.Text = chart.Parameter
	p.Legend.Top = true

	n := len(chart.Series)
	maxVal, minVal := 0.0, 0.0
	for i, s := range chart.Series {
		values := make(plotter.Values, len(chart.Categories))
		for j := range chart.Categories {
			if j < len(s.Values) {
				if f, ok := s.Values[j].Float(); ok {
					values[j] = f
					maxVal = math.Max(maxVal, f)
					minVal = math.Min(minVal, f)
				}
			}
		}

		bars, err := plotter.NewBarChart(values, opts.BarWidth)
		if err != nil {
			return nil, fmt.Errorf("bars for %s: %w", s.Operator, err)
		}
		bars.Color = parseHexColor(s.Color)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * opts.BarWidth

		p.Add(bars)
		p.Legend.Add(string(s.Operator), bars)
	}

	p.NominalX(chart.Categories...)
	if len(chart.Categories) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	p.Y.Min = minVal
	if maxVal > 0 {
		p.Y.Max = maxVal * 1.15
	}
	p.Add(plotter.NewGrid())

	w, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// parseHexColor converts "#RRGGBB" into a color. Anything else is grey.
func parseHexColor(hex string) color.Color {
	grey := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return grey
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return grey
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
