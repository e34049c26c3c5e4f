// Command qoe-report renders the dashboard for one drive-test export without
// starting the server: it prints each mode's headline and writes the chart
// PNGs, the comparison workbook and the long-form CSV.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sigmon/internal/dataset"
	"sigmon/internal/infrastructure"
	"sigmon/internal/pipeline"
	"sigmon/internal/render"
	"sigmon/pkg/contracts"
	"sigmon/pkg/contracts/domain"
)

// listFlag is a comma-separated list that remembers whether it was given.
// An explicit empty value selects nothing.
type listFlag struct {
	set    bool
	values []string
}

func (f *listFlag) String() string { return strings.Join(f.values, ",") }

func (f *listFlag) Set(s string) error {
	f.set = true
	f.values = nil
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			f.values = append(f.values, v)
		}
	}
	return nil
}

type options struct {
	file            string
	month           string
	regions         listFlag
	routeLocations  listFlag
	staticLocations listFlag
	routeParameter  string
	staticParameter string
	dms             bool
	out             string
	version         bool
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "drive-test export (.csv or .xlsx)")
	flag.StringVar(&opts.month, "month", domain.AllMonths, `month to show, e.g. "January 2025", or "All"`)
	flag.Var(&opts.regions, "regions", "comma-separated regions (default all)")
	flag.Var(&opts.routeLocations, "route-locations", "comma-separated Route Test locations (default all)")
	flag.Var(&opts.staticLocations, "static-locations", "comma-separated Static Test locations (default all)")
	flag.StringVar(&opts.routeParameter, "route-parameter", "", "Route Test parameter (default first available)")
	flag.StringVar(&opts.staticParameter, "static-parameter", "", "Static Test parameter (default first available)")
	flag.BoolVar(&opts.dms, "dms", false, "show coordinates in degrees/minutes/seconds")
	flag.StringVar(&opts.out, "out", "", "directory for chart PNGs and exports (skipped when empty)")
	flag.BoolVar(&opts.version, "version", false, "print version and exit")
	flag.Parse()

	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	logger := infrastructure.WithComponent(
		infrastructure.NewLoggerWithWriter(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		"qoe-report")

	if opts.file == "" {
		fmt.Fprintln(os.Stderr, "qoe-report: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(opts, os.Stdout, logger); err != nil {
		logger.Error("report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(opts options, stdout io.Writer, logger *slog.Logger) error {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}

	raw, err := dataset.Parse(filepath.Base(opts.file), data)
	if err != nil {
		return err
	}
	table, err := dataset.Normalize(raw)
	if err != nil {
		return err
	}
	for _, w := range table.Warnings {
		logger.Warn("dataset warning", slog.String("code", w.Code), slog.String("message", w.Message))
	}
	logger.Info("dataset loaded",
		slog.String("source", table.Source),
		slog.Int("rows", len(table.Records)),
		slog.Bool("halted", table.Halted))

	model, err := pipeline.Run(table, buildSelection(table, opts))
	if err != nil {
		return err
	}
	model.Map = render.BuildMap(model)

	printReport(stdout, model)

	if opts.out == "" {
		return nil
	}
	return writeArtifacts(opts.out, model, logger)
}

func buildSelection(table *domain.Table, opts options) domain.Selection {
	sel := pipeline.DefaultSelection(table)
	if opts.month != "" {
		sel.Month = opts.month
	}
	if opts.regions.set {
		sel.Regions = opts.regions.values
	}
	if opts.routeLocations.set {
		sel.Route.Locations = opts.routeLocations.values
	}
	if opts.staticLocations.set {
		sel.Static.Locations = opts.staticLocations.values
	}
	if opts.routeParameter != "" {
		sel.Route.Parameter = opts.routeParameter
	}
	if opts.staticParameter != "" {
		sel.Static.Parameter = opts.staticParameter
	}
	if opts.dms {
		sel.ShowCoordinates = true
		sel.CoordinateFormat = domain.CoordinateDMS
	}
	return sel
}

func printReport(w io.Writer, model *domain.RenderModel) {
	fmt.Fprintf(w, "Month: %s\n", model.Selection.Month)
	for _, mr := range model.Modes {
		fmt.Fprintf(w, "\n%s [%s]: %s\n", mr.Mode, mr.Parameter, mr.Status)
		if mr.Message != "" {
			fmt.Fprintf(w, "  %s\n", mr.Message)
			continue
		}
		fmt.Fprintf(w, "  %s\n  %s\n", mr.Headline.HighText, mr.Headline.LowText)
		for _, c := range mr.Comparison {
			fmt.Fprintf(w, "  %-10s max %g (%s)  min %g (%s)\n",
				c.Operator, c.Max.Value, c.Max.Location, c.Min.Value, c.Min.Location)
		}
	}
	fmt.Fprintf(w, "\nMap markers: %d\n", len(model.Map.Markers))
}

func writeArtifacts(dir string, model *domain.RenderModel, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, mr := range model.Modes {
		if mr.Chart == nil {
			continue
		}
		png, err := render.ChartPNG(mr.Chart, render.DefaultChartOptions())
		if err != nil {
			return fmt.Errorf("%s chart: %w", mr.Mode, err)
		}
		path := filepath.Join(dir, mr.Mode.Slug()+"-chart.png")
		if err := os.WriteFile(path, png, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Info("chart written", slog.String("mode", string(mr.Mode)), slog.String("path", path))
	}

	workbook, err := render.ComparisonXLSX(model)
	if err != nil {
		return err
	}
	xlsxPath := filepath.Join(dir, "comparison.xlsx")
	if err := os.WriteFile(xlsxPath, workbook, 0644); err != nil {
		return fmt.Errorf("write %s: %w", xlsxPath, err)
	}

	var buf bytes.Buffer
	rows, err := render.LongRowsCSV(&buf, model, render.CSVOptions{BOMPrefix: true})
	if err != nil {
		return err
	}
	csvPath := filepath.Join(dir, "rows.csv")
	if err := os.WriteFile(csvPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}

	logger.Info("exports written",
		slog.String("workbook", xlsxPath),
		slog.String("csv", csvPath),
		slog.Int("rows", rows))
	return nil
}
