package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigmon/internal/shared/testutil"
	"sigmon/pkg/contracts/domain"
)

func TestListFlag(t *testing.T) {
	var f listFlag
	assert.False(t, f.set)

	require.NoError(t, f.Set(" SiteA, ,SiteB "))
	assert.True(t, f.set)
	assert.Equal(t, []string{"SiteA", "SiteB"}, f.values)
	assert.Equal(t, "SiteA,SiteB", f.String())

	require.NoError(t, f.Set(""))
	assert.True(t, f.set)
	assert.Empty(t, f.values)
}

func TestRun(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	file := testutil.WriteTempFile(t, "drive.csv", []byte(testutil.MeasurementsCSV))
	out := t.TempDir()

	opts := options{file: file, month: "January 2025", out: out}
	// Selecting no static locations leaves the static mode without rows.
	require.NoError(t, opts.staticLocations.Set(""))

	var stdout bytes.Buffer
	require.NoError(t, run(opts, &stdout, logger))

	report := stdout.String()
	assert.Contains(t, report, "Month: January 2025")
	assert.Contains(t, report, "Route Test [Throughput]: ok")
	assert.Contains(t, report, "Static Test [Throughput]: no_data")

	assert.FileExists(t, filepath.Join(out, "route-chart.png"))
	assert.NoFileExists(t, filepath.Join(out, "static-chart.png"))
	assert.FileExists(t, filepath.Join(out, "comparison.xlsx"))

	csvData, err := os.ReadFile(filepath.Join(out, "rows.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(csvData, []byte{0xEF, 0xBB, 0xBF}))
}

func TestRunErrors(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	err := run(options{file: filepath.Join(t.TempDir(), "missing.csv")}, &bytes.Buffer{}, logger)
	assert.Error(t, err)

	pdf := testutil.WriteTempFile(t, "drive.pdf", []byte("%PDF-1.4"))
	err = run(options{file: pdf}, &bytes.Buffer{}, logger)
	assert.Error(t, err)
}

func TestBuildSelection(t *testing.T) {
	opts := options{month: "February 2025", routeParameter: "Throughput", dms: true}
	require.NoError(t, opts.regions.Set("Kabupaten Bogor"))

	sel := buildSelection(&domain.Table{}, opts)
	assert.Equal(t, "February 2025", sel.Month)
	assert.Equal(t, []string{"Kabupaten Bogor"}, sel.Regions)
	assert.Equal(t, "Throughput", sel.Route.Parameter)
	assert.Equal(t, domain.CoordinateDMS, sel.CoordinateFormat)
	assert.True(t, sel.ShowCoordinates)
}
