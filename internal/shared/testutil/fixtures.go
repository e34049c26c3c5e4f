package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MeasurementsCSV is a small drive-test export covering both modes, two
// months, two regions, a qualitative parameter and a row without coordinates.
//
// Route Test, January 2025, Throughput: SiteA (50/40/30) and SiteB (20/60/45).
const MeasurementsCSV = `Tanggal,Alamat,Kabupaten/Kota,Jenis Pengukuran,Parameter,Latitude,Longitude,Telkomsel,IOH,XL Axiata
2025-01-05,SiteA,Kota Bandung,Route Test,Throughput,-6.914744,107.609810,50,40,30
2025-01-05,SiteB,Kota Bandung,Route Test,Throughput,-6.917464,107.619123,20,60,45
2025-01-06,SiteC,Kabupaten Bogor,Static Test,Throughput,-6.595038,106.816635,35,25,55
2025-02-10,SiteD,Kabupaten Bogor,Static Test,Voice Quality,,,Good,Excellent,Poor
`

// NoRegionCSV lacks the Kabupaten/Kota column.
const NoRegionCSV = `Tanggal,Alamat,Jenis Pengukuran,Parameter,Telkomsel,IOH,XL Axiata
05/01/2025,SiteA,Route Test,Throughput,50,40,30
06/01/2025,SiteC,Static Test,Throughput,35,-,N/A
`

// NoDateCSV lacks the Tanggal column.
const NoDateCSV = `Alamat,Jenis Pengukuran,Parameter,Telkomsel,IOH,XL Axiata
SiteA,Route Test,Throughput,50,40,30
`

// WriteTempFile writes content to name inside a per-test temporary directory
// and returns the full path.
func WriteTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
