// Package dataset turns uploaded spreadsheet files and worksheet values into
// the normalized measurement table used by the dashboard pipeline.
//
// Loading happens in two steps. Parse reads CSV (UTF-8, UTF-8 with BOM or
// Windows-1252) or the first sheet of an XLSX workbook into a Raw table of
// string cells. Normalize then derives the typed columns: the Bulan month
// label and Tanggal_str display date, canonical measurement mode, validated
// latitude and longitude with their decimal and DMS strings, and operator
// values coerced to Numeric, Text or Missing.
//
// Normalization never fails on cell content. Unparseable dates and
// coordinates become missing, and a table lacking a required column is
// returned with Halted set so the dashboard can show why nothing renders.
package dataset
