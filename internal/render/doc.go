// Package render turns pipeline output into artifacts for the dashboard:
// PNG bar charts, the map marker model with legend and bounds, an XLSX
// workbook of the per-operator comparison and a CSV of the long rows.
//
// Everything here reads a domain.RenderModel and never touches the session.
package render
