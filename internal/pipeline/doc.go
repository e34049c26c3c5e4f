// Package pipeline is the pure transformation from a loaded table and a
// selection to a render model.
//
// Stages run in a fixed order on every call, always starting from the
// original table:
//
//	month filter ("All" disables it)
//	region filter (empty selection keeps every row)
//	mode partition (Route Test, Static Test)
//	location filter per mode (empty selection keeps no row)
//	reshape to long form for the chosen parameter
//	aggregation: headline extremes, per-operator comparison, chart series
//
// Nothing in this package mutates the table or holds state between calls.
package pipeline
