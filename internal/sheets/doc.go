// Package sheets loads measurement tables from Google Sheets.
//
// Credentials come from an ordered provider chain (deployment secret, local
// key file, user upload). The Resolver walks the chain, moving on only when a
// provider is absent, and reports one of three states: unresolved, resolved
// or unavailable. Worksheet values are read with the Sheets API and
// spreadsheets are listed through the Drive API using the read-only Drive scope.
package sheets
