// Package session holds the dashboard state shared by every request: the
// loaded table, the live selection and the named configuration store.
//
// A single RWMutex guards all of it. Readers get copies of selections so
// callers can never alias the stored slices.
package session
