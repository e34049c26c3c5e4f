// Package shared holds helpers used by more than one SIGMON package that do
// not belong to a domain layer.
//
// The testutil subpackage provides:
//
//   - A capturing slog handler so tests can assert on structured log output
//   - Measurement table fixtures in CSV form for loader and pipeline tests
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    svc := NewThing(logger)
//	    svc.Do()
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "done")
//	}
//
// Nothing in this package may import an internal domain package, so that any
// package's tests can depend on it without creating an import cycle.
package shared
