package services

import "errors"

// Dashboard service errors
var (
	// ErrNoDataset is returned by operations that need a loaded table.
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrUploadTooLarge is returned when an upload exceeds the configured limit.
	ErrUploadTooLarge = errors.New("upload exceeds size limit")

	// ErrNoChart is returned when the requested mode has nothing to plot.
	ErrNoChart = errors.New("no chart data for mode")

	// ErrUnknownMode is returned for a mode outside Route Test and Static Test.
	ErrUnknownMode = errors.New("unknown measurement mode")

	// ErrRemoteDisabled is returned when no remote loader is configured.
	ErrRemoteDisabled = errors.New("remote spreadsheet loading is not configured")
)
