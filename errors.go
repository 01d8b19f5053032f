package sidesplitter

import "errors"

// User-fixable errors: the caller can resolve these by supplying
// different arguments or input files.
var (
	// ErrMissingHalfMap is returned when either required half-map path
	// is empty.
	ErrMissingHalfMap = errors.New("sidesplitter: both half-map paths are required")

	// ErrSizeMismatch is returned when the two half-maps, or a supplied
	// mask, are not the same cube side.
	ErrSizeMismatch = errors.New("sidesplitter: inputs are not the same size")
)

// Environment errors: the caller cannot fix these by changing
// arguments; they indicate resource exhaustion or a concurrency
// failure in the host process.
var (
	// ErrWorkerFailed names the worker-pool failure family. No function
	// in this module returns or wraps it: a failing worker's own error
	// reaches the caller, wrapped with the stage it occurred in.
	ErrWorkerFailed = errors.New("sidesplitter: worker pool did not complete")
)
