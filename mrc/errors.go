package mrc

import "errors"

// Sentinel errors for the input-format family: conditions a caller can
// fix by supplying a different file, not by retrying.
var (
	ErrUnsupportedMode = errors.New("mrc: unsupported data mode")
	ErrNotCube         = errors.New("mrc: volume is not cubic")
	ErrSizeMismatch    = errors.New("mrc: volume size does not match other input")
	ErrShortHeader     = errors.New("mrc: short header")
)
