// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors for the fatal categories. Per-frame skips are not errors
// of this kind; see decoder.SkipError.
var (
	// Source and sink errors
	ErrSourceOpen = errors.New("ngtrace: capture source unavailable")
	ErrSourceRead = errors.New("ngtrace: capture source read failed")
	ErrSinkWrite  = errors.New("ngtrace: output sink write failed")

	// Configuration errors
	ErrConfigInvalid = errors.New("ngtrace: invalid configuration")
	ErrUnknownPlugin = errors.New("ngtrace: unknown plugin")

	// Record stream errors
	ErrRecordMalformed = errors.New("ngtrace: malformed record")
)
