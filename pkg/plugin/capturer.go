// Package plugin defines plugin interfaces.
package plugin

import (
	"context"

	"firestige.xyz/ngtrace/internal/core"
)

// Capturer yields raw frames from a capture source, one per call. Next
// returns io.EOF when the source is exhausted and ctx.Err() once ctx is
// done. Any other error is fatal for the run.
type Capturer interface {
	Plugin
	Next(ctx context.Context) (core.RawFrame, error)
	Stats() CaptureStats
}

// CaptureStats represents capture statistics.
type CaptureStats struct {
	FramesRead     uint64 // frames read from the source
	FramesFiltered uint64 // frames dropped by the port prefilter
}
