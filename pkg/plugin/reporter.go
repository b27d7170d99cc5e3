// Package plugin defines plugin interfaces.
package plugin

import (
	"context"

	"firestige.xyz/ngtrace/internal/core"
)

// Reporter delivers accepted messages to an output destination. A Report or
// Flush error means the destination is gone and stops the run.
type Reporter interface {
	Plugin
	Report(ctx context.Context, msg *core.Message) error
	Flush(ctx context.Context) error
}
