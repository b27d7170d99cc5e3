// Package plugin defines the capturer and reporter plugin contracts.
package plugin

import "context"

// Plugin is the lifecycle shared by capturers and reporters.
//
// The pipeline calls Init once with the decoded options map, then Start
// before the first frame. Reporters receive Flush after the last Report,
// also when the run was cancelled or a Report failed, and Stop comes after
// Flush. A plugin whose Start failed is not stopped; plugins started before
// it are. Stop releases resources and must not write further output.
type Plugin interface {
	Name() string
	Init(cfg map[string]any) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
