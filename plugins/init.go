// Package plugins registers all built-in plugins.
package plugins

import (
	"firestige.xyz/ngtrace/pkg/plugin"
	"firestige.xyz/ngtrace/plugins/capture/pcapfile"
	"firestige.xyz/ngtrace/plugins/reporter/console"
	"firestige.xyz/ngtrace/plugins/reporter/jsonl"
	"firestige.xyz/ngtrace/plugins/reporter/s3"
	"firestige.xyz/ngtrace/plugins/reporter/sqlite"
)

func init() {
	// Register capture plugins
	plugin.RegisterCapturer("pcapfile", pcapfile.NewPcapFileCapturer)

	// Register reporter plugins
	plugin.RegisterReporter("jsonl", jsonl.NewJSONLReporter)
	plugin.RegisterReporter("console", console.NewConsoleReporter)
	plugin.RegisterReporter("sqlite", sqlite.NewSQLiteReporter)
	plugin.RegisterReporter("s3", s3.NewS3Reporter)
}
