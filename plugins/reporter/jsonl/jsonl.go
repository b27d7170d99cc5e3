// Package jsonl implements the JSON-lines output record reporter.
package jsonl

import (
	"context"
	"fmt"
	"io"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/internal/record"
	"firestige.xyz/ngtrace/pkg/plugin"
)

const pluginName = "jsonl"

// Config represents jsonl reporter configuration.
type Config struct {
	Path string `mapstructure:"path"` // "-" for stdout, ".gz" suffix compresses
}

// JSONLReporter writes one output record per accepted message.
type JSONLReporter struct {
	config Config
	out    io.Writer // set by tests instead of Path
	writer *record.Writer
}

// NewJSONLReporter creates a new jsonl reporter writing to stdout.
func NewJSONLReporter() plugin.Reporter {
	return &JSONLReporter{config: Config{Path: record.StdStream}}
}

// Name returns the plugin name.
func (r *JSONLReporter) Name() string {
	return pluginName
}

// Init decodes the reporter options.
func (r *JSONLReporter) Init(cfg map[string]any) error {
	return plugin.DecodeOptions(pluginName, cfg, &r.config)
}

// Start opens the output file.
func (r *JSONLReporter) Start(ctx context.Context) error {
	if r.out != nil {
		r.writer = record.NewWriter(r.out)
		return nil
	}
	w, err := record.Create(r.config.Path)
	if err != nil {
		return err
	}
	r.writer = w
	log.GetLogger().WithField("path", r.config.Path).Debug("jsonl reporter started")
	return nil
}

// Report appends the record of msg.
func (r *JSONLReporter) Report(ctx context.Context, msg *core.Message) error {
	if msg == nil {
		return fmt.Errorf("nil message")
	}
	if r.writer == nil {
		return fmt.Errorf("%w: %s not started", core.ErrSinkWrite, pluginName)
	}
	return r.writer.Write(record.FromMessage(msg))
}

// Flush pushes buffered records to the output.
func (r *JSONLReporter) Flush(ctx context.Context) error {
	if r.writer == nil {
		return nil
	}
	return r.writer.Flush()
}

// Stop flushes and closes the output.
func (r *JSONLReporter) Stop(ctx context.Context) error {
	if r.writer == nil {
		return nil
	}
	count := r.writer.Count()
	err := r.writer.Close()
	r.writer = nil
	log.GetLogger().WithFields(map[string]interface{}{
		"path":    r.config.Path,
		"records": count,
	}).Info("jsonl reporter stopped")
	return err
}
