// Package pipeline implements pipeline construction.
package pipeline

import (
	"firestige.xyz/ngtrace/internal/core/decoder"
	"firestige.xyz/ngtrace/internal/timeline"
	"firestige.xyz/ngtrace/pkg/plugin"
	"firestige.xyz/ngtrace/plugins/parser/ng"
	"firestige.xyz/ngtrace/plugins/processor/relevance"
)

// Builder provides a fluent interface for building pipelines.
// This is an alternative to using Config directly.
type Builder struct {
	config Config
}

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithCapturer sets the frame source.
func (b *Builder) WithCapturer(c plugin.Capturer) *Builder {
	b.config.Capturer = c
	return b
}

// WithSlicer sets the frame slicer.
func (b *Builder) WithSlicer(s decoder.Slicer) *Builder {
	b.config.Slicer = s
	return b
}

// WithClassifier sets the relevance classifier.
func (b *Builder) WithClassifier(c *relevance.Classifier) *Builder {
	b.config.Classifier = c
	return b
}

// WithParser sets the command parser.
func (b *Builder) WithParser(p *ng.Parser) *Builder {
	b.config.Parser = p
	return b
}

// WithSession sets the time normalization session.
func (b *Builder) WithSession(s *timeline.Session) *Builder {
	b.config.Session = s
	return b
}

// WithReporters sets the reporter chain.
func (b *Builder) WithReporters(reporters ...plugin.Reporter) *Builder {
	b.config.Reporters = reporters
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() *Pipeline {
	return New(b.config)
}
