// Package pipeline implements the frame processing pipeline engine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/core/decoder"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/internal/metrics"
	"firestige.xyz/ngtrace/internal/timeline"
	"firestige.xyz/ngtrace/internal/utils"
	"firestige.xyz/ngtrace/pkg/plugin"
	"firestige.xyz/ngtrace/plugins/parser/ng"
	"firestige.xyz/ngtrace/plugins/processor/relevance"
)

// Pipeline is a single-threaded frame processing chain: it pulls frames
// from the capturer one at a time and hands every accepted message to all
// reporters before pulling the next.
type Pipeline struct {
	capturer   plugin.Capturer
	slicer     decoder.Slicer
	classifier *relevance.Classifier
	parser     *ng.Parser
	session    *timeline.Session
	reporters  []plugin.Reporter
	metrics    *Metrics
	seq        int
}

// Config contains pipeline configuration. Classifier is required; other nil
// components get defaults.
type Config struct {
	Capturer   plugin.Capturer
	Slicer     decoder.Slicer
	Classifier *relevance.Classifier
	Parser     *ng.Parser
	Session    *timeline.Session
	Reporters  []plugin.Reporter
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Slicer == nil {
		cfg.Slicer = decoder.NewFrameSlicer()
	}
	if cfg.Parser == nil {
		cfg.Parser = ng.NewParser(ng.DefaultBinding())
	}
	if cfg.Session == nil {
		cfg.Session = timeline.NewSession()
	}

	return &Pipeline{
		capturer:   cfg.Capturer,
		slicer:     cfg.Slicer,
		classifier: cfg.Classifier,
		parser:     cfg.Parser,
		session:    cfg.Session,
		reporters:  cfg.Reporters,
		metrics:    NewMetrics(),
	}
}

// Run starts the capturer and reporters, processes frames until the source
// is exhausted or ctx is done, then flushes and stops every plugin.
// Cancellation is not an error: frames already accepted are flushed and
// Run returns nil. A capture read failure or a reporter failure stops the
// run and is returned.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	if p.capturer == nil {
		return fmt.Errorf("%w: pipeline has no capturer", core.ErrSourceOpen)
	}
	if p.classifier == nil {
		return fmt.Errorf("%w: pipeline has no relevance classifier", core.ErrConfigInvalid)
	}

	if err := p.capturer.Start(ctx); err != nil {
		return err
	}
	defer p.stopPlugin(p.capturer)

	for i, r := range p.reporters {
		if err := r.Start(ctx); err != nil {
			for _, started := range p.reporters[:i] {
				p.stopPlugin(started)
			}
			return fmt.Errorf("start reporter %s: %w", r.Name(), err)
		}
	}
	defer func() {
		for _, r := range p.reporters {
			if stopErr := p.stopPlugin(r); stopErr != nil && err == nil {
				err = stopErr
			}
		}
	}()

	log.GetLogger().WithField("capturer", p.capturer.Name()).Info("pipeline started")

	loopErr := p.loop(ctx)
	flushErr := p.flush(context.WithoutCancel(ctx))

	p.logSummary()
	if loopErr != nil {
		return loopErr
	}
	return flushErr
}

func (p *Pipeline) loop(ctx context.Context) error {
	for {
		frame, err := p.capturer.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case ctx.Err() != nil:
				log.GetLogger().Warn("pipeline interrupted, flushing accepted messages")
				return nil
			default:
				return err
			}
		}

		start := time.Now()
		msg, err := p.processFrame(frame)
		metrics.StageLatencySeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			p.recordSkip(err)
			continue
		}

		if err := p.report(ctx, msg); err != nil {
			return err
		}
	}
}

// processFrame runs one frame through slicing, decoding, classification
// and parsing. Dropped frames yield a *decoder.SkipError.
func (p *Pipeline) processFrame(frame core.RawFrame) (*core.Message, error) {
	p.metrics.Received.Add(1)
	metrics.FramesTotal.Inc()

	// Every frame advances the session clock, skipped ones included.
	at := p.session.Normalize(frame.CaptureTime)

	link, payload, err := p.slicer.Slice(frame)
	if err != nil {
		return nil, err
	}
	p.metrics.Sliced.Add(1)

	text := utils.DecodeLossy(payload)
	if text == "" {
		return nil, decoder.NewSkip(decoder.ReasonUndecodable, "")
	}

	data, marker, ok := p.classifier.Apply(text)
	if !ok {
		return nil, decoder.NewSkip(decoder.ReasonNoMarker, "")
	}
	data = utils.Printable(utils.TrimControlLeft(data))
	p.metrics.Relevant.Add(1)
	metrics.MessagesTotal.WithLabelValues(marker).Inc()

	events := p.parser.Parse(data, link, at)
	for i := range events {
		p.seq++
		events[i].Seq = p.seq
		metrics.EventsTotal.WithLabelValues(events[i].Command).Inc()
	}
	p.metrics.Events.Add(uint64(len(events)))

	return &core.Message{
		Time:   at,
		Link:   link,
		Data:   data,
		Marker: marker,
		Events: events,
	}, nil
}

func (p *Pipeline) recordSkip(err error) {
	reason, ok := decoder.ReasonOf(err)
	if !ok {
		log.GetLogger().WithError(err).Debug("frame dropped")
		return
	}
	p.metrics.addSkip(reason)
	metrics.FramesSkippedTotal.WithLabelValues(reason.String()).Inc()

	logger := log.GetLogger()
	if logger.IsTraceEnabled() {
		logger.WithField("reason", reason.String()).WithError(err).Trace("frame skipped")
	}
}

// report hands msg to every reporter in order. The first failure stops
// the run.
func (p *Pipeline) report(ctx context.Context, msg *core.Message) error {
	for _, r := range p.reporters {
		if err := r.Report(ctx, msg); err != nil {
			p.metrics.ReportErrors.Add(1)
			metrics.ReporterErrorsTotal.WithLabelValues(r.Name()).Inc()
			log.GetLogger().WithField("reporter", r.Name()).WithError(err).Error("reporter failed")
			return fmt.Errorf("reporter %s: %w", r.Name(), err)
		}
	}
	p.metrics.Reported.Add(1)
	return nil
}

func (p *Pipeline) flush(ctx context.Context) error {
	var first error
	for _, r := range p.reporters {
		if err := r.Flush(ctx); err != nil {
			p.metrics.ReportErrors.Add(1)
			metrics.ReporterErrorsTotal.WithLabelValues(r.Name()).Inc()
			log.GetLogger().WithField("reporter", r.Name()).WithError(err).Error("reporter flush failed")
			if first == nil {
				first = fmt.Errorf("flush reporter %s: %w", r.Name(), err)
			}
		}
	}
	return first
}

func (p *Pipeline) stopPlugin(pl plugin.Plugin) error {
	if err := pl.Stop(context.Background()); err != nil {
		log.GetLogger().WithField("plugin", pl.Name()).WithError(err).Warn("plugin stop failed")
		return err
	}
	return nil
}

func (p *Pipeline) logSummary() {
	s := p.Stats()
	fields := map[string]interface{}{
		"received":      s.Received,
		"sliced":        s.Sliced,
		"relevant":      s.Relevant,
		"events":        s.Events,
		"reported":      s.Reported,
		"report_errors": s.ReportErrors,
	}
	for reason, n := range s.Skipped {
		if n > 0 {
			fields["skipped_"+reason] = n
		}
	}
	log.GetLogger().WithFields(fields).Info("pipeline finished")
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	skipped := make(map[string]uint64, len(decoder.Reasons()))
	for _, r := range decoder.Reasons() {
		skipped[r.String()] = p.metrics.Skipped(r)
	}
	return Stats{
		Received:     p.metrics.Received.Load(),
		Sliced:       p.metrics.Sliced.Load(),
		Skipped:      skipped,
		Relevant:     p.metrics.Relevant.Load(),
		Events:       p.metrics.Events.Load(),
		Reported:     p.metrics.Reported.Load(),
		ReportErrors: p.metrics.ReportErrors.Load(),
	}
}

// Session returns the time normalization session of the run.
func (p *Pipeline) Session() *timeline.Session {
	return p.session
}

// Stats represents pipeline statistics.
type Stats struct {
	Received     uint64
	Sliced       uint64
	Skipped      map[string]uint64 // by skip reason label
	Relevant     uint64
	Events       uint64
	Reported     uint64
	ReportErrors uint64
}
