// Package report builds and renders per-conversation sequence reports.
package report

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/internal/record"
	"firestige.xyz/ngtrace/internal/timeline"
	"firestige.xyz/ngtrace/plugins/parser/ng"
)

// Options selects the events of a report.
type Options struct {
	Start    *float64 // inclusive lower time bound, nil for open
	End      *float64 // inclusive upper time bound, nil for open
	GapRatio float64
}

// Event is one rendered step of a conversation.
type Event struct {
	Seq       int      `json:"seq" yaml:"seq"`
	Time      *float64 `json:"time" yaml:"time"`
	Command   string   `json:"command" yaml:"command"`
	Flags     []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Direction string   `json:"direction" yaml:"direction"`
	Detail    string   `json:"detail,omitempty" yaml:"detail,omitempty"`
	GapBefore bool     `json:"gap_before" yaml:"gap_before"`
	SrcMAC    string   `json:"src_mac" yaml:"src_mac"`
	DstMAC    string   `json:"dst_mac" yaml:"dst_mac"`
}

// Conversation is the ordered event list of one (src, dst) pair.
type Conversation struct {
	Src    string  `json:"src" yaml:"src"`
	Dst    string  `json:"dst" yaml:"dst"`
	Start  float64 `json:"start" yaml:"start"`
	End    float64 `json:"end" yaml:"end"`
	Gaps   int     `json:"gaps" yaml:"gaps"`
	Events []Event `json:"events" yaml:"events"`
}

// Report is the complete sequence view of one capture.
type Report struct {
	WindowStart   *float64       `json:"window_start" yaml:"window_start"`
	WindowEnd     *float64       `json:"window_end" yaml:"window_end"`
	TimeRange     *[2]float64    `json:"time_range" yaml:"time_range"` // over attributed events
	Events        int            `json:"events" yaml:"events"`
	Unattributed  int            `json:"unattributed" yaml:"unattributed"`
	Conversations []Conversation `json:"conversations" yaml:"conversations"`
}

// Build windows events, reconstructs their sequences and lays them out in
// source, destination order.
func Build(events []core.ProtocolEvent, opts Options) *Report {
	ratio := opts.GapRatio
	if ratio <= 0 {
		ratio = timeline.DefaultGapRatio
	}

	windowed := timeline.Window(events, opts.Start, opts.End)
	seqs := timeline.Reconstruct(windowed, ratio)

	rep := &Report{
		WindowStart:   opts.Start,
		WindowEnd:     opts.End,
		Events:        len(windowed),
		Conversations: make([]Conversation, 0, len(seqs)),
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	attributed := 0
	for _, key := range timeline.SortedKeys(seqs) {
		seq := seqs[key]
		conv := Conversation{
			Src:    key.Src,
			Dst:    key.Dst,
			Start:  seq.Start(),
			End:    seq.End(),
			Gaps:   len(seq.Gaps),
			Events: make([]Event, 0, len(seq.Events)),
		}
		for i, ev := range seq.Events {
			conv.Events = append(conv.Events, Event{
				Seq:       ev.Seq,
				Time:      ev.Time,
				Command:   ev.Command,
				Flags:     ev.Flags,
				Direction: ng.DirectionOf(ev.Command).String(),
				Detail:    ng.Detail(ev),
				GapBefore: seq.IsGap(i),
				SrcMAC:    ev.Link.Src.String(),
				DstMAC:    ev.Link.Dst.String(),
			})
		}
		lo, hi = min(lo, conv.Start), max(hi, conv.End)
		attributed += len(seq.Events)
		rep.Conversations = append(rep.Conversations, conv)
	}

	rep.Unattributed = len(windowed) - attributed
	if len(rep.Conversations) > 0 {
		rep.TimeRange = &[2]float64{lo, hi}
	}
	return rep
}

// LoadStats summarizes reading a record stream back into events.
type LoadStats struct {
	Records   int
	Malformed int
	Events    int
}

// LoadEvents parses every record of recs into protocol events, in stream
// order. Malformed records are logged and skipped; any other read error
// stops loading.
func LoadEvents(recs iter.Seq2[record.Record, error], parser *ng.Parser) ([]core.ProtocolEvent, LoadStats, error) {
	var (
		events []core.ProtocolEvent
		stats  LoadStats
		seq    int
	)
	for rec, err := range recs {
		if err != nil {
			if errors.Is(err, core.ErrRecordMalformed) {
				stats.Malformed++
				log.GetLogger().WithError(err).Warn("skipping malformed record")
				continue
			}
			return events, stats, err
		}
		stats.Records++

		link, err := rec.Link()
		if err != nil {
			stats.Malformed++
			log.GetLogger().WithError(err).Warn("skipping record with bad addresses")
			continue
		}

		for _, ev := range parser.Parse(rec.Data, link, rec.Time) {
			seq++
			ev.Seq = seq
			events = append(events, ev)
		}
	}
	stats.Events = len(events)
	return events, stats, nil
}

// FormatTime renders an optional session time.
func FormatTime(t *float64) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%.6f", *t)
}
