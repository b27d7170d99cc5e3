package timeline

import (
	"cmp"
	"math"
	"slices"

	"firestige.xyz/ngtrace/internal/core"
)

// DefaultGapRatio is the share of a sequence's time range a delta must
// exceed to count as a gap.
const DefaultGapRatio = 0.1

// PairKey identifies a conversation.
type PairKey struct {
	Src string
	Dst string
}

func (k PairKey) String() string {
	return k.Src + " -> " + k.Dst
}

// Sequence is the time-ordered event list of one conversation. Gaps holds
// the ascending indexes i where Events[i] starts after a discontinuity.
type Sequence struct {
	Key    PairKey
	Events []core.ProtocolEvent
	Gaps   []int
}

// Start returns the earliest event time.
func (s *Sequence) Start() float64 {
	return eventTime(s.Events[0])
}

// End returns the latest event time.
func (s *Sequence) End() float64 {
	return eventTime(s.Events[len(s.Events)-1])
}

// IsGap reports whether a gap precedes Events[i].
func (s *Sequence) IsGap(i int) bool {
	_, found := slices.BinarySearch(s.Gaps, i)
	return found
}

// Reconstruct groups attributed events by (SrcID, DstID), orders each group
// by time with ties kept in input order, and marks gaps: Events[i] follows a
// gap when its delta to Events[i-1] exceeds gapRatio times the group's time
// range. A single-event group uses a range of 1. Events missing either
// identifier are left out. Events without a time sort as zero.
func Reconstruct(events []core.ProtocolEvent, gapRatio float64) map[PairKey]*Sequence {
	seqs := make(map[PairKey]*Sequence)
	for _, ev := range events {
		if !ev.Attributed() {
			continue
		}
		key := PairKey{Src: *ev.SrcID, Dst: *ev.DstID}
		seq, ok := seqs[key]
		if !ok {
			seq = &Sequence{Key: key}
			seqs[key] = seq
		}
		seq.Events = append(seq.Events, ev)
	}

	for _, seq := range seqs {
		slices.SortStableFunc(seq.Events, func(a, b core.ProtocolEvent) int {
			return cmp.Compare(eventTime(a), eventTime(b))
		})
		seq.Gaps = findGaps(seq.Events, gapRatio)
	}
	return seqs
}

func findGaps(events []core.ProtocolEvent, gapRatio float64) []int {
	if len(events) < 2 {
		return nil
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, ev := range events {
		t := eventTime(ev)
		lo = min(lo, t)
		hi = max(hi, t)
	}
	threshold := gapRatio * (hi - lo)

	var gaps []int
	for i := 1; i < len(events); i++ {
		if eventTime(events[i])-eventTime(events[i-1]) > threshold {
			gaps = append(gaps, i)
		}
	}
	return gaps
}

// SortedKeys returns the keys of seqs ordered by source then destination.
func SortedKeys(seqs map[PairKey]*Sequence) []PairKey {
	keys := make([]PairKey, 0, len(seqs))
	for k := range seqs {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b PairKey) int {
		if c := cmp.Compare(a.Src, b.Src); c != 0 {
			return c
		}
		return cmp.Compare(a.Dst, b.Dst)
	})
	return keys
}

// Window keeps the events whose time lies in [start, end]. Either bound may
// be nil. Events without a time are dropped when any bound is set.
func Window(events []core.ProtocolEvent, start, end *float64) []core.ProtocolEvent {
	if start == nil && end == nil {
		return events
	}
	var out []core.ProtocolEvent
	for _, ev := range events {
		if InRange(ev.Time, start, end) {
			out = append(out, ev)
		}
	}
	return out
}

// InRange reports whether t lies in the closed interval [start, end]. A nil
// bound is open; a nil t is outside any bounded interval.
func InRange(t, start, end *float64) bool {
	if start == nil && end == nil {
		return true
	}
	if t == nil {
		return false
	}
	if start != nil && *t < *start {
		return false
	}
	if end != nil && *t > *end {
		return false
	}
	return true
}

func eventTime(ev core.ProtocolEvent) float64 {
	if ev.Time == nil {
		return 0
	}
	return *ev.Time
}
