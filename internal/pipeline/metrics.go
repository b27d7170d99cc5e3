// Package pipeline implements pipeline metrics.
package pipeline

import (
	"sync/atomic"

	"firestige.xyz/ngtrace/internal/core/decoder"
)

// Metrics contains per-run counters.
type Metrics struct {
	Received     atomic.Uint64
	Sliced       atomic.Uint64
	Relevant     atomic.Uint64
	Events       atomic.Uint64
	Reported     atomic.Uint64
	ReportErrors atomic.Uint64

	skipped map[decoder.SkipReason]*atomic.Uint64 // fixed key set, read-only after NewMetrics
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{skipped: make(map[decoder.SkipReason]*atomic.Uint64)}
	for _, r := range decoder.Reasons() {
		m.skipped[r] = new(atomic.Uint64)
	}
	return m
}

func (m *Metrics) addSkip(reason decoder.SkipReason) {
	if c, ok := m.skipped[reason]; ok {
		c.Add(1)
	}
}

// Skipped returns the number of frames dropped for reason.
func (m *Metrics) Skipped(reason decoder.SkipReason) uint64 {
	if c, ok := m.skipped[reason]; ok {
		return c.Load()
	}
	return 0
}

// Reset resets all counters to zero.
func (m *Metrics) Reset() {
	m.Received.Store(0)
	m.Sliced.Store(0)
	m.Relevant.Store(0)
	m.Events.Store(0)
	m.Reported.Store(0)
	m.ReportErrors.Store(0)
	for _, c := range m.skipped {
		c.Store(0)
	}
}
