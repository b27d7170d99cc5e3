package plugin

import (
	"fmt"
	"slices"
	"sync"

	"firestige.xyz/ngtrace/internal/core"
)

// CapturerFactory creates a capturer instance.
type CapturerFactory func() Capturer

// ReporterFactory creates a reporter instance.
type ReporterFactory func() Reporter

type registry[F any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]F
}

func newRegistry[F any](kind string) *registry[F] {
	return &registry[F]{kind: kind, factories: make(map[string]F)}
}

func (r *registry[F]) register(name string, factory F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("plugin: %s %q registered twice", r.kind, name))
	}
	r.factories[name] = factory
}

func (r *registry[F]) get(name string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		var zero F
		return zero, fmt.Errorf("%w: %s %q", core.ErrUnknownPlugin, r.kind, name)
	}
	return f, nil
}

func (r *registry[F]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Reset drops every registration. Tests only.
func (r *registry[F]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]F)
}

var (
	capturerReg = newRegistry[CapturerFactory]("capturer")
	reporterReg = newRegistry[ReporterFactory]("reporter")
)

// RegisterCapturer registers a capturer factory. Duplicate names panic.
func RegisterCapturer(name string, factory CapturerFactory) {
	capturerReg.register(name, factory)
}

// GetCapturerFactory looks up a capturer factory.
func GetCapturerFactory(name string) (CapturerFactory, error) {
	return capturerReg.get(name)
}

// CapturerNames lists registered capturers.
func CapturerNames() []string {
	return capturerReg.names()
}

// RegisterReporter registers a reporter factory. Duplicate names panic.
func RegisterReporter(name string, factory ReporterFactory) {
	reporterReg.register(name, factory)
}

// GetReporterFactory looks up a reporter factory.
func GetReporterFactory(name string) (ReporterFactory, error) {
	return reporterReg.get(name)
}

// ReporterNames lists registered reporters.
func ReporterNames() []string {
	return reporterReg.names()
}
