// Package timeline normalizes capture time and rebuilds per-conversation
// event sequences.
package timeline

// Session anchors normalized time on the first timestamp of a run. A
// Session belongs to one run and is not safe for concurrent use.
type Session struct {
	first *float64
}

// NewSession creates an unanchored session.
func NewSession() *Session {
	return &Session{}
}

// Normalize maps a raw capture time onto the session clock. The first
// present timestamp becomes 0; later ones are offsets from it and may be
// negative. A nil input yields nil and leaves the anchor untouched.
func (s *Session) Normalize(raw *float64) *float64 {
	if raw == nil {
		return nil
	}
	if s.first == nil {
		first := *raw
		s.first = &first
		zero := 0.0
		return &zero
	}
	rel := *raw - *s.first
	return &rel
}

// FirstTimestamp returns the anchor, or nil before any timestamp was seen.
func (s *Session) FirstTimestamp() *float64 {
	if s.first == nil {
		return nil
	}
	v := *s.first
	return &v
}
