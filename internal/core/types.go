// Package core defines core types with zero external dependencies.
package core

// CommandToken is one `ng -<name> ... [ ... ]` occurrence in decoded text.
type CommandToken struct {
	Name    string // Command name without the leading '-'
	Args    string // Text between the name and the opening '['
	RawBody string // Text between '[' and the first following ']'
	Offset  int    // Byte offset of the "ng" marker in the scanned text
	Closed  bool   // False when no ']' terminated the body
}

// NoTypeTag marks a vector whose leading token is not an integer.
const NoTypeTag = -1

// TaggedVector is one `< type kind value* >` group of a command body.
type TaggedVector struct {
	TypeTag int      // Leading integer tag, NoTypeTag if absent or not numeric
	Kind    string   // Second token, "s" in observed traffic; empty if absent
	Values  []string // Every token after the kind, in order
	Fields  []string // 8-hex-digit identifiers found in Values, upper-cased
}

// Field returns the i-th identifier if present.
func (v TaggedVector) Field(i int) (string, bool) {
	if i < 0 || i >= len(v.Fields) {
		return "", false
	}
	return v.Fields[i], true
}

// Value returns the i-th raw value token if present.
func (v TaggedVector) Value(i int) (string, bool) {
	if i < 0 || i >= len(v.Values) {
		return "", false
	}
	return v.Values[i], true
}

// LastValue returns the trailing value token, if any.
func (v TaggedVector) LastValue() (string, bool) {
	return v.Value(len(v.Values) - 1)
}

// ProtocolEvent is one decoded protocol command, attributed to a
// conversation when the carrying message holds a binding command.
type ProtocolEvent struct {
	Time    *float64 // Normalized session time; nil when the run has no clock
	Command string
	Flags   []string // Whitespace-separated arguments before the body
	Vectors []TaggedVector
	SrcID   *string
	DstID   *string
	Link    LinkEndpoints
	Seq     int // Ingestion order within the run, used for stable ordering
}

// Attributed reports whether the event belongs to a conversation.
func (e *ProtocolEvent) Attributed() bool {
	return e.SrcID != nil && e.DstID != nil
}

// Message is one accepted payload and the events decoded from it.
type Message struct {
	Time   *float64
	Link   LinkEndpoints
	Data   string // Printable payload text after framing recovery
	Marker string // Relevance marker that accepted the payload
	Events []ProtocolEvent
}
