package ng

import "firestige.xyz/ngtrace/internal/core"

// Binding locates the conversation identifiers inside the binding command,
// e.g. `ng -m --cl 0.1 [ <1 s DID> <4 s S_HID S_OSID S_PID S_BID> <4 s D_HID D_OSID D_PID D_BID> ]`.
type Binding struct {
	Command   string // command name, "m"
	VectorTag int    // type tag of the endpoint vectors, 4
	Field     int    // identifier position inside an endpoint vector, 2 (PID)
}

// DefaultBinding returns the binding used by observed traffic.
func DefaultBinding() Binding {
	return Binding{Command: "m", VectorTag: 4, Field: 2}
}

// Resolve returns the source identifier from the first endpoint vector and
// the destination identifier from the second. Each side is nil when its
// vector is missing or too short.
func (b Binding) Resolve(vectors []core.TaggedVector) (src, dst *string) {
	seen := 0
	for _, v := range vectors {
		if v.TypeTag != b.VectorTag {
			continue
		}
		if id, ok := v.Field(b.Field); ok {
			if seen == 0 {
				src = &id
			} else {
				dst = &id
			}
		}
		seen++
		if seen == 2 {
			break
		}
	}
	return src, dst
}
