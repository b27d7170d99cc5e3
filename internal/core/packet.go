// Package core defines core data structures with zero external dependencies.
package core

import (
	"fmt"
	"strings"
)

// RawFrame is one captured link-layer frame as yielded by a capture source.
type RawFrame struct {
	Data        []byte   // Raw frame bytes, owned by the frame
	CaptureTime *float64 // Seconds since epoch; nil when the source has no timestamp
}

// MAC is an Ethernet hardware address.
type MAC [6]byte

// String returns the canonical lower-case colon-hex form, e.g. aa:bb:cc:dd:ee:ff.
func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// ParseMAC parses the colon-hex form produced by MAC.String. Upper-case digits
// are accepted.
func ParseMAC(s string) (MAC, error) {
	var m MAC
	parts := strings.Split(s, ":")
	if len(parts) != len(m) {
		return m, fmt.Errorf("invalid mac %q", s)
	}
	for i, p := range parts {
		if len(p) != 2 {
			return m, fmt.Errorf("invalid mac %q", s)
		}
		var b byte
		if _, err := fmt.Sscanf(p, "%02x", &b); err != nil {
			return m, fmt.Errorf("invalid mac %q: %w", s, err)
		}
		m[i] = b
	}
	return m, nil
}

// LinkEndpoints is the source/destination MAC pair of a frame.
type LinkEndpoints struct {
	Src MAC
	Dst MAC
}

// Float64 returns a pointer to v. Used for optional timestamps.
func Float64(v float64) *float64 {
	return &v
}
