// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"firestige.xyz/ngtrace/internal/core"
)

const (
	// Ethernet constants
	ethernetHeaderLen = 14

	// EtherType values
	etherTypeIPv4 = 0x0800
)

// decodeEthernet reads the MAC pair and EtherType of an Ethernet II header.
// VLAN tags are not unwrapped: a tagged frame reports EtherType 0x8100.
func decodeEthernet(data []byte) (core.LinkEndpoints, uint16, error) {
	if len(data) < ethernetHeaderLen {
		return core.LinkEndpoints{}, 0, skipf(ReasonTooShort, "%d bytes", len(data))
	}

	var link core.LinkEndpoints

	// Destination MAC (6 bytes)
	copy(link.Dst[:], data[0:6])

	// Source MAC (6 bytes)
	copy(link.Src[:], data[6:12])

	// EtherType (2 bytes)
	etherType := binary.BigEndian.Uint16(data[12:14])
	return link, etherType, nil
}
