// Package decoder implements protocol decoding.
package decoder

const (
	ipv4HeaderMinLen = 20
	ipv4ProtocolOff  = 9

	protocolICMP = 1
)

// isICMP peeks at the IPv4 protocol byte without validating the header.
func isICMP(data []byte) bool {
	if len(data) <= ipv4ProtocolOff {
		return false
	}
	return data[ipv4ProtocolOff] == protocolICMP
}

// decodeIPv4 returns the IPv4 header length and the carried protocol number.
func decodeIPv4(data []byte) (int, uint8, error) {
	if len(data) < 1 {
		return 0, 0, skipf(ReasonTruncatedHeader, "missing ipv4 header")
	}

	// IHL (Internet Header Length) - lower 4 bits of first byte, in 32-bit words
	headerLen := int(data[0]&0x0F) * 4

	if headerLen < ipv4HeaderMinLen {
		return 0, 0, skipf(ReasonTruncatedHeader, "ipv4 header length %d", headerLen)
	}
	if len(data) < headerLen {
		return 0, 0, skipf(ReasonTruncatedHeader, "ipv4 header %d > %d bytes", headerLen, len(data))
	}

	return headerLen, data[ipv4ProtocolOff], nil
}
