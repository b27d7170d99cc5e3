// Package decoder implements protocol decoding.
package decoder

const (
	udpHeaderLen    = 8
	tcpHeaderMinLen = 20

	// Protocol numbers
	protocolTCP = 6
	protocolUDP = 17
)

// payloadOffset returns where the application payload starts inside the
// transport segment. Protocols other than TCP and UDP carry their payload
// directly after the IP header.
func payloadOffset(data []byte, protocol uint8) (int, error) {
	switch protocol {
	case protocolTCP:
		return tcpPayloadOffset(data)
	case protocolUDP:
		if len(data) < udpHeaderLen {
			return 0, skipf(ReasonTruncatedHeader, "udp header %d bytes", len(data))
		}
		return udpHeaderLen, nil
	default:
		return 0, nil
	}
}

func tcpPayloadOffset(data []byte) (int, error) {
	if len(data) < tcpHeaderMinLen {
		return 0, skipf(ReasonTruncatedHeader, "tcp header %d bytes", len(data))
	}

	// Data Offset (upper 4 bits at offset 12), in 32-bit words
	headerLen := int(data[12]>>4) * 4

	if headerLen < tcpHeaderMinLen || len(data) < headerLen {
		return 0, skipf(ReasonTruncatedHeader, "tcp data offset %d, segment %d bytes", headerLen, len(data))
	}
	return headerLen, nil
}
