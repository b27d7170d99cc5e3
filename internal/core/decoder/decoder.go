// Package decoder peels Ethernet/IPv4/transport headers off captured frames.
package decoder

import "firestige.xyz/ngtrace/internal/core"

// Slicer recovers link endpoints and the application payload from a frame.
type Slicer interface {
	Slice(frame core.RawFrame) (core.LinkEndpoints, []byte, error)
}

// FrameSlicer is the standard Ethernet + IPv4 slicer. It holds no state.
type FrameSlicer struct{}

// NewFrameSlicer creates a slicer.
func NewFrameSlicer() *FrameSlicer {
	return &FrameSlicer{}
}

// Slice implements Slicer.
func (FrameSlicer) Slice(frame core.RawFrame) (core.LinkEndpoints, []byte, error) {
	return Slice(frame)
}

// Slice strips the Ethernet, IPv4 and TCP/UDP headers of frame. The returned
// payload is a copy and never aliases frame.Data. Every failure is a
// *SkipError: callers drop the frame and carry on.
func Slice(frame core.RawFrame) (core.LinkEndpoints, []byte, error) {
	data := frame.Data

	link, etherType, err := decodeEthernet(data)
	if err != nil {
		return core.LinkEndpoints{}, nil, err
	}
	if etherType != etherTypeIPv4 {
		return link, nil, skipf(ReasonUnsupportedLinkProtocol, "ethertype 0x%04x", etherType)
	}

	ipData := data[ethernetHeaderLen:]

	// ICMP is dropped before the header is examined any further.
	if isICMP(ipData) {
		return link, nil, skip(ReasonICMP)
	}

	headerLen, protocol, err := decodeIPv4(ipData)
	if err != nil {
		return link, nil, err
	}

	offset, err := payloadOffset(ipData[headerLen:], protocol)
	if err != nil {
		return link, nil, err
	}

	start := ethernetHeaderLen + headerLen + offset
	payload := make([]byte, len(data)-start)
	copy(payload, data[start:])
	return link, payload, nil
}
