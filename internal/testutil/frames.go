// Package testutil builds synthetic frames and capture files for tests.
package testutil

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var (
	SrcMAC = net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	DstMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}

	srcIP = net.IP{192, 168, 1, 1}
	dstIP = net.IP{192, 168, 1, 2}
)

// Frame describes a synthetic Ethernet/IPv4 frame.
type Frame struct {
	SrcMAC  net.HardwareAddr
	DstMAC  net.HardwareAddr
	Proto   layers.IPProtocol // TCP, UDP, ICMPv4 or anything else
	SrcPort uint16
	DstPort uint16
	Payload []byte
}

// UDP returns an Ethernet+IPv4+UDP frame carrying payload.
func UDP(tb testing.TB, dstPort uint16, payload string) []byte {
	tb.Helper()
	return Build(tb, Frame{Proto: layers.IPProtocolUDP, SrcPort: 40000, DstPort: dstPort, Payload: []byte(payload)})
}

// TCP returns an Ethernet+IPv4+TCP frame carrying payload.
func TCP(tb testing.TB, dstPort uint16, payload string) []byte {
	tb.Helper()
	return Build(tb, Frame{Proto: layers.IPProtocolTCP, SrcPort: 40000, DstPort: dstPort, Payload: []byte(payload)})
}

// ICMP returns an Ethernet+IPv4+ICMP echo request carrying payload.
func ICMP(tb testing.TB, payload string) []byte {
	tb.Helper()
	return Build(tb, Frame{Proto: layers.IPProtocolICMPv4, Payload: []byte(payload)})
}

// Build serializes f with correct lengths and checksums.
func Build(tb testing.TB, f Frame) []byte {
	tb.Helper()

	if f.SrcMAC == nil {
		f.SrcMAC = SrcMAC
	}
	if f.DstMAC == nil {
		f.DstMAC = DstMAC
	}

	eth := &layers.Ethernet{
		SrcMAC:       f.SrcMAC,
		DstMAC:       f.DstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: f.Proto,
		SrcIP:    srcIP,
		DstIP:    dstIP,
	}

	stack := []gopacket.SerializableLayer{eth, ip}
	switch f.Proto {
	case layers.IPProtocolUDP:
		udp := &layers.UDP{SrcPort: layers.UDPPort(f.SrcPort), DstPort: layers.UDPPort(f.DstPort)}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			tb.Fatalf("udp checksum layer: %v", err)
		}
		stack = append(stack, udp)
	case layers.IPProtocolTCP:
		tcp := &layers.TCP{
			SrcPort: layers.TCPPort(f.SrcPort),
			DstPort: layers.TCPPort(f.DstPort),
			Seq:     1,
			Ack:     1,
			ACK:     true,
			PSH:     true,
			Window:  65535,
		}
		if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
			tb.Fatalf("tcp checksum layer: %v", err)
		}
		stack = append(stack, tcp)
	case layers.IPProtocolICMPv4:
		stack = append(stack, &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)})
	}
	stack = append(stack, gopacket.Payload(f.Payload))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, stack...); err != nil {
		tb.Fatalf("serialize frame: %v", err)
	}
	return buf.Bytes()
}

// Packet is one frame of a capture file.
type Packet struct {
	Data []byte
	At   time.Time
}

// WritePcap writes packets into a classic pcap file at path.
func WritePcap(tb testing.TB, path string, packets []Packet) {
	tb.Helper()

	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create pcap: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		tb.Fatalf("pcap header: %v", err)
	}
	for _, p := range packets {
		ci := gopacket.CaptureInfo{Timestamp: p.At, CaptureLength: len(p.Data), Length: len(p.Data)}
		if err := w.WritePacket(ci, p.Data); err != nil {
			tb.Fatalf("pcap write: %v", err)
		}
	}
}

// WritePcapNg writes packets into a pcapng file at path.
func WritePcapNg(tb testing.TB, path string, packets []Packet) {
	tb.Helper()

	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create pcapng: %v", err)
	}
	defer f.Close()

	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	if err != nil {
		tb.Fatalf("pcapng writer: %v", err)
	}
	for _, p := range packets {
		ci := gopacket.CaptureInfo{Timestamp: p.At, CaptureLength: len(p.Data), Length: len(p.Data)}
		if err := w.WritePacket(ci, p.Data); err != nil {
			tb.Fatalf("pcapng write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		tb.Fatalf("pcapng flush: %v", err)
	}
}
