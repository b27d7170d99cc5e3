package utils

import (
	"fmt"

	"golang.org/x/net/bpf"
)

// MaxFilterPorts bounds the port list so every jump offset fits in a uint8.
const MaxFilterPorts = 64

const (
	acceptSnapLen = 0xFFFF

	protoTCP = 6
	protoUDP = 17
)

// PortProgram returns a classic BPF program accepting Ethernet/IPv4 TCP or
// UDP frames whose destination port is one of ports.
func PortProgram(ports []uint16) ([]bpf.Instruction, error) {
	n := len(ports)
	if n == 0 {
		return nil, fmt.Errorf("port filter: no ports")
	}
	if n > MaxFilterPorts {
		return nil, fmt.Errorf("port filter: %d ports, at most %d supported", n, MaxFilterPorts)
	}

	// Layout: 7 header instructions, one compare per port, reject, accept.
	reject := 7 + n
	prog := []bpf.Instruction{
		bpf.LoadAbsolute{Off: 12, Size: 2},                                           // ethertype
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 0x0800, SkipFalse: uint8(reject - 2)},   // IPv4
		bpf.LoadAbsolute{Off: 23, Size: 1},                                           // ip proto
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: protoTCP, SkipTrue: 1},                  // tcp
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: protoUDP, SkipFalse: uint8(reject - 5)}, // udp
		bpf.LoadMemShift{Off: 14},                                                    // x = ip header len
		bpf.LoadIndirect{Off: 16, Size: 2},                                           // dst port
	}
	for k, port := range ports {
		prog = append(prog, bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(port), SkipTrue: uint8(n - k)})
	}
	prog = append(prog,
		bpf.RetConstant{Val: 0},
		bpf.RetConstant{Val: acceptSnapLen},
	)
	return prog, nil
}

// PortFilter runs PortProgram in the x/net/bpf interpreter.
type PortFilter struct {
	vm    *bpf.VM
	raw   []bpf.RawInstruction
	ports []uint16
}

// NewPortFilter compiles a destination-port filter.
func NewPortFilter(ports []uint16) (*PortFilter, error) {
	prog, err := PortProgram(ports)
	if err != nil {
		return nil, err
	}

	raw, err := bpf.Assemble(prog)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble BPF filter: %w", err)
	}

	vm, err := bpf.NewVM(prog)
	if err != nil {
		return nil, fmt.Errorf("failed to load BPF filter: %w", err)
	}

	return &PortFilter{vm: vm, raw: raw, ports: append([]uint16(nil), ports...)}, nil
}

// Match reports whether frame passes the filter. Frames too short for the
// program are rejected.
func (f *PortFilter) Match(frame []byte) bool {
	n, err := f.vm.Run(frame)
	return err == nil && n > 0
}

// Ports returns the configured destination ports.
func (f *PortFilter) Ports() []uint16 {
	return f.ports
}

// Raw returns the assembled program, suitable for SO_ATTACH_FILTER.
func (f *PortFilter) Raw() []bpf.RawInstruction {
	return f.raw
}
