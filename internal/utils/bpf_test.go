package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ngtrace/internal/testutil"
)

func TestPortFilterMatch(t *testing.T) {
	f, err := NewPortFilter([]uint16{9999, 8888})
	require.NoError(t, err)

	tests := []struct {
		name  string
		frame []byte
		want  bool
	}{
		{"udp 9999", testutil.UDP(t, 9999, "ng -d"), true},
		{"udp 8888", testutil.UDP(t, 8888, "ng -d"), true},
		{"tcp 9999", testutil.TCP(t, 9999, "ng -d"), true},
		{"udp other port", testutil.UDP(t, 53, "ng -d"), false},
		{"icmp", testutil.ICMP(t, "ng -d"), false},
		{"truncated", testutil.UDP(t, 9999, "")[:20], false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Match(tt.frame))
		})
	}
}

func TestPortFilterNonIPv4(t *testing.T) {
	f, err := NewPortFilter([]uint16{9999})
	require.NoError(t, err)

	frame := testutil.UDP(t, 9999, "x")
	frame[12], frame[13] = 0x86, 0xDD
	assert.False(t, f.Match(frame))
}

func TestPortFilterErrors(t *testing.T) {
	_, err := NewPortFilter(nil)
	assert.Error(t, err)

	_, err = NewPortFilter(make([]uint16, MaxFilterPorts+1))
	assert.Error(t, err)
}

func TestPortFilterMaxPorts(t *testing.T) {
	ports := make([]uint16, MaxFilterPorts)
	for i := range ports {
		ports[i] = uint16(10000 + i)
	}

	f, err := NewPortFilter(ports)
	require.NoError(t, err)
	assert.Len(t, f.Raw(), MaxFilterPorts+9)
	assert.True(t, f.Match(testutil.UDP(t, 10000+MaxFilterPorts-1, "x")))
	assert.False(t, f.Match(testutil.UDP(t, 10000+MaxFilterPorts, "x")))
}
