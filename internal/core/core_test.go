package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMACString(t *testing.T) {
	m := MAC{0xAA, 0xBB, 0x0C, 0x00, 0xEE, 0xFF}
	if got := m.String(); got != "aa:bb:0c:00:ee:ff" {
		t.Errorf("MAC.String() = %q, want aa:bb:0c:00:ee:ff", got)
	}
}

func TestParseMAC(t *testing.T) {
	tests := []struct {
		input   string
		want    MAC
		wantErr bool
	}{
		{"aa:bb:cc:dd:ee:ff", MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, false},
		{"AA:BB:CC:DD:EE:FF", MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, false},
		{"00:11:22:33:44:55", MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, false},
		{"00:11:22:33:44", MAC{}, true},
		{"0:11:22:33:44:55", MAC{}, true},
		{"zz:11:22:33:44:55", MAC{}, true},
		{"", MAC{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMAC(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMAC(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMAC(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMACRoundTrip(t *testing.T) {
	m := MAC{0x01, 0x02, 0x03, 0xfd, 0xfe, 0xff}
	got, err := ParseMAC(m.String())
	if err != nil {
		t.Fatalf("ParseMAC failed: %v", err)
	}
	if got != m {
		t.Errorf("round trip = %v, want %v", got, m)
	}
}

func TestTaggedVectorAccessors(t *testing.T) {
	v := TaggedVector{
		TypeTag: 4,
		Kind:    "s",
		Values:  []string{"0A1B2C3D", "0A1B2C3E", "file.txt"},
		Fields:  []string{"0A1B2C3D", "0A1B2C3E"},
	}

	t.Run("Field in range", func(t *testing.T) {
		f, ok := v.Field(1)
		if !ok || f != "0A1B2C3E" {
			t.Errorf("Field(1) = %q, %v", f, ok)
		}
	})

	t.Run("Field out of range", func(t *testing.T) {
		for _, i := range []int{-1, 2, 10} {
			if f, ok := v.Field(i); ok {
				t.Errorf("Field(%d) = %q, want absent", i, f)
			}
		}
	})

	t.Run("LastValue", func(t *testing.T) {
		last, ok := v.LastValue()
		if !ok || last != "file.txt" {
			t.Errorf("LastValue() = %q, %v", last, ok)
		}
	})

	t.Run("LastValue on empty vector", func(t *testing.T) {
		var empty TaggedVector
		if _, ok := empty.LastValue(); ok {
			t.Error("expected no last value on empty vector")
		}
	})
}

func TestProtocolEventAttributed(t *testing.T) {
	src, dst := "0000000A", "0000000B"

	tests := []struct {
		name string
		ev   ProtocolEvent
		want bool
	}{
		{"both ids", ProtocolEvent{SrcID: &src, DstID: &dst}, true},
		{"src only", ProtocolEvent{SrcID: &src}, false},
		{"dst only", ProtocolEvent{DstID: &dst}, false},
		{"none", ProtocolEvent{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.Attributed(); got != tt.want {
				t.Errorf("Attributed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinelErrorsWrap(t *testing.T) {
	sentinels := []error{
		ErrSourceOpen,
		ErrSourceRead,
		ErrSinkWrite,
		ErrConfigInvalid,
		ErrUnknownPlugin,
		ErrRecordMalformed,
	}

	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("context: %w", sentinel)
		if !errors.Is(wrapped, sentinel) {
			t.Errorf("errors.Is failed for %v", sentinel)
		}
	}
}

func TestFloat64(t *testing.T) {
	p := Float64(1.5)
	if p == nil || *p != 1.5 {
		t.Errorf("Float64(1.5) = %v", p)
	}
}
