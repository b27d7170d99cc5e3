package ng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ngtrace/internal/core"
)

var testLink = core.LinkEndpoints{
	Src: core.MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
	Dst: core.MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
}

func TestParseAttributesEvents(t *testing.T) {
	text := "ng -m --cl 0.1 [" + bindingBody + "] ng -p --notify 0.1 [ <1 s 18> <1 s file.txt> ] ng -d --b 0.1 [ <1 s 0A1B2C3D> ]"
	p := NewParser(DefaultBinding())

	events := p.Parse(text, testLink, core.Float64(2.5))
	require.Len(t, events, 2)

	assert.Equal(t, "p", events[0].Command)
	assert.Equal(t, []string{"--notify", "0.1"}, events[0].Flags)
	assert.Len(t, events[0].Vectors, 2)
	assert.Equal(t, "d", events[1].Command)

	for _, ev := range events {
		require.True(t, ev.Attributed())
		assert.Equal(t, "0000000C", *ev.SrcID)
		assert.Equal(t, "1000000C", *ev.DstID)
		assert.Equal(t, testLink, ev.Link)
		assert.Equal(t, 2.5, *ev.Time)
	}
}

func TestParseWithoutBinding(t *testing.T) {
	events := NewParser(DefaultBinding()).Parse("ng -p --notify 0.1 [ <1 s 18> <1 s file.txt> ]", testLink, nil)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "p", ev.Command)
	assert.Nil(t, ev.SrcID)
	assert.Nil(t, ev.DstID)
	assert.Nil(t, ev.Time)
	assert.False(t, ev.Attributed())
}

func TestParseBindingOnly(t *testing.T) {
	events := NewParser(DefaultBinding()).Parse("ng -m --cl 0.1 ["+bindingBody+"]", testLink, nil)
	require.Len(t, events, 1)
	assert.Equal(t, "m", events[0].Command)
	assert.True(t, events[0].Attributed())
}

func TestParseFirstBindingWins(t *testing.T) {
	text := "ng -m --cl 0.1 [ <4 s 0000000A 0000000B 0000000C> ] ng -m --cl 0.1 [" + bindingBody + "] ng -s 0.1 [ ]"
	events := NewParser(DefaultBinding()).Parse(text, testLink, nil)
	require.Len(t, events, 1)

	assert.Equal(t, "s", events[0].Command)
	assert.Equal(t, "0000000C", *events[0].SrcID)
	assert.Nil(t, events[0].DstID)
}

func TestParseCustomBindingCommand(t *testing.T) {
	p := NewParser(Binding{Command: "route", VectorTag: 4, Field: 0})
	events := p.Parse("ng -route [ <4 s 0000000A> <4 s 1000000A> ] ng -d [ ]", testLink, nil)
	require.Len(t, events, 1)
	assert.Equal(t, "0000000A", *events[0].SrcID)
	assert.Equal(t, "1000000A", *events[0].DstID)
	assert.Equal(t, "route", p.Binding().Command)
}

func TestParseNoCommands(t *testing.T) {
	assert.Empty(t, NewParser(DefaultBinding()).Parse("noise only", testLink, nil))
}
