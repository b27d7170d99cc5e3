package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ngtrace/internal/core"
)

func ev(src, dst string, t float64, cmd string) core.ProtocolEvent {
	e := core.ProtocolEvent{Time: core.Float64(t), Command: cmd}
	if src != "" {
		e.SrcID = &src
	}
	if dst != "" {
		e.DstID = &dst
	}
	return e
}

func commands(events []core.ProtocolEvent) []string {
	var out []string
	for _, e := range events {
		out = append(out, e.Command)
	}
	return out
}

func TestReconstructGapDetection(t *testing.T) {
	events := []core.ProtocolEvent{
		ev("A", "B", 9.0, "d"),
		ev("A", "B", 0.0, "a"),
		ev("A", "B", 0.6, "c"),
		ev("A", "B", 0.5, "b"),
	}

	seqs := Reconstruct(events, 0.1)
	require.Len(t, seqs, 1)

	seq := seqs[PairKey{Src: "A", Dst: "B"}]
	require.NotNil(t, seq)
	assert.Equal(t, []string{"a", "b", "c", "d"}, commands(seq.Events))
	assert.Equal(t, []int{3}, seq.Gaps)
	assert.True(t, seq.IsGap(3))
	assert.False(t, seq.IsGap(1))
	assert.Equal(t, 0.0, seq.Start())
	assert.Equal(t, 9.0, seq.End())
}

func TestReconstructGapThresholdIsStrict(t *testing.T) {
	// Range 9, threshold 0.9: the 1.0 step is a gap, the 0.1 step is not.
	events := []core.ProtocolEvent{
		ev("A", "B", 0.0, "a"),
		ev("A", "B", 1.0, "b"),
		ev("A", "B", 1.1, "c"),
		ev("A", "B", 9.0, "d"),
	}
	seq := Reconstruct(events, 0.1)[PairKey{"A", "B"}]
	assert.Equal(t, []int{1, 3}, seq.Gaps)

	// Range 2, threshold 1: a delta of exactly 1 is not a gap.
	events = []core.ProtocolEvent{ev("A", "B", 0, "a"), ev("A", "B", 1, "b"), ev("A", "B", 2, "c")}
	seq = Reconstruct(events, 0.5)[PairKey{"A", "B"}]
	assert.Empty(t, seq.Gaps)
}

func TestReconstructGroupsByPair(t *testing.T) {
	events := []core.ProtocolEvent{
		ev("A", "B", 1, "ab1"),
		ev("B", "A", 2, "ba1"),
		ev("A", "B", 3, "ab2"),
		ev("A", "", 4, "partial"),
		ev("", "B", 5, "partial"),
		ev("", "", 6, "none"),
	}

	seqs := Reconstruct(events, DefaultGapRatio)
	require.Len(t, seqs, 2)
	assert.Equal(t, []string{"ab1", "ab2"}, commands(seqs[PairKey{"A", "B"}].Events))
	assert.Equal(t, []string{"ba1"}, commands(seqs[PairKey{"B", "A"}].Events))
}

func TestReconstructStableTies(t *testing.T) {
	events := []core.ProtocolEvent{
		ev("A", "B", 2, "late"),
		ev("A", "B", 1, "first"),
		ev("A", "B", 1, "second"),
		ev("A", "B", 1, "third"),
	}

	seq := Reconstruct(events, DefaultGapRatio)[PairKey{"A", "B"}]
	assert.Equal(t, []string{"first", "second", "third", "late"}, commands(seq.Events))
}

func TestReconstructSingleEvent(t *testing.T) {
	seq := Reconstruct([]core.ProtocolEvent{ev("A", "B", 42, "only")}, DefaultGapRatio)[PairKey{"A", "B"}]
	require.NotNil(t, seq)
	assert.Len(t, seq.Events, 1)
	assert.Empty(t, seq.Gaps)
}

func TestReconstructEqualTimes(t *testing.T) {
	events := []core.ProtocolEvent{ev("A", "B", 5, "x"), ev("A", "B", 5, "y")}
	seq := Reconstruct(events, DefaultGapRatio)[PairKey{"A", "B"}]
	assert.Empty(t, seq.Gaps)
}

func TestReconstructEmpty(t *testing.T) {
	assert.Empty(t, Reconstruct(nil, DefaultGapRatio))
	assert.Empty(t, Reconstruct([]core.ProtocolEvent{ev("A", "", 1, "x")}, DefaultGapRatio))
}

func TestReconstructNegativeTimes(t *testing.T) {
	events := []core.ProtocolEvent{ev("A", "B", 0, "b"), ev("A", "B", -10, "a"), ev("A", "B", 0.5, "c")}
	seq := Reconstruct(events, DefaultGapRatio)[PairKey{"A", "B"}]
	assert.Equal(t, []string{"a", "b", "c"}, commands(seq.Events))
	assert.Equal(t, []int{1}, seq.Gaps)
}

func TestReconstructDoesNotReorderInput(t *testing.T) {
	events := []core.ProtocolEvent{ev("A", "B", 2, "b"), ev("A", "B", 1, "a")}
	Reconstruct(events, DefaultGapRatio)
	assert.Equal(t, []string{"b", "a"}, commands(events))
}

func TestSortedKeys(t *testing.T) {
	seqs := Reconstruct([]core.ProtocolEvent{
		ev("B", "A", 1, "x"),
		ev("A", "C", 1, "x"),
		ev("A", "B", 1, "x"),
	}, DefaultGapRatio)

	assert.Equal(t, []PairKey{{"A", "B"}, {"A", "C"}, {"B", "A"}}, SortedKeys(seqs))
	assert.Equal(t, "A -> B", PairKey{"A", "B"}.String())
}

func TestWindow(t *testing.T) {
	untimed := ev("A", "B", 0, "untimed")
	untimed.Time = nil
	events := []core.ProtocolEvent{ev("A", "B", 1, "a"), ev("A", "B", 2, "b"), ev("A", "B", 3, "c"), untimed}

	assert.Len(t, Window(events, nil, nil), 4)
	assert.Equal(t, []string{"b", "c"}, commands(Window(events, core.Float64(2), nil)))
	assert.Equal(t, []string{"a", "b"}, commands(Window(events, nil, core.Float64(2))))
	assert.Equal(t, []string{"b"}, commands(Window(events, core.Float64(2), core.Float64(2))))
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(nil, nil, nil))
	assert.False(t, InRange(nil, core.Float64(0), nil))
	assert.True(t, InRange(core.Float64(1), core.Float64(1), core.Float64(1)))
	assert.False(t, InRange(core.Float64(1.5), nil, core.Float64(1)))
}
