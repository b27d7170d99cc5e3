package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ngtrace/internal/core"
)

func testMessage() *core.Message {
	src, dst := "0000000C", "1000000C"
	return &core.Message{
		Time: core.Float64(2.5),
		Link: core.LinkEndpoints{
			Src: core.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
			Dst: core.MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		},
		Marker: "ng -p",
		Data:   "ng -m --cl [ ] ng -p --notify [ <2 s a.txt> ]",
		Events: []core.ProtocolEvent{
			{
				Time:    core.Float64(2.5),
				Command: "p",
				Flags:   []string{"--notify"},
				Vectors: []core.TaggedVector{{TypeTag: 2, Kind: "s", Values: []string{"a.txt"}}},
				SrcID:   &src,
				DstID:   &dst,
			},
		},
	}
}

func startReporter(t *testing.T, path string, extra map[string]any) *SQLiteReporter {
	t.Helper()
	opts := map[string]any{"path": path}
	for k, v := range extra {
		opts[k] = v
	}
	r := NewSQLiteReporter().(*SQLiteReporter)
	require.NoError(t, r.Init(opts))
	require.NoError(t, r.Start(context.Background()))
	return r
}

func countRows(t *testing.T, path, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteReporter_StoresEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	r := startReporter(t, path, nil)
	ctx := context.Background()

	noTime := testMessage()
	noTime.Time = nil
	noTime.Events = []core.ProtocolEvent{{Command: "s"}}

	require.NoError(t, r.Report(ctx, testMessage()))
	require.NoError(t, r.Report(ctx, noTime))
	require.NoError(t, r.Flush(ctx))
	require.NoError(t, r.Stop(ctx))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT seq, time, command, flags, src_id, dst_id, direction, detail FROM events ORDER BY seq`)
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		seq       int
		time      sql.NullFloat64
		command   string
		flags     string
		srcID     sql.NullString
		dstID     sql.NullString
		direction string
		detail    string
	}
	var got []row
	for rows.Next() {
		var rw row
		require.NoError(t, rows.Scan(&rw.seq, &rw.time, &rw.command, &rw.flags, &rw.srcID, &rw.dstID, &rw.direction, &rw.detail))
		got = append(got, rw)
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].seq)
	assert.Equal(t, 2.5, got[0].time.Float64)
	assert.Equal(t, "p", got[0].command)
	assert.Equal(t, "--notify", got[0].flags)
	assert.Equal(t, "0000000C", got[0].srcID.String)
	assert.Equal(t, "1000000C", got[0].dstID.String)
	assert.Equal(t, "forward", got[0].direction)
	assert.Equal(t, "Publish & Notify: a.txt", got[0].detail)

	assert.False(t, got[1].time.Valid)
	assert.False(t, got[1].srcID.Valid)
	assert.Equal(t, "backward", got[1].direction)

	assert.Equal(t, 2, countRows(t, path, "messages"))
}

func TestSQLiteReporter_UnflushedRolledBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	r := startReporter(t, path, nil)
	ctx := context.Background()

	require.NoError(t, r.Report(ctx, testMessage()))
	require.NoError(t, r.Stop(ctx))

	assert.Zero(t, countRows(t, path, "messages"))
}

func TestSQLiteReporter_Truncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.db")
	ctx := context.Background()

	r := startReporter(t, path, nil)
	require.NoError(t, r.Report(ctx, testMessage()))
	require.NoError(t, r.Flush(ctx))
	require.NoError(t, r.Stop(ctx))

	r = startReporter(t, path, nil)
	require.NoError(t, r.Report(ctx, testMessage()))
	require.NoError(t, r.Flush(ctx))
	require.NoError(t, r.Stop(ctx))
	assert.Equal(t, 2, countRows(t, path, "messages"))

	r = startReporter(t, path, map[string]any{"truncate": true})
	require.NoError(t, r.Stop(ctx))
	assert.Zero(t, countRows(t, path, "events"))
}

func TestSQLiteReporter_Init(t *testing.T) {
	r := NewSQLiteReporter()
	assert.Equal(t, "sqlite", r.Name())
	assert.ErrorIs(t, r.Init(nil), core.ErrConfigInvalid)
	assert.ErrorIs(t, r.Init(map[string]any{"path": "x.db", "table": "y"}), core.ErrConfigInvalid)
	assert.NoError(t, r.Init(map[string]any{"path": "x.db"}))
}

func TestSQLiteReporter_NotStarted(t *testing.T) {
	r := NewSQLiteReporter()
	require.NoError(t, r.Init(map[string]any{"path": "x.db"}))
	assert.ErrorIs(t, r.Report(context.Background(), testMessage()), core.ErrSinkWrite)
	assert.NoError(t, r.Flush(context.Background()))
	assert.NoError(t, r.Stop(context.Background()))
}
