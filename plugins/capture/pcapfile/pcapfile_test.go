package pcapfile

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/testutil"
)

var base = time.Unix(1700000000, 250000000)

func samplePackets(t *testing.T) []testutil.Packet {
	return []testutil.Packet{
		{Data: testutil.UDP(t, 9999, "ng -d [ <1 s 18> ]"), At: base},
		{Data: testutil.UDP(t, 5353, "mdns noise"), At: base.Add(time.Second)},
		{Data: testutil.TCP(t, 8888, "ng -s [ ok ]"), At: base.Add(2 * time.Second)},
	}
}

func startCapturer(t *testing.T, cfg map[string]any) *PcapFileCapturer {
	t.Helper()
	c := NewPcapFileCapturer().(*PcapFileCapturer)
	require.NoError(t, c.Init(cfg))
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { c.Stop(context.Background()) })
	return c
}

func drain(t *testing.T, c *PcapFileCapturer) []core.RawFrame {
	t.Helper()
	var frames []core.RawFrame
	for {
		f, err := c.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
}

func TestPcapFileCapturer_Formats(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		write func(testing.TB, string, []testutil.Packet)
	}{
		{"pcap", "capture.pcap", testutil.WritePcap},
		{"pcapng", "capture.pcapng", testutil.WritePcapNg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packets := samplePackets(t)
			path := filepath.Join(t.TempDir(), tt.file)
			tt.write(t, path, packets)

			c := startCapturer(t, map[string]any{"path": path})
			frames := drain(t, c)

			require.Len(t, frames, len(packets))
			for i, f := range frames {
				assert.Equal(t, packets[i].Data, f.Data)
				require.NotNil(t, f.CaptureTime)
				assert.InDelta(t, float64(packets[i].At.UnixNano())/1e9, *f.CaptureTime, 1e-6)
			}
			assert.Equal(t, uint64(3), c.Stats().FramesRead)
			assert.Zero(t, c.Stats().FramesFiltered)
		})
	}
}

func TestPcapFileCapturer_Gzip(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "capture.pcapng")
	testutil.WritePcapNg(t, plain, samplePackets(t))

	raw, err := os.ReadFile(plain)
	require.NoError(t, err)

	gzPath := filepath.Join(dir, "capture.pcapng.gz")
	f, err := os.Create(gzPath)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	c := startCapturer(t, map[string]any{"path": gzPath})
	assert.Len(t, drain(t, c), 3)
}

func TestPcapFileCapturer_PortFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	packets := samplePackets(t)
	testutil.WritePcap(t, path, packets)

	c := startCapturer(t, map[string]any{"path": path, "ports": []int{9999, 8888}})
	frames := drain(t, c)

	require.Len(t, frames, 2)
	assert.Equal(t, packets[0].Data, frames[0].Data)
	assert.Equal(t, packets[2].Data, frames[1].Data)

	stats := c.Stats()
	assert.Equal(t, uint64(3), stats.FramesRead)
	assert.Equal(t, uint64(1), stats.FramesFiltered)
}

func manyPorts(n int) []int {
	ports := make([]int, n)
	for i := range ports {
		ports[i] = 10000 + i
	}
	return ports
}

func TestPcapFileCapturer_Init(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{"path only", map[string]any{"path": "x.pcap"}, false},
		{"with ports", map[string]any{"path": "x.pcap", "ports": []any{9999}}, false},
		{"missing path", map[string]any{}, true},
		{"nil config", nil, true},
		{"unknown key", map[string]any{"path": "x.pcap", "iface": "eth0"}, true},
		{"too many ports", map[string]any{"path": "x.pcap", "ports": manyPorts(65)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPcapFileCapturer()
			err := c.Init(tt.config)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrConfigInvalid)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "pcapfile", c.Name())
		})
	}
}

func TestPcapFileCapturer_StartErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		c := NewPcapFileCapturer()
		require.NoError(t, c.Init(map[string]any{"path": filepath.Join(t.TempDir(), "nope.pcap")}))
		assert.ErrorIs(t, c.Start(context.Background()), core.ErrSourceOpen)
	})

	t.Run("not a capture file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.pcap")
		require.NoError(t, os.WriteFile(path, []byte("definitely not pcap data"), 0o644))

		c := NewPcapFileCapturer()
		require.NoError(t, c.Init(map[string]any{"path": path}))
		assert.ErrorIs(t, c.Start(context.Background()), core.ErrSourceOpen)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.pcap")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		c := NewPcapFileCapturer()
		require.NoError(t, c.Init(map[string]any{"path": path}))
		assert.ErrorIs(t, c.Start(context.Background()), core.ErrSourceOpen)
	})
}

func TestPcapFileCapturer_NextBeforeStart(t *testing.T) {
	c := NewPcapFileCapturer()
	require.NoError(t, c.Init(map[string]any{"path": "x.pcap"}))
	_, err := c.Next(context.Background())
	assert.ErrorIs(t, err, core.ErrSourceRead)
}

func TestPcapFileCapturer_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	testutil.WritePcap(t, path, samplePackets(t))
	c := startCapturer(t, map[string]any{"path": path})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
