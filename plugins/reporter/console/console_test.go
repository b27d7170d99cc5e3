package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ngtrace/internal/core"
)

func TestConsoleReporter_Init(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
		wantFmt string
	}{
		{
			name:    "nil config defaults to text",
			config:  nil,
			wantErr: false,
			wantFmt: "text",
		},
		{
			name:    "empty config defaults to text",
			config:  map[string]any{},
			wantErr: false,
			wantFmt: "text",
		},
		{
			name:    "json format",
			config:  map[string]any{"format": "json"},
			wantErr: false,
			wantFmt: "json",
		},
		{
			name:    "text format",
			config:  map[string]any{"format": "text"},
			wantErr: false,
			wantFmt: "text",
		},
		{
			name:    "invalid format",
			config:  map[string]any{"format": "xml"},
			wantErr: true,
		},
		{
			name:    "unknown option",
			config:  map[string]any{"colour": true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewConsoleReporter().(*ConsoleReporter)
			err := r.Init(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrConfigInvalid)
				return
			}
			if r.config.Format != tt.wantFmt {
				t.Errorf("Init() format = %v, want %v", r.config.Format, tt.wantFmt)
			}
		})
	}
}

func bindingMessage() *core.Message {
	src, dst := "0000000C", "1000000C"
	return &core.Message{
		Time: core.Float64(1.5),
		Link: core.LinkEndpoints{
			Src: core.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
			Dst: core.MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		},
		Marker: "ng -notify",
		Data:   "ng -m --cl [ ... ] ng -notify [ <2 s report.txt> ]",
		Events: []core.ProtocolEvent{
			{
				Command: "notify",
				Vectors: []core.TaggedVector{{TypeTag: 2, Kind: "s", Values: []string{"report.txt"}}},
				SrcID:   &src,
				DstID:   &dst,
			},
			{Command: "s"},
		},
	}
}

func TestConsoleReporter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	r := newConsoleReporter(&buf)
	require.NoError(t, r.Init(map[string]any{"format": "text"}))

	require.NoError(t, r.Report(context.Background(), bindingMessage()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[  1.500000] aa:bb:cc:dd:ee:ff -> 00:11:22:33:44:55 ng -notify", lines[0])
	assert.Equal(t, "    ng -notify 0000000C -> 1000000C  Notify: report.txt", lines[1])
	assert.Equal(t, "    ng -s", lines[2])
}

func TestConsoleReporter_TextFormatNoTime(t *testing.T) {
	var buf bytes.Buffer
	r := newConsoleReporter(&buf)

	msg := bindingMessage()
	msg.Time = nil
	msg.Events = nil
	require.NoError(t, r.Report(context.Background(), msg))
	assert.True(t, strings.HasPrefix(buf.String(), "[         -] "))
}

func TestConsoleReporter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	r := newConsoleReporter(&buf)
	require.NoError(t, r.Init(map[string]any{"format": "json"}))

	ctx := context.Background()
	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Report(ctx, bindingMessage()))
	assert.Equal(t, uint64(1), r.reportedCount.Load())

	var got jsonMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "ng -notify", got.Marker)
	require.Len(t, got.Events, 2)
	assert.Equal(t, "forward", got.Events[0].Direction)
	assert.Equal(t, "Notify: report.txt", got.Events[0].Detail)
	assert.Equal(t, "0000000C", *got.Events[0].SrcID)
	assert.Equal(t, "backward", got.Events[1].Direction)
	assert.Nil(t, got.Events[1].SrcID)

	assert.Error(t, r.Report(ctx, nil))
	assert.NoError(t, r.Stop(ctx))
}

func TestConsoleReporter_Lifecycle(t *testing.T) {
	r := NewConsoleReporter()

	if name := r.Name(); name != "console" {
		t.Errorf("Name() = %s, want console", name)
	}

	ctx := context.Background()

	if err := r.Start(ctx); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if err := r.Flush(ctx); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if err := r.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
