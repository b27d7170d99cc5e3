// Package console implements console debug reporter.
// Outputs accepted messages to stdout in human-readable format.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/pkg/plugin"
	"firestige.xyz/ngtrace/plugins/parser/ng"
)

const pluginName = "console"

// ConsoleReporter outputs messages and their events to the console.
type ConsoleReporter struct {
	config        Config
	out           io.Writer
	styles        styles
	reportedCount atomic.Uint64
}

// Config represents console reporter configuration.
type Config struct {
	Format string `mapstructure:"format"` // "json" or "text", default "text"
}

type styles struct {
	time     lipgloss.Style
	marker   lipgloss.Style
	forward  lipgloss.Style
	backward lipgloss.Style
	unknown  lipgloss.Style
}

func newStyles(out io.Writer) styles {
	re := lipgloss.NewRenderer(out)
	return styles{
		time:     re.NewStyle().Faint(true),
		marker:   re.NewStyle().Bold(true),
		forward:  re.NewStyle().Foreground(lipgloss.Color("12")),
		backward: re.NewStyle().Foreground(lipgloss.Color("10")),
		unknown:  re.NewStyle(),
	}
}

// NewConsoleReporter creates a new console reporter.
func NewConsoleReporter() plugin.Reporter {
	return newConsoleReporter(os.Stdout)
}

func newConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{
		config: Config{Format: "text"},
		out:    out,
		styles: newStyles(out),
	}
}

// Name returns the plugin name.
func (r *ConsoleReporter) Name() string {
	return pluginName
}

// Init initializes the reporter with configuration.
func (r *ConsoleReporter) Init(config map[string]any) error {
	if err := plugin.DecodeOptions(pluginName, config, &r.config); err != nil {
		return err
	}
	if r.config.Format != "json" && r.config.Format != "text" {
		return fmt.Errorf("%w: %s: invalid format %q, must be json or text", core.ErrConfigInvalid, pluginName, r.config.Format)
	}
	return nil
}

// Start starts the reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	log.GetLogger().WithField("format", r.config.Format).Debug("console reporter started")
	return nil
}

// Stop stops the reporter.
func (r *ConsoleReporter) Stop(ctx context.Context) error {
	log.GetLogger().WithField("total_reported", r.reportedCount.Load()).Info("console reporter stopped")
	return nil
}

// Report outputs a message to console.
func (r *ConsoleReporter) Report(ctx context.Context, msg *core.Message) error {
	if msg == nil {
		return fmt.Errorf("nil message")
	}

	r.reportedCount.Add(1)

	var err error
	if r.config.Format == "json" {
		err = r.reportJSON(msg)
	} else {
		err = r.reportText(msg)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrSinkWrite, err)
	}
	return nil
}

type jsonEvent struct {
	Command   string   `json:"command"`
	Flags     []string `json:"flags,omitempty"`
	SrcID     *string  `json:"src_id,omitempty"`
	DstID     *string  `json:"dst_id,omitempty"`
	Direction string   `json:"direction"`
	Detail    string   `json:"detail,omitempty"`
}

type jsonMessage struct {
	Time   *float64    `json:"time"`
	SrcMAC string      `json:"src_mac"`
	DstMAC string      `json:"dst_mac"`
	Marker string      `json:"marker"`
	Events []jsonEvent `json:"events"`
}

// reportJSON outputs the message and its events as one JSON line.
func (r *ConsoleReporter) reportJSON(msg *core.Message) error {
	out := jsonMessage{
		Time:   msg.Time,
		SrcMAC: msg.Link.Src.String(),
		DstMAC: msg.Link.Dst.String(),
		Marker: msg.Marker,
		Events: make([]jsonEvent, 0, len(msg.Events)),
	}
	for _, ev := range msg.Events {
		out.Events = append(out.Events, jsonEvent{
			Command:   ev.Command,
			Flags:     ev.Flags,
			SrcID:     ev.SrcID,
			DstID:     ev.DstID,
			Direction: ng.DirectionOf(ev.Command).String(),
			Detail:    ng.Detail(ev),
		})
	}

	data, err := json.MarshalNoEscape(out)
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}

// reportText outputs the message header and one indented line per event.
func (r *ConsoleReporter) reportText(msg *core.Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s -> %s %s\n",
		r.styles.time.Render(formatTime(msg.Time)),
		msg.Link.Src, msg.Link.Dst,
		r.styles.marker.Render(msg.Marker))

	for _, ev := range msg.Events {
		line := "ng -" + ev.Command
		if ev.Attributed() {
			line += fmt.Sprintf(" %s -> %s", *ev.SrcID, *ev.DstID)
		}
		if detail := ng.Detail(ev); detail != "" {
			line += "  " + detail
		}
		fmt.Fprintf(&b, "    %s\n", r.directionStyle(ev.Command).Render(line))
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *ConsoleReporter) directionStyle(command string) lipgloss.Style {
	switch ng.DirectionOf(command) {
	case ng.DirectionForward:
		return r.styles.forward
	case ng.DirectionBackward:
		return r.styles.backward
	default:
		return r.styles.unknown
	}
}

func formatTime(t *float64) string {
	if t == nil {
		return "[         -]"
	}
	return fmt.Sprintf("[%10.6f]", *t)
}

// Flush is a no-op for console reporter (stdout auto-flushes).
func (r *ConsoleReporter) Flush(ctx context.Context) error {
	return nil
}
