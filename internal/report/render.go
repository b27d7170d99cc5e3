package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, rep *Report) error
}

// Formats lists the accepted --format values.
var Formats = []string{"text", "json", "yaml"}

// NewRenderer returns the renderer for format. Text output is coloured
// only when out is a terminal.
func NewRenderer(format string, out io.Writer) (Renderer, error) {
	switch format {
	case "", "text":
		return NewTextRenderer(out, isTerminal(out)), nil
	case "json":
		return JSONRenderer{Indent: "  "}, nil
	case "yaml":
		return YAMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (must be one of %s)", format, strings.Join(Formats, ", "))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// JSONRenderer writes the report as one JSON document.
type JSONRenderer struct {
	Indent string
}

func (r JSONRenderer) Render(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.Indent != "" {
		enc.SetIndent("", r.Indent)
	}
	return enc.Encode(rep)
}

// YAMLRenderer writes the report as one YAML document.
type YAMLRenderer struct{}

func (YAMLRenderer) Render(w io.Writer, rep *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

// TextRenderer writes a human-readable sequence listing. Forward steps are
// blue, backward steps green.
type TextRenderer struct {
	header   lipgloss.Style
	pair     lipgloss.Style
	forward  lipgloss.Style
	backward lipgloss.Style
	unknown  lipgloss.Style
	gap      lipgloss.Style
}

// NewTextRenderer creates a text renderer; color enables styling.
func NewTextRenderer(out io.Writer, color bool) *TextRenderer {
	if !color {
		plain := lipgloss.NewStyle()
		return &TextRenderer{header: plain, pair: plain, forward: plain, backward: plain, unknown: plain, gap: plain}
	}
	re := lipgloss.NewRenderer(out)
	return &TextRenderer{
		header:   re.NewStyle().Bold(true),
		pair:     re.NewStyle().Bold(true).Underline(true),
		forward:  re.NewStyle().Foreground(lipgloss.Color("12")),
		backward: re.NewStyle().Foreground(lipgloss.Color("10")),
		unknown:  re.NewStyle(),
		gap:      re.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (r *TextRenderer) Render(w io.Writer, rep *Report) error {
	var b strings.Builder

	if rep.TimeRange == nil {
		b.WriteString(r.header.Render("No attributed events"))
	} else {
		b.WriteString(r.header.Render(fmt.Sprintf("Time range: %.6f - %.6f", rep.TimeRange[0], rep.TimeRange[1])))
	}
	fmt.Fprintf(&b, " (%d events, %d unattributed)\n", rep.Events, rep.Unattributed)

	for _, conv := range rep.Conversations {
		b.WriteString("\n")
		b.WriteString(r.pair.Render(conv.Src + " -> " + conv.Dst))
		fmt.Fprintf(&b, "  %d %s, %d %s\n",
			len(conv.Events), plural(len(conv.Events), "event", "events"),
			conv.Gaps, plural(conv.Gaps, "gap", "gaps"))

		for _, ev := range conv.Events {
			if ev.GapBefore {
				b.WriteString("  " + r.gap.Render("~~~~~~~~ gap ~~~~~~~~") + "\n")
			}
			b.WriteString("  " + r.eventLine(ev) + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *TextRenderer) eventLine(ev Event) string {
	arrow, style := "--", r.unknown
	switch ev.Direction {
	case "forward":
		arrow, style = "->", r.forward
	case "backward":
		arrow, style = "<-", r.backward
	}

	line := fmt.Sprintf("[%s] %s %s", FormatTime(ev.Time), arrow, ev.Command)
	if ev.Detail != "" {
		line += "  " + ev.Detail
	}
	return style.Render(line)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
