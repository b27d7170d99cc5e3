// Package relevance selects protocol messages out of payload noise.
package relevance

import (
	"fmt"
	"strings"

	"firestige.xyz/ngtrace/internal/utils"
	"firestige.xyz/ngtrace/plugins/parser/ng"
)

// Anchor selects where framing recovery starts looking for a command.
type Anchor string

const (
	// AnchorFirstCommand searches from the start of the text, so a binding
	// command preceding the marker survives recovery. This is the default.
	AnchorFirstCommand Anchor = "first_command"
	// AnchorMarker searches from the matched marker onwards and drops any
	// command before it.
	AnchorMarker Anchor = "marker"
)

// ParseAnchor validates an anchor name. Empty means AnchorFirstCommand.
func ParseAnchor(s string) (Anchor, error) {
	switch a := Anchor(s); a {
	case "":
		return AnchorFirstCommand, nil
	case AnchorMarker, AnchorFirstCommand:
		return a, nil
	default:
		return "", fmt.Errorf("unknown framing anchor %q (must be %s or %s)", s, AnchorMarker, AnchorFirstCommand)
	}
}

// Classifier matches decoded payloads against an ordered marker list.
type Classifier struct {
	markers []string
	recover bool
	anchor  Anchor
}

// New creates a classifier. Marker order decides which marker is reported
// when several match. With recoverFraming set, Apply realigns accepted text
// on its first command.
func New(markers []string, recoverFraming bool) *Classifier {
	return &Classifier{
		markers: append([]string(nil), markers...),
		recover: recoverFraming,
		anchor:  AnchorFirstCommand,
	}
}

// WithAnchor sets where framing recovery starts and returns c.
func (c *Classifier) WithAnchor(a Anchor) *Classifier {
	c.anchor = a
	return c
}

// Markers returns the configured markers.
func (c *Classifier) Markers() []string {
	return c.markers
}

// Classify returns the first marker contained in text. Matching is
// case-sensitive substring containment.
func (c *Classifier) Classify(text string) (string, bool) {
	for _, m := range c.markers {
		if strings.Contains(text, m) {
			return m, true
		}
	}
	return "", false
}

// Apply classifies text and, on a match, returns it with framing recovered
// when enabled.
func (c *Classifier) Apply(text string) (data, marker string, ok bool) {
	marker, ok = c.Classify(text)
	if !ok {
		return "", "", false
	}
	if !c.recover {
		return text, marker, true
	}
	from := 0
	if c.anchor == AnchorMarker {
		from = strings.Index(text, marker)
	}
	return RecoverFraming(text, from), marker, true
}

// RecoverFraming drops the leading noise of text. It cuts everything before
// the first command at or after from; without one it strips leading
// whitespace and control characters instead.
func RecoverFraming(text string, from int) string {
	if from < 0 {
		from = 0
	}
	if at := ng.FindCommand(text, from); at >= 0 {
		return text[at:]
	}
	return utils.TrimControlLeft(text)
}
