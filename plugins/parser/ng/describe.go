package ng

import (
	"fmt"
	"slices"
	"strings"

	"firestige.xyz/ngtrace/internal/core"
)

// Direction tells which way an event travels inside its conversation.
type Direction int

const (
	DirectionUnknown  Direction = iota
	DirectionForward            // source to destination
	DirectionBackward           // destination to source
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "unknown"
	}
}

var directions = map[string]Direction{
	"info":     DirectionForward,
	"send":     DirectionForward,
	"request":  DirectionForward,
	"notify":   DirectionForward,
	"d":        DirectionForward,
	"p":        DirectionForward,
	"response": DirectionBackward,
	"reply":    DirectionBackward,
	"s":        DirectionBackward,
	"scn":      DirectionBackward,
}

// DirectionOf returns the direction of a command name.
func DirectionOf(command string) Direction {
	return directions[command]
}

const maxListedHashes = 3

// Detail renders a short human description of ev, or "" when the command
// has none.
func Detail(ev core.ProtocolEvent) string {
	switch ev.Command {
	case "info":
		if payload, ok := lastValue(ev.Vectors); ok {
			return "Payload: " + payload
		}
	case "notify":
		if file, ok := lastValue(ev.Vectors); ok {
			return "Notify: " + file
		}
	case "p":
		switch {
		case HasFlag(ev, "--notify"):
			if file, ok := lastValue(ev.Vectors); ok {
				return "Publish & Notify: " + file
			}
		case HasFlag(ev, "--b"):
			hashes := identifiers(ev.Vectors)
			if len(hashes) == 0 {
				return ""
			}
			more := ""
			if len(hashes) > maxListedHashes {
				hashes, more = hashes[:maxListedHashes], "..."
			}
			return fmt.Sprintf("Publish hashes: %s%s", strings.Join(hashes, ", "), more)
		}
	case "scn":
		if ids := identifiers(ev.Vectors); len(ids) > 0 {
			return "Sequence hash: " + ids[0]
		}
	}
	return ""
}

// HasFlag reports whether flag appears among the event's arguments.
func HasFlag(ev core.ProtocolEvent, flag string) bool {
	return slices.Contains(ev.Flags, flag)
}

// IDSlots names the leading identifiers of a command body.
type IDSlots struct {
	HID  *string
	OSID *string
	PID  *string
	BID  *string
}

// Slots assigns the first four identifiers of vectors to HID, OSID, PID and
// BID. Missing identifiers stay nil.
func Slots(vectors []core.TaggedVector) IDSlots {
	ids := identifiers(vectors)
	var s IDSlots
	for i, dst := range []**string{&s.HID, &s.OSID, &s.PID, &s.BID} {
		if i < len(ids) {
			*dst = &ids[i]
		}
	}
	return s
}

func identifiers(vectors []core.TaggedVector) []string {
	var ids []string
	for _, v := range vectors {
		ids = append(ids, v.Fields...)
	}
	return ids
}

func lastValue(vectors []core.TaggedVector) (string, bool) {
	for i := len(vectors) - 1; i >= 0; i-- {
		if last, ok := vectors[i].LastValue(); ok {
			return last, true
		}
	}
	return "", false
}
