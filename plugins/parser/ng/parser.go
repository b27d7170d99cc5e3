package ng

import (
	"strings"

	"firestige.xyz/ngtrace/internal/core"
)

// Parser turns decoded payload text into protocol events.
type Parser struct {
	binding Binding
}

// NewParser creates a parser that attributes events through binding.
func NewParser(binding Binding) *Parser {
	return &Parser{binding: binding}
}

// Binding returns the binding the parser resolves identifiers with.
func (p *Parser) Binding() Binding {
	return p.binding
}

// Parse decodes every command of text. The first binding command found
// supplies the source and destination identifiers of every other command
// in the same text; it produces an event of its own only when it is the
// sole command. Text without commands yields no events.
func (p *Parser) Parse(text string, link core.LinkEndpoints, at *float64) []core.ProtocolEvent {
	var (
		src, dst *string
		bound    bool
		binder   core.ProtocolEvent
		events   []core.ProtocolEvent
	)

	for tok := range Tokens(text) {
		ev := core.ProtocolEvent{
			Time:    at,
			Command: tok.Name,
			Flags:   flags(tok.Args),
			Vectors: ParseBody(tok.RawBody),
			Link:    link,
		}

		if tok.Name == p.binding.Command {
			if !bound {
				bound = true
				src, dst = p.binding.Resolve(ev.Vectors)
				binder = ev
			}
			continue
		}
		events = append(events, ev)
	}

	if len(events) == 0 && bound {
		events = append(events, binder)
	}
	for i := range events {
		events[i].SrcID, events[i].DstID = src, dst
	}
	return events
}

func flags(args string) []string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
