// Package ng decodes the `ng -<command> ... [ <vector>* ]` message grammar.
package ng

import (
	"iter"
	"strings"

	"firestige.xyz/ngtrace/internal/core"
)

const commandMarker = "ng"

// Tokens lazily yields every command token of text, left to right.
//
// A command is `ng`, one or more whitespace characters, `-` and a name of
// letters, digits, '_' or '-'. Its body runs from the first '[' after the
// name to the first ']' after that; brackets inside the body are not
// nested. A command whose '[' is not reached before the next command, or
// that never sees a closing ']', is yielded with an empty body and
// Closed=false.
func Tokens(text string) iter.Seq[core.CommandToken] {
	return func(yield func(core.CommandToken) bool) {
		pos := 0
		for {
			at, nameStart, nameEnd, ok := findCommand(text, pos)
			if !ok {
				return
			}

			tok := core.CommandToken{Name: text[nameStart:nameEnd], Offset: at}
			rest := text[nameEnd:]

			open := strings.IndexByte(rest, '[')
			next, _, _, hasNext := findCommand(text, nameEnd)
			if open < 0 || (hasNext && next < nameEnd+open) {
				end := len(text)
				if hasNext {
					end = next
				}
				tok.Args = strings.TrimSpace(text[nameEnd:end])
				if !yield(tok) {
					return
				}
				if !hasNext {
					return
				}
				pos = next
				continue
			}

			tok.Args = strings.TrimSpace(rest[:open])
			bodyStart := nameEnd + open + 1
			closing := strings.IndexByte(text[bodyStart:], ']')
			if closing < 0 {
				if !yield(tok) {
					return
				}
				pos = bodyStart
				continue
			}

			tok.RawBody = text[bodyStart : bodyStart+closing]
			tok.Closed = true
			if !yield(tok) {
				return
			}
			pos = bodyStart + closing + 1
		}
	}
}

// Tokenize collects Tokens(text).
func Tokenize(text string) []core.CommandToken {
	var tokens []core.CommandToken
	for tok := range Tokens(text) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// FindCommand returns the offset of the first command marker at or after
// from, or -1.
func FindCommand(text string, from int) int {
	at, _, _, ok := findCommand(text, from)
	if !ok {
		return -1
	}
	return at
}

// findCommand locates the next `ng\s+-name` at or after from and returns the
// marker offset plus the bounds of the name.
func findCommand(text string, from int) (at, nameStart, nameEnd int, ok bool) {
	for from < len(text) {
		i := strings.Index(text[from:], commandMarker)
		if i < 0 {
			return 0, 0, 0, false
		}
		at = from + i
		if nameStart, nameEnd, ok = matchCommand(text, at); ok {
			return at, nameStart, nameEnd, true
		}
		from = at + 1
	}
	return 0, 0, 0, false
}

func matchCommand(text string, at int) (nameStart, nameEnd int, ok bool) {
	j := at + len(commandMarker)
	ws := j
	for j < len(text) && isSpace(text[j]) {
		j++
	}
	if j == ws || j >= len(text) || text[j] != '-' {
		return 0, 0, false
	}

	nameStart = j + 1
	nameEnd = nameStart
	for nameEnd < len(text) && isNameChar(text[nameEnd]) {
		nameEnd++
	}
	if nameEnd == nameStart {
		return 0, 0, false
	}
	return nameStart, nameEnd, true
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '-'
}
