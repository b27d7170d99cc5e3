package utils

import (
	"strings"
	"unicode"
)

// DecodeLossy projects b onto UTF-8, dropping invalid byte sequences
// instead of substituting U+FFFD.
func DecodeLossy(b []byte) string {
	return strings.ToValidUTF8(string(b), "")
}

// isControlPad reports runes of the leading-noise set: space, tab, CR, LF
// and every C0 control except those, plus DEL.
func isControlPad(r rune) bool {
	return r == ' ' || (r >= 0 && r < 0x20) || r == 0x7f
}

// TrimControlLeft strips leading whitespace and control characters.
func TrimControlLeft(s string) string {
	return strings.TrimLeftFunc(s, isControlPad)
}

// Printable removes every non-printable rune. Plain ASCII space is kept.
func Printable(s string) string {
	clean := true
	for _, r := range s {
		if !unicode.IsPrint(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
