package ng

import (
	"strconv"
	"strings"

	"firestige.xyz/ngtrace/internal/core"
)

const identifierLen = 8

// ParseBody splits a command body into its `< ... >` groups. Each group's
// first token is the type tag, the second the kind; every later token is a
// value, and the 8-hex-digit runs inside the values become Fields. Groups
// are not nested: the first '>' closes the group. An unterminated '<' ends
// the scan.
func ParseBody(body string) []core.TaggedVector {
	var vectors []core.TaggedVector

	pos := 0
	for {
		open := strings.IndexByte(body[pos:], '<')
		if open < 0 {
			break
		}
		start := pos + open + 1
		closing := strings.IndexByte(body[start:], '>')
		if closing < 0 {
			break
		}
		vectors = append(vectors, parseGroup(body[start:start+closing]))
		pos = start + closing + 1
	}
	return vectors
}

func parseGroup(group string) core.TaggedVector {
	v := core.TaggedVector{TypeTag: core.NoTypeTag}

	tokens := strings.Fields(group)
	if len(tokens) > 0 {
		if tag, err := strconv.Atoi(tokens[0]); err == nil {
			v.TypeTag = tag
		}
	}
	if len(tokens) > 1 {
		v.Kind = tokens[1]
	}
	if len(tokens) > 2 {
		v.Values = tokens[2:]
		for _, tok := range v.Values {
			v.Fields = appendIdentifiers(v.Fields, tok)
		}
	}
	return v
}

// appendIdentifiers appends the eight-digit hex identifiers of tok,
// upper-cased. A longer hex run is split into consecutive eight-digit
// chunks from its start; a remainder shorter than eight digits is dropped,
// as are runs shorter than eight.
func appendIdentifiers(dst []string, tok string) []string {
	i := 0
	for i < len(tok) {
		if !isHex(tok[i]) {
			i++
			continue
		}
		j := i
		for j < len(tok) && isHex(tok[j]) {
			j++
		}
		for k := i; k+identifierLen <= j; k += identifierLen {
			dst = append(dst, strings.ToUpper(tok[k:k+identifierLen]))
		}
		i = j
	}
	return dst
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
