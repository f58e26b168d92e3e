package normalize

import (
	"regexp"
	"strings"
)

// kvPattern tokenizes key=value runs. Values may be double-quoted
// (with \" and \\ escapes), single-quoted (no escapes) or bare.
var kvPattern = regexp.MustCompile(`(\w+)=("(?:\\.|[^"\\])*"|'[^']*'|\S+)`)

// QuoteValue renders a value so the resulting key=value token survives
// a round trip through ParseKVPairs:
//   - contains double quotes but no single quotes: single-quoted
//   - contains single quotes (or neither kind): double-quoted, with
//     backslashes and double quotes escaped
//
// Values are always quoted, even without whitespace, so rendered lines
// are uniform and copy-paste friendly.
func QuoteValue(val string) string {
	if strings.ContainsRune(val, '"') && !strings.ContainsRune(val, '\'') {
		return "'" + val + "'"
	}
	escaped := strings.ReplaceAll(val, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// ParseKVPairs extracts key=value tokens from a command tail. Keys are
// lower-cased; quoted values are unwrapped and unescaped. Later
// duplicates win.
func ParseKVPairs(text string) map[string]string {
	pairs := make(map[string]string)
	for _, m := range kvPattern.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(m[1])
		pairs[key] = unquoteValue(m[2])
	}
	return pairs
}

func unquoteValue(v string) string {
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return v[1 : len(v)-1]
	}
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		inner := v[1 : len(v)-1]
		inner = strings.ReplaceAll(inner, `\"`, `"`)
		inner = strings.ReplaceAll(inner, `\\`, `\`)
		return inner
	}
	return v
}
