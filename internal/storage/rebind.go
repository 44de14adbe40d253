package storage

import (
	"strconv"
	"strings"
)

// rebind rewrites '?' placeholders into the $1..$n form expected by
// PostgreSQL. Question marks inside single-quoted literals are left alone.
// Repositories always write '?', so this is the only place dialect
// differences in parameter syntax exist.
func rebind(query string) string {
	if !strings.ContainsRune(query, '?') {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			b.WriteByte(c)
		case c == '?' && !inLiteral:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
