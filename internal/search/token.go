package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ActiveToken returns the trailing whitespace-delimited word of query, the
// part suggestions are computed against. Returns "" for blank input.
func ActiveToken(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// ReplaceActiveToken swaps the active token of query for value followed by
// a single separator. Earlier tokens and their spacing are kept as typed.
func ReplaceActiveToken(query, value string) string {
	trimmed := strings.TrimRightFunc(query, unicode.IsSpace)
	idx := strings.LastIndexFunc(trimmed, unicode.IsSpace)
	if idx < 0 {
		return value + " "
	}
	_, size := utf8.DecodeRuneInString(trimmed[idx:])
	return trimmed[:idx+size] + value + " "
}
