package logger

import (
	"log/slog"
	"strconv"
	"unicode/utf8"
)

// DefaultMaxAttrLen is the default cap on string attribute length.
const DefaultMaxAttrLen = 256

// truncateAttr shortens string attributes longer than maxLen bytes,
// cutting on a rune boundary and noting how much was dropped.
// Group attrs never reach this: slog calls ReplaceAttr on their members.
func truncateAttr(a slog.Attr, maxLen int) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if len(s) <= maxLen {
		return a
	}
	return slog.String(a.Key, truncate(s, maxLen))
}

func truncate(s string, maxLen int) string {
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(" + strconv.Itoa(len(s)-cut) + " more bytes)"
}
