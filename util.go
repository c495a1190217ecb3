package dvo

import (
	"log/slog"
	"strings"
)

// Logger receives decode warnings and slot read errors. Nil means
// slog.Default.
var Logger *slog.Logger

func logger() *slog.Logger {
	if Logger != nil {
		return Logger
	}
	return slog.Default()
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func splitByte(s string, sep byte) (string, string, bool) {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return s, "", false
	} else {
		return s[:i], s[i+1:], true
	}
}

// splitPathComponent splits off the leading component of a field path
// expression, stopping at the first '.', '[' or '{'. A '.' separator is
// consumed; subscript openers are kept in the remainder so the nested type
// sees them.
func splitPathComponent(s string) (head, rest string) {
	i := strings.IndexAny(s, ".[{")
	if i < 0 {
		return s, ""
	}
	if s[i] == '.' {
		return s[:i], s[i+1:]
	}
	return s[:i], s[i:]
}
