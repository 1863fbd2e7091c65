package feed

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// StripMarkup returns the text content of an HTML fragment. Tags and comments
// are dropped; character references are decoded.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// TruncateRunes cuts s to at most n characters.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ComposeWithSuffix appends suffix to text, shortening text so the result
// fits in limit characters. The suffix itself is never shortened.
func ComposeWithSuffix(text, suffix string, limit int) string {
	room := limit - utf8.RuneCountInString(suffix)
	return TruncateRunes(text, room) + suffix
}
