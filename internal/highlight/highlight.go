// Package highlight computes query-centered excerpts of document content.
package highlight

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// DefaultRadius is the context kept on each side of a match by callers that
// render result lists.
const DefaultRadius = 200

// Excerpt is a window of content split around the first match. Match is
// empty when the query was not found.
type Excerpt struct {
	Before string
	Match  string
	After  string
}

// Found reports whether the excerpt contains a match.
func (e Excerpt) Found() bool {
	return e.Match != ""
}

// String returns the plain text of the excerpt.
func (e Excerpt) String() string {
	return e.Before + e.Match + e.After
}

// HTML renders the excerpt with the match wrapped in <mark> and all text
// escaped.
func (e Excerpt) HTML() string {
	if !e.Found() {
		return html.EscapeString(e.Before + e.After)
	}
	return html.EscapeString(e.Before) + "<mark>" + html.EscapeString(e.Match) + "</mark>" + html.EscapeString(e.After)
}

// Find locates the first case-insensitive occurrence of query in content and
// keeps up to radius runes of context on each side, clamped to the content.
// Without a match it returns the first radius runes. It never fails.
func Find(content, query string, radius int) Excerpt {
	if radius < 0 {
		radius = 0
	}
	text := []rune(content)
	needle := []rune(query)

	at := indexFold(text, needle)
	if len(needle) == 0 || at < 0 {
		end := min(radius, len(text))
		return Excerpt{Before: string(text[:end])}
	}

	start := max(0, at-radius)
	matchEnd := at + len(needle)
	end := min(len(text), matchEnd+radius)
	return Excerpt{
		Before: string(text[start:at]),
		Match:  string(text[at:matchEnd]),
		After:  string(text[matchEnd:end]),
	}
}

// Snippet is Find rendered as HTML.
func Snippet(content, query string, radius int) string {
	return Find(content, query, radius).HTML()
}

// Truncate shortens s to at most n runes, appending "..." when cut.
// Whitespace at the cut is dropped before the "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + "..."
}

// indexFold returns the rune offset of the first case-insensitive match of
// needle in text, or -1.
func indexFold(text, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(text) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(text); i++ {
		for j, r := range needle {
			if !equalFold(text[i+j], r) {
				continue outer
			}
		}
		return i
	}
	return -1
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	return unicode.ToLower(a) == unicode.ToLower(b) || unicode.ToUpper(a) == unicode.ToUpper(b)
}
