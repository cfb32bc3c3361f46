package mdx

import (
	"strings"

	"golang.org/x/net/html"
)

type tokenKind int

const (
	tokText tokenKind = iota
	tokOpen
	tokClose
	tokExpression
)

type jsxToken struct {
	kind        tokenKind
	name        string
	attrs       []Attribute
	selfClosing bool
	text        string
}

// lexJSX splits a raw markup fragment into text, tag and expression tokens.
// Tag names and attribute names keep their original case. Anything that does
// not form a complete tag is returned as text.
func lexJSX(raw string) []jsxToken {
	var tokens []jsxToken
	textStart := 0

	flush := func(end int) {
		if end > textStart {
			tokens = append(tokens, jsxToken{kind: tokText, text: raw[textStart:end]})
		}
	}

	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '<':
			if strings.HasPrefix(raw[i:], "<!--") {
				flush(i)
				end := strings.Index(raw[i+4:], "-->")
				if end < 0 {
					i = len(raw)
				} else {
					i += 4 + end + 3
				}
				textStart = i
				continue
			}
			if tok, n, ok := lexTag(raw[i:]); ok {
				flush(i)
				tokens = append(tokens, tok)
				i += n
				textStart = i
				continue
			}
		case '{':
			if end, ok := skipBalanced(raw, i); ok {
				flush(i)
				tokens = append(tokens, jsxToken{kind: tokExpression, text: raw[i:end]})
				i = end
				textStart = i
				continue
			}
		}
		i++
	}
	flush(len(raw))

	return tokens
}

// lexTag parses a single opening or closing tag at the start of s and
// reports the number of bytes consumed.
func lexTag(s string) (jsxToken, int, bool) {
	if len(s) < 2 || s[0] != '<' {
		return jsxToken{}, 0, false
	}

	tok := jsxToken{kind: tokOpen}
	j := 1
	if s[j] == '/' {
		tok.kind = tokClose
		j++
	}
	j = skipSpace(s, j)

	start := j
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	tok.name = s[start:j]
	if tok.name != "" && !isNameStart(tok.name[0]) {
		return jsxToken{}, 0, false
	}

	if tok.kind == tokClose {
		j = skipSpace(s, j)
		if j < len(s) && s[j] == '>' {
			return tok, j + 1, true
		}
		return jsxToken{}, 0, false
	}

	for {
		j = skipSpace(s, j)
		if j >= len(s) {
			return jsxToken{}, 0, false
		}

		switch {
		case s[j] == '>':
			return tok, j + 1, true
		case s[j] == '/' && j+1 < len(s) && s[j+1] == '>':
			tok.selfClosing = true
			return tok, j + 2, true
		case s[j] == '{':
			// Spread attributes carry no static text.
			end, ok := skipBalanced(s, j)
			if !ok {
				return jsxToken{}, 0, false
			}
			j = end
			continue
		}

		nameStart := j
		for j < len(s) && isAttrNameByte(s[j]) {
			j++
		}
		if j == nameStart {
			return jsxToken{}, 0, false
		}
		attr := Attribute{Name: s[nameStart:j]}

		k := skipSpace(s, j)
		if k < len(s) && s[k] == '=' {
			k = skipSpace(s, k+1)
			if k >= len(s) {
				return jsxToken{}, 0, false
			}
			switch s[k] {
			case '"', '\'':
				end := strings.IndexByte(s[k+1:], s[k])
				if end < 0 {
					return jsxToken{}, 0, false
				}
				attr.Value = html.UnescapeString(s[k+1 : k+1+end])
				attr.Literal = true
				j = k + 1 + end + 1
			case '{':
				end, ok := skipBalanced(s, k)
				if !ok {
					return jsxToken{}, 0, false
				}
				attr.Value = s[k+1 : end-1]
				j = end
			default:
				valueStart := k
				for k < len(s) && !isSpace(s[k]) && s[k] != '>' && !(s[k] == '/' && k+1 < len(s) && s[k+1] == '>') {
					k++
				}
				attr.Value = s[valueStart:k]
				j = k
			}
		}
		tok.attrs = append(tok.attrs, attr)
	}
}

// skipBalanced returns the index just past the brace that closes the one at
// s[start], ignoring braces inside string and template literals.
func skipBalanced(s string, start int) (int, bool) {
	depth := 0
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isNameStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == ':'
}

func isAttrNameByte(c byte) bool {
	return !isSpace(c) && c != '=' && c != '>' && c != '/' && c != '{' && c != '}' && c != '"' && c != '\''
}
