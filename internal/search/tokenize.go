package search

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// Token is a single normalized term and its word position within the input.
type Token struct {
	Term     string
	Position int
}

var analyzer = &analysis.DefaultAnalyzer{
	Tokenizer:    unicode.NewUnicodeTokenizer(),
	TokenFilters: []analysis.TokenFilter{lowercase.NewLowerCaseFilter()},
}

// Tokenize splits text on Unicode word boundaries and lowercases each term.
// Indexing and querying share this function so restored indexes match the
// terms they were built with.
func Tokenize(text string) []Token {
	if text == "" {
		return nil
	}
	stream := analyzer.Analyze([]byte(text))
	tokens := make([]Token, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		tokens = append(tokens, Token{Term: string(tok.Term), Position: tok.Position})
	}
	return tokens
}

// prefixes returns every leading substring of term, shortest first.
func prefixes(term string) []string {
	runes := []rune(term)
	out := make([]string, 0, len(runes))
	for i := 1; i <= len(runes); i++ {
		out = append(out, string(runes[:i]))
	}
	return out
}
