package fzf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/muesli/termenv"

	"github.com/Paintersrp/textsearch/internal/search"
)

// ErrNoSelection is returned when the finder is aborted.
var ErrNoSelection = errors.New("no document selected")

// FindFunc matches the fuzzyfinder.Find signature so tests can stub the
// terminal interaction.
type FindFunc func(slice interface{}, itemFunc func(i int) string, opts ...fuzzyfinder.Option) (int, error)

// FuzzyFinder picks one document from a collection.
type FuzzyFinder struct {
	Header string
	docs   []search.SearchDoc
	find   FindFunc
}

func NewFuzzyFinder(docs []search.SearchDoc, header string) *FuzzyFinder {
	return &FuzzyFinder{Header: header, docs: docs, find: fuzzyfinder.Find}
}

// Run opens the finder, optionally prefilled with query, and returns the
// selected document.
func (f *FuzzyFinder) Run(query string) (search.SearchDoc, error) {
	if len(f.docs) == 0 {
		return search.SearchDoc{}, fmt.Errorf("no documents to search")
	}

	options := []fuzzyfinder.Option{
		fuzzyfinder.WithPreviewWindow(f.renderMarkdownPreview),
	}
	if query != "" {
		options = append(options, fuzzyfinder.WithQuery(query))
	}
	if f.Header != "" {
		options = append(options, fuzzyfinder.WithHeader(f.Header))
	}

	idx, err := f.find(f.docs, f.Label, options...)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return search.SearchDoc{}, ErrNoSelection
		}
		return search.SearchDoc{}, fmt.Errorf("error selecting document: %w", err)
	}
	if idx < 0 || idx >= len(f.docs) {
		return search.SearchDoc{}, ErrNoSelection
	}
	return f.docs[idx], nil
}

// Label is the finder line for the document at i.
func (f *FuzzyFinder) Label(i int) string {
	doc := f.docs[i]
	return fmt.Sprintf("%s [%s] %s", doc.DisplayTitle(), doc.Type, doc.ID)
}

// Markdown renders a document as the markdown shown in the preview pane.
func Markdown(doc search.SearchDoc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.DisplayTitle())
	fmt.Fprintf(&b, "`%s` · %s\n\n", doc.SourcePath, doc.Type)
	if doc.StoryID != "" {
		fmt.Fprintf(&b, "Story: `%s`\n\n", doc.StoryID)
	}
	if doc.Content == "" {
		b.WriteString("_No indexed text._\n")
	} else {
		b.WriteString(doc.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func (f *FuzzyFinder) renderMarkdownPreview(i, w, h int) string {
	if i == -1 {
		return ""
	}

	wrap := 100
	if w > 4 && w-4 < wrap {
		wrap = w - 4
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(wrap),
		glamour.WithColorProfile(termenv.ANSI256),
	)
	if err != nil {
		return Markdown(f.docs[i])
	}

	markdown, err := r.Render(Markdown(f.docs[i]))
	if err != nil {
		return "Error rendering markdown"
	}
	return markdown
}
