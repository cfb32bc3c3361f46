package web

import (
	"github.com/Paintersrp/textsearch/internal/highlight"
	"github.com/Paintersrp/textsearch/internal/overlay"
	"github.com/Paintersrp/textsearch/internal/search"
)

// ExcerptRadius is the context kept on each side of the first match.
const ExcerptRadius = 100

// Result is the wire form of one search hit.
type Result struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Type       search.DocType `json:"type"`
	SourcePath string         `json:"sourcePath"`
	URL        string         `json:"url,omitempty"`
	Excerpt    string         `json:"excerpt"`
	Highlight  string         `json:"highlight"`
}

// NewResults converts hits for query, resolving navigation targets against
// baseURL.
func NewResults(baseURL, query string, docs []search.SearchDoc) ([]Result, error) {
	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		var url string
		if target, ok := overlay.Target(doc); ok {
			resolved, err := overlay.ResolveURL(baseURL, target)
			if err != nil {
				return nil, err
			}
			url = resolved
		}

		ex := highlight.Find(doc.Content, query, ExcerptRadius)
		results = append(results, Result{
			ID:         doc.ID,
			Title:      doc.DisplayTitle(),
			Type:       doc.Type,
			SourcePath: doc.SourcePath,
			URL:        url,
			Excerpt:    ex.String(),
			Highlight:  ex.HTML(),
		})
	}
	return results, nil
}
