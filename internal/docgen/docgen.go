// Package docgen resolves input globs and turns each matched file into a
// search document.
package docgen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/textsearch/internal/extract"
	"github.com/Paintersrp/textsearch/internal/highlight"
	"github.com/Paintersrp/textsearch/internal/logging"
	"github.com/Paintersrp/textsearch/internal/mdx"
	"github.com/Paintersrp/textsearch/internal/pathutil"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/storymeta"
)

// SnippetLength is the number of runes kept in a document's static snippet.
const SnippetLength = 150

// DefaultIgnore lists directory names that are never indexed.
var DefaultIgnore = []string{"node_modules", "dist"}

var storySuffixes = []string{".stories.tsx", ".stories.ts", ".stories.jsx", ".stories.js"}

var (
	lastExtension = regexp.MustCompile(`\.[^/.]+$`)
	whitespace    = regexp.MustCompile(`\s+`)
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]+`)
)

// Generator builds search documents from files under Root.
type Generator struct {
	// Root anchors relative globs and document ids.
	Root string
	// Extractor pulls text out of markup files. Nil extracts plain text only.
	Extractor *extract.Extractor
	// Metadata enriches story files. Nil disables enrichment.
	Metadata storymeta.Extractor
	// Ignore lists directory names excluded from glob results. Nil selects
	// DefaultIgnore.
	Ignore []string
	// Concurrency bounds the files processed at once. Zero selects the
	// number of CPUs.
	Concurrency int
	Logger      *slog.Logger
}

// Generate resolves patterns and returns one document per readable file in
// resolution order. Files that cannot be read are logged and skipped; an
// empty match yields an empty slice.
func (g *Generator) Generate(ctx context.Context, patterns []string) ([]search.SearchDoc, error) {
	files, err := g.ResolveFiles(patterns)
	if err != nil {
		return nil, err
	}

	slots := make([]*search.SearchDoc, len(files))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrency())
	for i, path := range files {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, ok := g.Document(path)
			if ok {
				slots[i] = &doc
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	docs := make([]search.SearchDoc, 0, len(files))
	for _, doc := range slots {
		if doc != nil {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

// ResolveFiles expands patterns to absolute, deduplicated file paths in
// pattern order. Patterns may be absolute or relative to Root and support **.
func (g *Generator) ResolveFiles(patterns []string) ([]string, error) {
	root, err := g.root()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	files := make([]string, 0)
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		pattern = filepath.ToSlash(pattern)
		if !filepath.IsAbs(filepath.FromSlash(pattern)) {
			pattern = filepath.ToSlash(filepath.Join(root, filepath.FromSlash(pattern)))
		}

		base, rest := doublestar.SplitPattern(pattern)
		matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), rest, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("docgen: glob %q: %w", pattern, err)
		}

		for _, match := range matches {
			abs := filepath.Clean(filepath.Join(filepath.FromSlash(base), filepath.FromSlash(match)))
			if g.ignored(root, abs) {
				continue
			}
			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}
			files = append(files, abs)
		}
	}
	return files, nil
}

// Document builds the search document for one file. It reports false when
// the file cannot be read. Parse and enrichment failures are logged and the
// document keeps whatever content was extracted.
func (g *Generator) Document(path string) (search.SearchDoc, bool) {
	logger := logging.OrDiscard(g.Logger)

	root, err := g.root()
	if err != nil {
		logger.Warn("resolve project root", "error", err)
		return search.SearchDoc{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("skipping unreadable file", "path", path, "error", err)
		return search.SearchDoc{}, false
	}

	docType := TypeOf(path)
	doc := search.SearchDoc{
		ID:         ID(root, path),
		Title:      Title(path),
		SourcePath: path,
		Type:       docType,
	}

	parsed, err := mdx.Parse(data)
	if err != nil {
		logger.Warn("partial parse", "path", path, "error", err)
	}
	result := g.Extractor.Extract(parsed)
	parts := result.Text
	doc.MetaTitle = result.MetaTitle

	if docType == search.TypeStory && g.Metadata != nil {
		meta, err := g.Metadata.Extract(path)
		if err != nil {
			logger.Warn("failed to parse component metadata", "path", path, "error", err)
		}
		if meta != nil {
			parts = append(parts, enrichment(meta)...)
			if meta.Title != "" {
				doc.StoryID = StoryID(meta.Title)
			}
		}
	}

	doc.Content = strings.Join(unique(parts), " ")
	doc = doc.Sanitized()
	doc.Snippet = Snippet(doc.Content)
	return doc, true
}

func unique(parts []string) []string {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func enrichment(meta *storymeta.Metadata) []string {
	var parts []string
	if summary := strings.TrimSpace(meta.Summary); summary != "" {
		parts = append(parts, summary)
	}
	for _, prop := range meta.Props {
		entry := strings.TrimSpace(prop.Name + " " + prop.Description)
		if entry != "" {
			parts = append(parts, entry)
		}
	}
	return parts
}

// ID derives a document id from the root-relative slash path with its last
// extension removed.
func ID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return lastExtension.ReplaceAllString(filepath.ToSlash(rel), "")
}

// Title derives a display title from the file's base name.
func Title(path string) string {
	base := filepath.Base(path)
	for _, suffix := range storySuffixes {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TypeOf classifies a file by suffix.
func TypeOf(path string) search.DocType {
	base := filepath.Base(path)
	for _, suffix := range storySuffixes {
		if strings.HasSuffix(base, suffix) {
			return search.TypeStory
		}
	}
	if strings.EqualFold(filepath.Ext(base), ".mdx") {
		return search.TypeMDX
	}
	return search.TypeOther
}

// Snippet collapses whitespace and keeps the first SnippetLength runes,
// appending "..." when content was cut. Whitespace left at the cut is
// dropped before the "...", so a truncated snippet may hold fewer than
// SnippetLength runes of content.
func Snippet(content string) string {
	return highlight.Truncate(strings.TrimSpace(whitespace.ReplaceAllString(content, " ")), SnippetLength)
}

// StoryID derives the docs entry id for a story title, so "Example/Button"
// becomes "example-button--docs".
func StoryID(title string) string {
	slug := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return ""
	}
	return slug + "--docs"
}

func (g *Generator) root() (string, error) {
	root := g.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("docgen: resolve root %q: %w", root, err)
	}
	return abs, nil
}

func (g *Generator) concurrency() int {
	if g.Concurrency > 0 {
		return g.Concurrency
	}
	return runtime.NumCPU()
}

// ignored reports whether any directory between root and path is excluded.
// Paths outside root are checked from their own volume root.
func (g *Generator) ignored(root, path string) bool {
	ignore := g.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}
	rel := filepath.ToSlash(path)
	if pathutil.Inside(root, path) {
		if r, err := pathutil.ProjectRelative(root, path); err == nil {
			rel = r
		}
	}
	return pathutil.HasSegment(rel, ignore, true)
}
