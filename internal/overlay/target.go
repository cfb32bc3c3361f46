package overlay

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"

	"github.com/Paintersrp/textsearch/internal/search"
)

// DocsPathPrefix is the route under which documentation entries live.
const DocsPathPrefix = "/?path=/docs/"

var separators = regexp.MustCompile(`[/\s_]+`)

// Slug lowercases title, drops one leading slash and collapses runs of
// slashes, whitespace and underscores into a single hyphen.
func Slug(title string) string {
	slug := strings.TrimPrefix(strings.ToLower(title), "/")
	return separators.ReplaceAllString(slug, "-")
}

// Target returns the navigation path for doc. A meta title takes precedence
// over a story id; without either there is no target.
func Target(doc search.SearchDoc) (string, bool) {
	if doc.MetaTitle != "" {
		return DocsPathPrefix + Slug(doc.MetaTitle), true
	}
	if doc.StoryID != "" {
		return DocsPathPrefix + doc.StoryID, true
	}
	return "", false
}

// ResolveURL prefixes target with base. An empty base leaves target as a
// relative path.
func ResolveURL(base, target string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return target, nil
	}
	normalized, err := purell.NormalizeURLString(base, purell.FlagsSafe|purell.FlagRemoveDotSegments|purell.FlagRemoveDuplicateSlashes|purell.FlagRemoveFragment)
	if err != nil {
		return "", fmt.Errorf("normalize base url %q: %w", base, err)
	}
	return strings.TrimRight(normalized, "/") + target, nil
}
