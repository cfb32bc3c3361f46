// Package extract pulls plain text, rule-matched component text and a title
// hint out of parsed markup documents.
package extract

import (
	"strings"

	"github.com/Paintersrp/textsearch/internal/mdx"
	"github.com/Paintersrp/textsearch/internal/rule"
)

// DefaultMetaComponent and DefaultMetaAttribute name the component whose
// attribute supplies a document's title hint.
const (
	DefaultMetaComponent = "Meta"
	DefaultMetaAttribute = "title"
)

// MetaConfig selects the title component and attribute.
type MetaConfig struct {
	Component string `yaml:"component" json:"component" toml:"component"`
	Attribute string `yaml:"attribute" json:"attribute" toml:"attribute"`
}

// Result is the extracted text of one document. Text holds each fragment
// once, in order of first occurrence.
type Result struct {
	Text      []string
	MetaTitle string
}

// Extractor applies component rules to parsed documents. The zero value
// extracts plain text only and reads titles from <Meta title="...">.
type Extractor struct {
	rules map[string]rule.Rule
	meta  MetaConfig
}

// New returns an extractor for the provided component rules. Rules are
// normalized once here.
func New(rules map[string]rule.Rule, meta MetaConfig) *Extractor {
	if meta.Component == "" {
		meta.Component = DefaultMetaComponent
	}
	if meta.Attribute == "" {
		meta.Attribute = DefaultMetaAttribute
	}
	return &Extractor{rules: rule.NormalizeMap(rules), meta: meta}
}

// Extract walks doc depth-first. It never fails; attributes that are not
// literal strings are skipped. When no title component is present, a
// front matter title is used instead.
func (e *Extractor) Extract(doc *mdx.Document) Result {
	if e == nil {
		e = New(nil, MetaConfig{})
	}

	if doc == nil || doc.Root == nil {
		return Result{Text: []string{}}
	}

	acc := newAccumulator()
	var result Result
	metaFound := false

	doc.Root.Walk(func(n *mdx.Node) bool {
		switch n.Type {
		case mdx.TextNode:
			acc.add(n.Value)
		case mdx.ElementNode:
			if n.Name == e.meta.Component && !metaFound {
				if title, ok := n.StringAttr(e.meta.Attribute); ok {
					result.MetaTitle = title
					metaFound = true
				}
			}
			if r, ok := e.rules[n.Name]; ok {
				acc.add(apply(r, n)...)
			}
		}
		return true
	})

	if !metaFound {
		if title, ok := doc.FrontMatterString("title"); ok {
			result.MetaTitle = strings.TrimSpace(title)
		}
	}

	result.Text = acc.values()
	return result
}

func apply(r rule.Rule, n *mdx.Node) []string {
	if r.Kind == rule.KindFunc {
		if r.Func == nil {
			return nil
		}
		return r.Func(n)
	}

	rec := r.Record
	var out []string
	for _, prop := range rec.Props {
		if value, ok := n.StringAttr(prop); ok {
			out = append(out, value)
		}
	}
	if !rec.Children {
		return out
	}

	for _, child := range n.Children {
		child.Walk(func(d *mdx.Node) bool {
			if d.Type != mdx.TextNode {
				return true
			}
			if len(rec.NestedTextSelectors) == 0 || contains(rec.NestedTextSelectors, d.ParentName()) {
				out = append(out, d.Value)
			}
			return true
		})
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

type accumulator struct {
	seen  map[string]struct{}
	order []string
}

func newAccumulator() *accumulator {
	return &accumulator{seen: make(map[string]struct{})}
}

func (a *accumulator) add(values ...string) {
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := a.seen[value]; ok {
			continue
		}
		a.seen[value] = struct{}{}
		a.order = append(a.order, value)
	}
}

func (a *accumulator) values() []string {
	if a.order == nil {
		return []string{}
	}
	return a.order
}
