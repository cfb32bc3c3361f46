// Package rule describes how text is pulled out of embedded components and
// canonicalizes the accepted rule shapes into one record form.
package rule

import (
	"fmt"
	"slices"

	"github.com/Paintersrp/textsearch/internal/mdx"
)

// Kind identifies which shape of a Rule is active.
type Kind int

const (
	KindList Kind = iota
	KindRecord
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	case KindFunc:
		return "func"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ChildrenKeyword is the reserved shorthand entry that requests all
// descendant text of a component.
const ChildrenKeyword = "children"

// ExtractorFunc is a custom extraction rule. Its return value is used verbatim
// as the extracted text of the component.
type ExtractorFunc func(node *mdx.Node) []string

// Record is the structured rule shape and the canonical normalized form.
type Record struct {
	Props               []string `yaml:"props"               json:"props"               toml:"props"`
	Children            bool     `yaml:"children"            json:"children"            toml:"children"`
	NestedTextSelectors []string `yaml:"nestedTextSelectors" json:"nestedTextSelectors" toml:"nestedTextSelectors"`
}

// Rule is a tagged variant over the three accepted rule shapes. Exactly one
// of List, Record or Func is meaningful, selected by Kind.
type Rule struct {
	Kind   Kind
	List   []string
	Record Record
	Func   ExtractorFunc
}

// List builds a shorthand rule from child selector names.
func List(names ...string) Rule {
	return Rule{Kind: KindList, List: names}
}

// Fields builds a structured rule.
func Fields(rec Record) Rule {
	return Rule{Kind: KindRecord, Record: rec}
}

// Func builds a custom extraction rule.
func Func(fn ExtractorFunc) Rule {
	return Rule{Kind: KindFunc, Func: fn}
}

// Normalize returns the canonical form of r. List and record rules become a
// record with every slice non-nil; function rules are returned unchanged.
// Normalize is idempotent.
//
// Shorthand lists force Children and read every entry as a nested text
// selector. The reserved entry "children" only requests all descendant text.
// Other entries double as attribute names so that a list such as [title]
// also captures <Banner title="..."/>.
func Normalize(r Rule) Rule {
	switch r.Kind {
	case KindList:
		props := make([]string, 0, len(r.List))
		selectors := make([]string, 0, len(r.List))
		for _, name := range r.List {
			if name == ChildrenKeyword || name == "" {
				continue
			}
			if !slices.Contains(selectors, name) {
				props = append(props, name)
				selectors = append(selectors, name)
			}
		}
		return Fields(Record{Props: props, Children: true, NestedTextSelectors: selectors})
	case KindRecord:
		return Fields(Record{
			Props:               nonNil(r.Record.Props),
			Children:            r.Record.Children,
			NestedTextSelectors: nonNil(r.Record.NestedTextSelectors),
		})
	case KindFunc:
		return r
	default:
		panic(fmt.Sprintf("rule: unknown rule kind %v", r.Kind))
	}
}

// NormalizeMap normalizes every rule in m into a new map.
func NormalizeMap(m map[string]Rule) map[string]Rule {
	out := make(map[string]Rule, len(m))
	for name, r := range m {
		out[name] = Normalize(r)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}
