// Package storymeta reads component documentation out of story files: the
// component summary, documented props and the story title.
package storymeta

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoComponent is returned when a story file does not declare the
// component it documents.
var ErrNoComponent = errors.New("storymeta: story does not reference a component")

// Prop describes a single documented component property.
type Prop struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Metadata is the documentation recovered for one story file. Any field may
// be empty when the source does not provide it.
type Metadata struct {
	Title     string
	Component string
	Summary   string
	Props     []Prop
}

// Extractor produces component metadata for a story file.
type Extractor interface {
	Extract(path string) (*Metadata, error)
}

// StaticExtractor scans story and component sources textually. It follows
// relative imports to locate the component declaration.
type StaticExtractor struct{}

var (
	titlePattern     = regexp.MustCompile(`\btitle\s*:\s*(['"` + "`" + `])(.+?)['"` + "`" + `]`)
	componentPattern = regexp.MustCompile(`\bcomponent\s*:\s*([A-Za-z_$][\w$]*)`)
	importPattern    = regexp.MustCompile(`(?m)^import\s+(?:type\s+)?(.+?)\s+from\s+['"]([^'"]+)['"]`)
	docCommentAtEnd  = regexp.MustCompile(`(?s)/\*\*((?:[^*]|\*+[^*/])*)\*+/\s*$`)
	memberPattern    = regexp.MustCompile(`^\s*(?:readonly\s+)?['"]?([A-Za-z_$][\w$-]*)['"]?\??\s*:`)
)

var componentExtensions = []string{".tsx", ".ts", ".jsx", ".js"}

// Extract implements Extractor.
func (StaticExtractor) Extract(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storymeta: read %s: %w", path, err)
	}
	source := string(data)

	meta := &Metadata{}
	if m := titlePattern.FindStringSubmatch(source); m != nil {
		meta.Title = strings.TrimSpace(m[2])
	}

	m := componentPattern.FindStringSubmatch(source)
	if m == nil {
		return meta, ErrNoComponent
	}
	meta.Component = m[1]

	componentSource := source
	if !declares(source, meta.Component) {
		if resolved := resolveImport(path, source, meta.Component); resolved != "" {
			if data, err := os.ReadFile(resolved); err == nil {
				componentSource = string(data)
			}
		}
	}

	meta.Summary = declarationComment(componentSource, meta.Component)
	meta.Props = propsOf(componentSource, meta.Component+"Props")
	if len(meta.Props) == 0 && componentSource != source {
		meta.Props = propsOf(source, meta.Component+"Props")
	}
	return meta, nil
}

func declarationPattern(name string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?m)^(?:export\s+)?(?:default\s+)?(?:const|let|var|function|class)\s+` + quoted + `\b`)
}

func declares(source, name string) bool {
	return declarationPattern(name).MatchString(source)
}

// declarationComment returns the JSDoc block directly above the declaration
// of name, reduced to its prose lines.
func declarationComment(source, name string) string {
	loc := declarationPattern(name).FindStringIndex(source)
	if loc == nil {
		return ""
	}
	return docComment(source[:loc[0]])
}

func docComment(before string) string {
	m := docCommentAtEnd.FindStringSubmatch(before)
	if m == nil {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

// propsOf reads the members of `interface <name>` or `type <name> = {...}`.
func propsOf(source, name string) []Prop {
	pattern := regexp.MustCompile(`(?m)^(?:export\s+)?(?:interface\s+` + regexp.QuoteMeta(name) + `\b[^{]*|type\s+` + regexp.QuoteMeta(name) + `\s*=\s*)\{`)
	loc := pattern.FindStringIndex(source)
	if loc == nil {
		return nil
	}
	body, ok := braceBody(source, loc[1]-1)
	if !ok {
		return nil
	}

	var props []Prop
	depth := 0
	offset := 0
	for _, line := range strings.SplitAfter(body, "\n") {
		if depth == 0 {
			if m := memberPattern.FindStringSubmatch(line); m != nil {
				props = append(props, Prop{
					Name:        m[1],
					Description: docComment(body[:offset]),
				})
			}
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		offset += len(line)
	}
	return props
}

// braceBody returns the text between the brace at open and its match.
func braceBody(source string, open int) (string, bool) {
	depth := 0
	for i := open; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return source[open+1 : i], true
			}
		}
	}
	return "", false
}

// resolveImport finds the relative module that imports name and returns the
// first existing source file for it.
func resolveImport(storyPath, source, name string) string {
	identifier := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	for _, m := range importPattern.FindAllStringSubmatch(source, -1) {
		clause, spec := m[1], m[2]
		if !strings.HasPrefix(spec, ".") || !identifier.MatchString(clause) {
			continue
		}
		base := filepath.Join(filepath.Dir(storyPath), filepath.FromSlash(spec))
		candidates := []string{base}
		for _, ext := range componentExtensions {
			candidates = append(candidates, base+ext, filepath.Join(base, "index"+ext))
		}
		for _, candidate := range candidates {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}
