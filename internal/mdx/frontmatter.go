package mdx

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	yamlFrontMatter = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|\z)`)
	tomlFrontMatter = regexp.MustCompile(`(?s)\A\+\+\+[ \t]*\r?\n(.*?)\r?\n\+\+\+[ \t]*(?:\r?\n|\z)`)
)

// splitFrontMatter separates a leading YAML (---) or TOML (+++) block from the
// document body. The body keeps the same number of lines so positions in the
// remaining markup are unchanged.
func splitFrontMatter(data []byte) (fm []byte, format string, body []byte) {
	for _, candidate := range []struct {
		re     *regexp.Regexp
		format string
	}{
		{yamlFrontMatter, "yaml"},
		{tomlFrontMatter, "toml"},
	} {
		loc := candidate.re.FindSubmatchIndex(data)
		if len(loc) < 4 {
			continue
		}
		consumed := data[:loc[1]]
		padding := bytes.Repeat([]byte("\n"), bytes.Count(consumed, []byte("\n")))
		return data[loc[2]:loc[3]], candidate.format, append(padding, data[loc[1]:]...)
	}
	return nil, "", data
}

func parseFrontMatter(fm []byte, format string) (map[string]any, error) {
	if len(bytes.TrimSpace(fm)) == 0 {
		return nil, nil
	}

	values := make(map[string]any)
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(fm, &values); err != nil {
			return nil, fmt.Errorf("parse yaml front matter: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(fm, &values); err != nil {
			return nil, fmt.Errorf("parse toml front matter: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported front matter format %q", format)
	}
	return values, nil
}

// FrontMatterString returns a string-valued front matter key.
func (d *Document) FrontMatterString(key string) (string, bool) {
	if d == nil || d.FrontMatter == nil {
		return "", false
	}
	value, ok := d.FrontMatter[key].(string)
	return value, ok
}
