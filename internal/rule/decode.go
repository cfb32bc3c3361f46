package rule

import (
	"fmt"
	"strings"
)

// FromValue converts a decoded configuration value into a Rule. Sequences
// become list rules and mappings become record rules. A bare string is
// accepted as a one-entry list.
func FromValue(value any) (Rule, error) {
	switch v := value.(type) {
	case nil:
		return List(), nil
	case string:
		return List(v), nil
	case []string:
		return List(v...), nil
	case []any:
		names, err := stringList(v)
		if err != nil {
			return Rule{}, err
		}
		return List(names...), nil
	case map[string]any:
		return recordFromMap(v)
	case map[any]any:
		converted := make(map[string]any, len(v))
		for key, val := range v {
			converted[fmt.Sprint(key)] = val
		}
		return recordFromMap(converted)
	case Rule:
		return v, nil
	default:
		return Rule{}, fmt.Errorf("unsupported rule shape %T", value)
	}
}

func recordFromMap(m map[string]any) (Rule, error) {
	var rec Record
	for key, val := range m {
		switch strings.ToLower(key) {
		case "props":
			props, err := listValue(val)
			if err != nil {
				return Rule{}, fmt.Errorf("props: %w", err)
			}
			rec.Props = props
		case "children":
			children, ok := val.(bool)
			if !ok {
				return Rule{}, fmt.Errorf("children: expected boolean, got %T", val)
			}
			rec.Children = children
		case "nestedtextselectors", "nested_text_selectors":
			selectors, err := listValue(val)
			if err != nil {
				return Rule{}, fmt.Errorf("nestedTextSelectors: %w", err)
			}
			rec.NestedTextSelectors = selectors
		default:
			return Rule{}, fmt.Errorf("unknown rule field %q", key)
		}
	}
	return Fields(rec), nil
}

func listValue(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		return stringList(v)
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", value)
	}
}

func stringList(values []any) ([]string, error) {
	out := make([]string, 0, len(values))
	for i, item := range values {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected string, got %T", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}
