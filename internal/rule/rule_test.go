package rule

import (
	"reflect"
	"testing"

	"github.com/Paintersrp/textsearch/internal/mdx"
)

func TestNormalizeIsIdempotent(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{name: "empty list", rule: List()},
		{name: "children shorthand", rule: List("children")},
		{name: "selectors", rule: List("BodyText", "title", "BodyText")},
		{name: "empty record", rule: Fields(Record{})},
		{name: "full record", rule: Fields(Record{Props: []string{"message"}, Children: true, NestedTextSelectors: []string{"BodyText"}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := Normalize(tt.rule)
			twice := Normalize(once)
			if !reflect.DeepEqual(once, twice) {
				t.Fatalf("normalize not idempotent: %+v != %+v", once, twice)
			}
			if once.Kind != KindRecord {
				t.Fatalf("expected record kind, got %v", once.Kind)
			}
		})
	}
}

func TestNormalizeFuncIsIdempotent(t *testing.T) {
	calls := 0
	fn := Func(func(*mdx.Node) []string {
		calls++
		return []string{"custom"}
	})

	once := Normalize(fn)
	twice := Normalize(once)
	if once.Kind != KindFunc || twice.Kind != KindFunc {
		t.Fatalf("expected func kind to survive normalization, got %v and %v", once.Kind, twice.Kind)
	}
	if got := twice.Func(nil); !reflect.DeepEqual(got, []string{"custom"}) {
		t.Fatalf("unexpected func output %v", got)
	}
	if calls != 1 {
		t.Fatalf("expected the original function to be kept, got %d calls", calls)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	got := Normalize(Fields(Record{Props: []string{"note"}}))
	want := Fields(Record{Props: []string{"note"}, Children: false, NestedTextSelectors: []string{}})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestNormalizeListShorthand(t *testing.T) {
	tests := []struct {
		name string
		list []string
		want Record
	}{
		{
			name: "empty captures all text",
			list: nil,
			want: Record{Props: []string{}, Children: true, NestedTextSelectors: []string{}},
		},
		{
			name: "children keyword captures all text",
			list: []string{"children"},
			want: Record{Props: []string{}, Children: true, NestedTextSelectors: []string{}},
		},
		{
			name: "named entries restrict children",
			list: []string{"title"},
			want: Record{Props: []string{"title"}, Children: true, NestedTextSelectors: []string{"title"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(List(tt.list...))
			if !reflect.DeepEqual(got.Record, tt.want) {
				t.Fatalf("expected %+v, got %+v", tt.want, got.Record)
			}
		})
	}
}

func TestFromValue(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    Rule
		wantErr bool
	}{
		{name: "sequence", value: []any{"children"}, want: List("children")},
		{name: "string", value: "title", want: List("title")},
		{
			name:  "mapping",
			value: map[string]any{"props": []any{"message"}, "children": true, "nestedTextSelectors": []any{"BodyText"}},
			want:  Fields(Record{Props: []string{"message"}, Children: true, NestedTextSelectors: []string{"BodyText"}}),
		},
		{name: "bad children", value: map[string]any{"children": "yes"}, wantErr: true},
		{name: "unknown field", value: map[string]any{"selector": "x"}, wantErr: true},
		{name: "non string entry", value: []any{"a", 3}, wantErr: true},
		{name: "unsupported", value: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromValue(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got rule %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromValue returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
