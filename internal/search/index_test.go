package search

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func sampleDocs() []SearchDoc {
	return []SearchDoc{
		{ID: "docs/intro", Title: "intro", Content: "Welcome to the design system documentation", Snippet: "Welcome...", SourcePath: "/repo/docs/intro.mdx", Type: TypeMDX},
		{ID: "docs/button", Title: "button", Content: "Buttons trigger actions. Use the primary variant sparingly", MetaTitle: "Components/Button", SourcePath: "/repo/docs/button.mdx", Type: TypeMDX},
		{ID: "src/Tooltip.stories", Title: "Tooltip", Content: "Tooltip shows a hint on hover", SourcePath: "/repo/src/Tooltip.stories.tsx", Type: TypeStory, StoryID: "atoms-tooltip--docs"},
		{ID: "docs/colors", Title: "colors", Content: "Palette tokens for brand colors and zebrafish accents", SourcePath: "/repo/docs/colors.mdx", Type: TypeMDX},
	}
}

func buildIndex(t *testing.T, docs []SearchDoc) *Index {
	t.Helper()
	idx := NewIndex(DefaultConfig())
	if err := idx.Build(docs); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return idx
}

func hitIDs(results []Result) []string {
	var ids []string
	for _, res := range results {
		for _, hit := range res.Hits {
			if !slices.Contains(ids, hit.ID) {
				ids = append(ids, hit.ID)
			}
		}
	}
	return ids
}

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	tokens := Tokenize("Hello, World! Design-System")
	var terms []string
	for _, tok := range tokens {
		terms = append(terms, tok.Term)
	}
	want := []string{"hello", "world", "design", "system"}
	if !slices.Equal(terms, want) {
		t.Fatalf("expected %v, got %v", want, terms)
	}
}

func TestSearchMatchesPrefixes(t *testing.T) {
	idx := buildIndex(t, sampleDocs())

	tests := []struct {
		term string
		want []string
	}{
		{term: "butt", want: []string{"docs/button"}},
		{term: "PRIMARY var", want: []string{"docs/button"}},
		{term: "tool", want: []string{"src/Tooltip.stories"}},
		{term: "nothing-here", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := hitIDs(idx.Search(Query{Term: tt.term}))
			if !slices.Equal(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSearchReturnsOneListPerField(t *testing.T) {
	idx := buildIndex(t, sampleDocs())
	results := idx.Search(Query{Term: "tooltip"})
	if len(results) != 2 || results[0].Field != FieldTitle || results[1].Field != FieldContent {
		t.Fatalf("expected title then content results, got %+v", results)
	}
	if len(results[0].Hits) != 1 || results[0].Hits[0].StoryID != "atoms-tooltip--docs" {
		t.Fatalf("expected stored fields on hits, got %+v", results[0].Hits)
	}
}

func TestSearchSuggestKeepsPartialMatches(t *testing.T) {
	idx := buildIndex(t, sampleDocs())

	strict := hitIDs(idx.Search(Query{Term: "palette hover"}))
	if len(strict) != 0 {
		t.Fatalf("expected no document to match both terms, got %v", strict)
	}

	suggested := hitIDs(idx.Search(Query{Term: "palette hover", Suggest: true}))
	if !slices.Contains(suggested, "docs/colors") || !slices.Contains(suggested, "src/Tooltip.stories") {
		t.Fatalf("expected partial matches with suggest, got %v", suggested)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	var docs []SearchDoc
	for i := 0; i < 25; i++ {
		docs = append(docs, SearchDoc{ID: fmt.Sprintf("doc-%02d", i), Title: "page", Content: "shared keyword"})
	}
	idx := buildIndex(t, docs)

	results := idx.Search(Query{Term: "keyword"})
	if len(results[1].Hits) != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, len(results[1].Hits))
	}
	results = idx.Search(Query{Term: "keyword", Limit: 3})
	if len(results[1].Hits) != 3 || results[1].Hits[0].ID != "doc-00" {
		t.Fatalf("expected three hits in insertion order, got %+v", results[1].Hits)
	}
}

func TestAddRejectsDuplicateIDs(t *testing.T) {
	idx := NewIndex(Config{})
	doc := SearchDoc{ID: "a", Content: "x"}
	if err := idx.Add(doc); err != nil {
		t.Fatalf("first Add returned error: %v", err)
	}
	if err := idx.Add(doc); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if err := idx.Add(SearchDoc{ID: " "}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	docs := sampleDocs()
	idx := buildIndex(t, docs)

	var order []string
	shards := make(map[string]string)
	if err := idx.Export(func(key, value string) error {
		order = append(order, key)
		shards[key] = value
		return nil
	}); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if want := []string{"cfg", "reg", "store", "title.map", "content.map"}; !slices.Equal(order, want) {
		t.Fatalf("expected shard order %v, got %v", want, order)
	}

	restored, err := Import(shards)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if restored.Len() != len(docs) {
		t.Fatalf("expected %d documents, got %d", len(docs), restored.Len())
	}

	// "zebrafish" only appears in the colors document.
	got := hitIDs(restored.Search(Query{Term: "zebrafish", Suggest: true}))
	if !slices.Equal(got, []string{"docs/colors"}) {
		t.Fatalf("expected only docs/colors, got %v", got)
	}

	for _, term := range []string{"butt", "welcome", "hint hover"} {
		before := idx.Search(Query{Term: term, Suggest: true})
		after := restored.Search(Query{Term: term, Suggest: true})
		if !slices.Equal(hitIDs(before), hitIDs(after)) {
			t.Fatalf("restored index diverged for %q: %v vs %v", term, hitIDs(before), hitIDs(after))
		}
	}

	want, err := Fingerprint(docs)
	if err != nil {
		t.Fatalf("Fingerprint returned error: %v", err)
	}
	if idx.Fingerprint() != want || restored.Fingerprint() != want {
		t.Fatalf("fingerprints differ: built %s restored %s want %s", idx.Fingerprint(), restored.Fingerprint(), want)
	}
}

func TestImportRejectsIncompleteShards(t *testing.T) {
	shards, err := buildIndex(t, sampleDocs()).ExportMap()
	if err != nil {
		t.Fatalf("ExportMap returned error: %v", err)
	}

	for _, key := range ShardKeys(DefaultConfig()) {
		t.Run("missing "+key, func(t *testing.T) {
			partial := make(map[string]string, len(shards))
			for k, v := range shards {
				if k != key {
					partial[k] = v
				}
			}
			idx, err := Import(partial)
			if !errors.Is(err, ErrIncompleteImport) {
				t.Fatalf("expected ErrIncompleteImport, got %v", err)
			}
			if idx != nil {
				t.Fatalf("expected no index on failure")
			}
		})
	}

	t.Run("unknown key", func(t *testing.T) {
		extra := make(map[string]string, len(shards)+1)
		for k, v := range shards {
			extra[k] = v
		}
		extra["tags.map"] = "{}"
		if _, err := Import(extra); !errors.Is(err, ErrUnknownShard) {
			t.Fatalf("expected ErrUnknownShard, got %v", err)
		}
	})

	t.Run("corrupt payload", func(t *testing.T) {
		broken := make(map[string]string, len(shards))
		for k, v := range shards {
			broken[k] = v
		}
		broken["reg"] = `["only-one"]`
		if _, err := Import(broken); !errors.Is(err, ErrCorruptShard) {
			t.Fatalf("expected ErrCorruptShard, got %v", err)
		}
	})
}

func TestExportStopsOnCallbackError(t *testing.T) {
	idx := buildIndex(t, sampleDocs())
	boom := errors.New("disk full")
	calls := 0
	err := idx.Export(func(key, value string) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected export to stop after first error, got %v after %d calls", err, calls)
	}
}

func TestEmptyIndexExports(t *testing.T) {
	shards, err := NewIndex(Config{}).ExportMap()
	if err != nil {
		t.Fatalf("ExportMap returned error: %v", err)
	}
	restored, err := Import(shards)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if restored.Len() != 0 || restored.Search(Query{Term: "anything"}) != nil {
		t.Fatalf("expected empty restored index")
	}
}
