package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Paintersrp/textsearch/internal/config"
	"github.com/Paintersrp/textsearch/internal/runtime"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/state"
)

type stubSearcher struct {
	docs []search.SearchDoc
	err  error
}

func (s stubSearcher) Query(string, int) ([]search.SearchDoc, error) {
	return s.docs, s.err
}

func TestSearchDocs(t *testing.T) {
	tools := &Tools{Searcher: stubSearcher{docs: []search.SearchDoc{
		{ID: "src/Button.stories", Title: "Button", Content: "Primary button", StoryID: "example-button--docs", Type: search.TypeStory},
	}}}

	_, out, err := tools.SearchDocs(context.Background(), nil, SearchDocsInput{Query: "button"})
	if err != nil {
		t.Fatalf("SearchDocs returned error: %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].URL != "/?path=/docs/example-button--docs" {
		t.Fatalf("unexpected output %+v", out)
	}

	tools.Searcher = stubSearcher{err: runtime.ErrUnavailable}
	if _, _, err := tools.SearchDocs(context.Background(), nil, SearchDocsInput{Query: "button"}); !errors.Is(err, runtime.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestIndexStatusWithoutState(t *testing.T) {
	if _, _, err := (&Tools{}).IndexStatus(context.Background(), nil, IndexStatusInput{}); !errors.Is(err, runtime.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestServerOverInMemoryTransport(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "intro.mdx"), []byte("Welcome to the quokka handbook."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := config.Default(dir)
	cfg.OutputJSON = false
	st, err := state.NewState(cfg, nil)
	if err != nil {
		t.Fatalf("NewState returned error: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	server := NewServer(&Tools{Searcher: st.Searcher(ctx), State: st})

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	defer serverSession.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	if !names[SearchToolName] || !names[StatusToolName] {
		t.Fatalf("expected both tools, got %v", names)
	}

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      SearchToolName,
		Arguments: map[string]any{"query": "quokka"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error %+v", result.Content)
	}
	structured, ok := result.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("unexpected structured content %#v", result.StructuredContent)
	}
	hits, ok := structured["results"].([]any)
	if !ok || len(hits) != 1 {
		t.Fatalf("expected one result, got %#v", structured["results"])
	}

	status, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: StatusToolName, Arguments: map[string]any{}})
	if err != nil || status.IsError {
		t.Fatalf("index_status failed: %v %+v", err, status)
	}
	if docs, _ := status.StructuredContent.(map[string]any)["documents"].(float64); docs != 1 {
		t.Fatalf("expected one document, got %#v", status.StructuredContent)
	}
}
