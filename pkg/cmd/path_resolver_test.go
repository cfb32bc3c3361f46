package cmd

import (
	"path/filepath"
	"testing"

	"github.com/Paintersrp/textsearch/internal/artifacts"
	"github.com/Paintersrp/textsearch/internal/config"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/state"
)

func TestResolveArtifactSource(t *testing.T) {
	root := t.TempDir()
	st := &state.State{Config: config.Default(root)}

	tests := map[string]struct {
		input   string
		wantDir string
		remote  bool
	}{
		"default output dir": {input: "", wantDir: filepath.Join(root, artifacts.DefaultDir)},
		"relative dir":       {input: "public/search", wantDir: filepath.Join(root, "public", "search")},
		"absolute dir":       {input: filepath.Join(root, "abs"), wantDir: filepath.Join(root, "abs")},
		"remote":             {input: "https://docs.example.com/search/", remote: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			src, err := ResolveArtifactSource(st, tt.input)
			if err != nil {
				t.Fatalf("ResolveArtifactSource returned error: %v", err)
			}
			if tt.remote {
				if _, ok := src.(*artifacts.HTTPSource); !ok {
					t.Fatalf("expected HTTP source, got %#v", src)
				}
				return
			}
			dir, ok := src.(artifacts.DirSource)
			if !ok || dir.Dir != tt.wantDir {
				t.Fatalf("expected dir %q, got %#v", tt.wantDir, src)
			}
		})
	}

	if _, err := ResolveArtifactSource(nil, ""); err == nil {
		t.Fatalf("expected error without state")
	}
}

func TestResolveTargetURL(t *testing.T) {
	st := &state.State{Config: config.Default(t.TempDir())}
	st.Config.BaseURL = "http://localhost:6006/"

	url, ok, err := ResolveTargetURL(st, search.SearchDoc{MetaTitle: "Components/Button"})
	if err != nil || !ok {
		t.Fatalf("expected target, got ok=%v err=%v", ok, err)
	}
	if url != "http://localhost:6006/?path=/docs/components-button" {
		t.Fatalf("unexpected url %q", url)
	}

	if _, ok, err := ResolveTargetURL(st, search.SearchDoc{ID: "plain"}); ok || err != nil {
		t.Fatalf("expected no target, got ok=%v err=%v", ok, err)
	}
}
