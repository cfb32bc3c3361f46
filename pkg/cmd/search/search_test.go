package search

import (
	"context"
	"errors"
	"testing"

	"github.com/Paintersrp/textsearch/internal/config"
	"github.com/Paintersrp/textsearch/internal/runtime"
	"github.com/Paintersrp/textsearch/internal/state"
)

func TestSearcherForMissingArtifactsIsUnavailable(t *testing.T) {
	st, err := state.NewState(config.Default(t.TempDir()), nil)
	if err != nil {
		t.Fatalf("NewState returned error: %v", err)
	}
	defer st.Close()

	cmd := NewCmdSearch(st)
	cmd.SetContext(context.Background())
	if err := cmd.ParseFlags([]string{"--from", "nowhere"}); err != nil {
		t.Fatalf("ParseFlags returned error: %v", err)
	}

	searcher, err := searcherFor(cmd, st, options{from: "nowhere"})
	if err != nil {
		t.Fatalf("searcherFor returned error: %v", err)
	}
	if _, err := searcher.Query("button", 0); !errors.Is(err, runtime.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearcherForDefaultsToLiveIndex(t *testing.T) {
	st, err := state.NewState(config.Default(t.TempDir()), nil)
	if err != nil {
		t.Fatalf("NewState returned error: %v", err)
	}
	defer st.Close()

	cmd := NewCmdSearch(st)
	cmd.SetContext(context.Background())
	searcher, err := searcherFor(cmd, st, options{})
	if err != nil {
		t.Fatalf("searcherFor returned error: %v", err)
	}
	if _, ok := searcher.(*state.LiveSearcher); !ok {
		t.Fatalf("expected live searcher, got %T", searcher)
	}
	results, err := searcher.Query("button", 0)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty results from empty project, got %v (%v)", results, err)
	}
}

func TestRunRejectsUnknownNavigator(t *testing.T) {
	st, err := state.NewState(config.Default(t.TempDir()), nil)
	if err != nil {
		t.Fatalf("NewState returned error: %v", err)
	}
	defer st.Close()

	cmd := NewCmdSearch(st)
	cmd.SetArgs([]string{"--open", "fax"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for unknown navigator")
	}
}
