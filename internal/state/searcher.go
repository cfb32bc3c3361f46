package state

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/Paintersrp/textsearch/internal/runtime"
	"github.com/Paintersrp/textsearch/internal/search"
)

// LiveSearcher answers queries against the latest build, rebuilding first
// when the watcher has queued changes.
type LiveSearcher struct {
	ctx   context.Context
	state *State
}

// Searcher returns a runtime.Searcher bound to ctx for rebuilds.
func (s *State) Searcher(ctx context.Context) *LiveSearcher {
	return &LiveSearcher{ctx: ctx, state: s}
}

func (l *LiveSearcher) Query(text string, limit int) ([]search.SearchDoc, error) {
	if utf8.RuneCountInString(text) < runtime.MinQueryLength {
		return []search.SearchDoc{}, nil
	}
	if l == nil || l.state == nil || l.state.Index == nil {
		return nil, runtime.ErrUnavailable
	}

	build, rebuilt, err := l.state.Index.Refresh(l.ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrUnavailable, err)
	}
	if rebuilt {
		l.state.Logger.Debug("index refreshed before query", "documents", len(build.Docs))
	}
	return runtime.NewSession(build.Index).Query(text, limit)
}
