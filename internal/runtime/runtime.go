// Package runtime restores a serialized search index and answers queries
// against it.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/Paintersrp/textsearch/internal/artifacts"
	"github.com/Paintersrp/textsearch/internal/search"
)

// MinQueryLength is the shortest query, in runes, that is searched.
const MinQueryLength = 2

var (
	// ErrUnavailable reports that no index is loaded. It is distinct from a
	// query that simply has no results.
	ErrUnavailable = errors.New("search index unavailable")
	// ErrClosed reports a session used after Close. It matches
	// ErrUnavailable.
	ErrClosed = fmt.Errorf("%w: session closed", ErrUnavailable)
)

// Searcher answers queries with documents ready to render.
type Searcher interface {
	Query(text string, limit int) ([]search.SearchDoc, error)
}

// Session holds one restored index for its lifetime. It is safe for
// concurrent use.
type Session struct {
	mu     sync.RWMutex
	index  *search.Index
	docs   []search.SearchDoc
	closed bool
}

// NewSession wraps an index built in-process.
func NewSession(idx *search.Index) *Session {
	return &Session{index: idx, docs: idx.Documents()}
}

// Restore imports every shard of the pair. On any error no session is
// returned.
func Restore(pair artifacts.Pair) (*Session, error) {
	idx, err := artifacts.Restore(pair)
	if err != nil {
		return nil, err
	}
	return &Session{index: idx, docs: slices.Clone(pair.Docs)}, nil
}

// Load fetches both artifacts from src and restores them. Every failure wraps
// ErrUnavailable.
func Load(ctx context.Context, src artifacts.Source) (*Session, error) {
	pair, err := artifacts.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	session, err := Restore(pair)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return session, nil
}

// Query searches every indexed field with suggestions enabled and merges the
// per-field hit lists, keeping the first occurrence of each id. Queries
// shorter than MinQueryLength return no results whatever the session state.
// A limit of zero selects search.DefaultLimit.
func (s *Session) Query(text string, limit int) ([]search.SearchDoc, error) {
	if utf8.RuneCountInString(text) < MinQueryLength {
		return []search.SearchDoc{}, nil
	}
	if s == nil {
		return nil, ErrUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.index == nil {
		return nil, ErrUnavailable
	}

	if limit <= 0 {
		limit = search.DefaultLimit
	}
	results := s.index.Search(search.Query{Term: text, Limit: limit, Suggest: true})
	return Merge(results), nil
}

// Merge flattens per-field results in order, dropping repeated ids.
func Merge(results []search.Result) []search.SearchDoc {
	seen := make(map[string]struct{})
	merged := make([]search.SearchDoc, 0)
	for _, res := range results {
		for _, hit := range res.Hits {
			if _, dup := seen[hit.ID]; dup {
				continue
			}
			seen[hit.ID] = struct{}{}
			merged = append(merged, hit)
		}
	}
	return merged
}

// Docs returns the full document collection of the session.
func (s *Session) Docs() []search.SearchDoc {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.docs)
}

// Len reports the number of documents in the session.
func (s *Session) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close discards the index. Later queries return ErrClosed.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.index = nil
	s.docs = nil
}
