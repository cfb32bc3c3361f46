package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Paintersrp/textsearch/internal/artifacts"
	"github.com/Paintersrp/textsearch/internal/docgen"
	"github.com/Paintersrp/textsearch/internal/logging"
	"github.com/Paintersrp/textsearch/internal/search"
)

// ErrClosed signals that the index service has been shut down and cannot be
// used to produce new builds.
var ErrClosed = errors.New("index service closed")

// ErrUnavailable indicates that the search index has not been built yet.
var ErrUnavailable = errors.New("search index unavailable")

// Stats captures lightweight instrumentation about the shared index.
type Stats struct {
	LastRebuild time.Time
	Duration    time.Duration
	Documents   int
	Pending     int
}

// Build is one complete pipeline run: the generated documents and the index
// built from them.
type Build struct {
	Docs    []search.SearchDoc
	Index   *search.Index
	BuiltAt time.Time
}

// Options configures a Service.
type Options struct {
	Patterns []string
	Index    search.Config
	// OutputDir receives artifacts when Persist is true.
	OutputDir string
	Persist   bool
	Logger    *slog.Logger
}

// Service owns the build pipeline for a project and coordinates rebuilds
// requested by the project watcher.
type Service struct {
	mu        sync.RWMutex
	buildMu   sync.Mutex
	generator *docgen.Generator
	opts      Options
	current   *Build
	pending   map[string]uint64
	sequence  uint64
	duration  time.Duration
	closed    bool

	now    func() time.Time
	write  func(dir string, pair artifacts.Pair) error
	logger *slog.Logger
}

// NewService constructs a project-scoped index service.
func NewService(generator *docgen.Generator, opts Options) *Service {
	if opts.OutputDir == "" {
		opts.OutputDir = artifacts.DefaultDir
	}
	return &Service{
		generator: generator,
		opts:      opts,
		pending:   make(map[string]uint64),
		now:       time.Now,
		write:     artifacts.Write,
		logger:    logging.OrDiscard(opts.Logger),
	}
}

// Build runs the pipeline: generate documents, index them serially into a
// single index, and persist the artifact pair when configured. The previous
// build stays current if any step fails.
func (s *Service) Build(ctx context.Context) (*Build, error) {
	if s == nil || s.generator == nil {
		return nil, ErrUnavailable
	}
	if s.isClosed() {
		return nil, ErrClosed
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	started := s.now()

	s.mu.Lock()
	queued := maps.Clone(s.pending)
	s.mu.Unlock()

	docs, err := s.generator.Generate(ctx, s.opts.Patterns)
	if err != nil {
		return nil, fmt.Errorf("generate documents: %w", err)
	}

	idx := search.NewIndex(s.opts.Index)
	if err := idx.Build(docs); err != nil {
		return nil, fmt.Errorf("build search index: %w", err)
	}

	build := &Build{Docs: docs, Index: idx, BuiltAt: s.now()}
	if s.opts.Persist {
		if err := s.Persist(build, s.opts.OutputDir); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	// Changes queued while this build ran stay pending.
	for path, seq := range queued {
		if s.pending[path] == seq {
			delete(s.pending, path)
		}
	}
	s.current = build
	s.duration = build.BuiltAt.Sub(started)
	s.logger.Info("index built", "documents", len(docs), "duration", s.duration)
	return build, nil
}

// Persist exports the build's index completely and writes both artifacts to
// dir.
func (s *Service) Persist(build *Build, dir string) error {
	if build == nil || build.Index == nil {
		return ErrUnavailable
	}
	shards, err := build.Index.ExportMap()
	if err != nil {
		return fmt.Errorf("export search index: %w", err)
	}
	write := artifacts.Write
	if s != nil && s.write != nil {
		write = s.write
	}
	if err := write(dir, artifacts.Pair{Docs: build.Docs, Shards: shards}); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}
	if s != nil {
		s.logger.Info("artifacts written", "dir", dir)
	}
	return nil
}

// Current returns the most recent successful build.
func (s *Service) Current() (*Build, error) {
	if s == nil {
		return nil, ErrUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.current == nil {
		return nil, ErrUnavailable
	}
	return s.current, nil
}

// QueueUpdate records a changed relative path. The next Refresh rebuilds the
// whole index when anything is pending.
func (s *Service) QueueUpdate(rel string) {
	if s == nil {
		return
	}

	trimmed := strings.TrimSpace(rel)
	if trimmed == "" {
		return
	}

	normalized := filepath.ToSlash(trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.pending == nil {
		s.pending = make(map[string]uint64)
	}
	s.sequence++
	s.pending[normalized] = s.sequence
}

// Refresh rebuilds when updates are pending or nothing has been built yet.
// It reports whether a rebuild happened.
func (s *Service) Refresh(ctx context.Context) (*Build, bool, error) {
	if s == nil {
		return nil, false, ErrUnavailable
	}

	s.mu.RLock()
	closed := s.closed
	needsRebuild := s.current == nil || len(s.pending) > 0
	current := s.current
	s.mu.RUnlock()

	if closed {
		return nil, false, ErrClosed
	}
	if !needsRebuild {
		return current, false, nil
	}

	build, err := s.Build(ctx)
	if err != nil {
		return nil, false, err
	}
	return build, true, nil
}

// Stats returns instrumentation about the index lifecycle.
func (s *Service) Stats() Stats {
	if s == nil {
		return Stats{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Pending: len(s.pending), Duration: s.duration}
	if s.current != nil {
		stats.LastRebuild = s.current.BuiltAt
		stats.Documents = len(s.current.Docs)
	}
	return stats
}

// Close releases the service. Subsequent calls to Build and Current return
// ErrClosed.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.current = nil
	s.pending = nil
	return nil
}

func (s *Service) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
