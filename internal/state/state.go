package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Paintersrp/textsearch/internal/config"
	"github.com/Paintersrp/textsearch/internal/logging"
	"github.com/Paintersrp/textsearch/internal/runtime"
	indexsvc "github.com/Paintersrp/textsearch/internal/services/index"
	"github.com/Paintersrp/textsearch/internal/storymeta"
)

// State bundles the loaded config with the services the commands share.
type State struct {
	Config     *config.ExtractionConfig
	Logger     *slog.Logger
	Index      IndexService
	Watcher    *ProjectWatcher
	RootStatus *RootStatus
}

// RootStatus is the status line shared between the index heartbeat and the
// views that render it.
type RootStatus struct {
	mu   sync.RWMutex
	Line string
}

// Set replaces the status line.
func (r *RootStatus) Set(line string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.Line = line
	r.mu.Unlock()
}

// Value returns the status line.
func (r *RootStatus) Value() string {
	if r == nil {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Line
}

// IndexService exposes the project's builds to commands and views.
type IndexService interface {
	Current() (*indexsvc.Build, error)
	Refresh(ctx context.Context) (*indexsvc.Build, bool, error)
	QueueUpdate(string)
	Stats() indexsvc.Stats
	Close() error
}

// NewState wires the extraction pipeline and index service for cfg.
func NewState(cfg *config.ExtractionConfig, logger *slog.Logger) (*State, error) {
	if cfg == nil {
		return nil, errors.New("state: config is required")
	}
	logger = logging.OrDiscard(logger)

	generator := cfg.Generator(nil)
	generator.Metadata = storymeta.StaticExtractor{}
	generator.Logger = logger

	service := indexsvc.NewService(generator, indexsvc.Options{
		Patterns:  cfg.InputPaths,
		OutputDir: cfg.OutputDir,
		Persist:   cfg.OutputJSON,
		Logger:    logger,
	})

	return &State{
		Config:     cfg,
		Logger:     logger,
		Index:      service,
		RootStatus: &RootStatus{},
	}, nil
}

// Watch starts watching the project root. Relevant changes are queued on the
// index service, and closing the watcher closes the service.
func (s *State) Watch() (*ProjectWatcher, error) {
	if s.Watcher != nil {
		return s.Watcher, nil
	}

	ignore := append([]string(nil), s.Config.Ignore...)
	watcher, err := NewProjectWatcher(s.Config.Root, s.Config.InputPaths, ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to create project watcher: %w", err)
	}
	watcher.Skip(s.Config.OutputDir)

	index := s.Index
	watcher.OnChange(func(rel string) {
		if index != nil {
			index.QueueUpdate(rel)
		}
	})
	watcher.OnClose(func() {
		if index != nil {
			_ = index.Close()
		}
	})

	s.Watcher = watcher
	return watcher, nil
}

// Session refreshes the index if needed and returns a query session over the
// current build.
func (s *State) Session(ctx context.Context) (*runtime.Session, error) {
	if s == nil || s.Index == nil {
		return nil, runtime.ErrUnavailable
	}
	build, _, err := s.Index.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrUnavailable, err)
	}
	return runtime.NewSession(build.Index), nil
}

// Close releases resources associated with the state, including the project
// watcher and shared index service.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.Watcher != nil {
		if err := s.Watcher.Close(); err != nil {
			errs = append(errs, err)
		}
		s.Watcher = nil
	}
	if s.Index != nil {
		if err := s.Index.Close(); err != nil && !errors.Is(err, indexsvc.ErrClosed) {
			errs = append(errs, err)
		}
		s.Index = nil
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
