package state

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/Paintersrp/textsearch/internal/pathutil"
)

// ProjectFileChangedMsg reports a change to a file matched by the input
// globs. Path is relative to the project root.
type ProjectFileChangedMsg struct {
	Path string
}

type ProjectWatcherErrMsg struct {
	Err error
}

// ProjectWatcher reports changes to indexed files under a project root.
type ProjectWatcher struct {
	watcher   *fsnotify.Watcher
	root      string
	patterns  []string
	ignore    []string
	skip      []string
	done      chan struct{}
	once      sync.Once
	mu        sync.Mutex
	pending   []tea.Msg
	heartbeat func() tea.Cmd
	interval  time.Duration
	onChange  func(string)
	onClose   func()
}

// NewProjectWatcher watches every directory under root except those named in
// ignore. Relative patterns are matched against root-relative paths.
func NewProjectWatcher(root string, patterns, ignore []string) (*ProjectWatcher, error) {
	normalizedRoot := pathutil.NormalizePath(root)
	if normalizedRoot == "" {
		return nil, errors.New("project root cannot be empty")
	}
	if abs, err := filepath.Abs(normalizedRoot); err == nil {
		normalizedRoot = abs
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &ProjectWatcher{
		watcher:  w,
		root:     normalizedRoot,
		patterns: patterns,
		ignore:   ignore,
		done:     make(chan struct{}),
	}

	if err := watcher.addRecursive(normalizedRoot); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return watcher, nil
}

// Next blocks until the next relevant change, watcher error or heartbeat. It
// returns nil once the watcher is closed.
func (w *ProjectWatcher) Next() tea.Msg {
	if msg := w.dequeuePending(); msg != nil {
		return msg
	}

	hb, interval := w.heartbeatConfig()
	var ticks <-chan time.Time
	if hb != nil && interval > 0 {
		ticker := time.NewTicker(interval)
		ticks = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case <-w.done:
			return nil
		case <-ticks:
			if msg := w.invokeHeartbeat(hb); msg != nil {
				return msg
			}
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
					continue
				}
			}

			if !w.isRelevant(event) {
				continue
			}

			rel, err := w.relativePath(event.Name)
			if err != nil || rel == "" {
				continue
			}

			if w.onChange != nil {
				w.onChange(rel)
			}

			if msg := w.invokeHeartbeat(hb); msg != nil {
				w.enqueuePending(ProjectFileChangedMsg{Path: rel})
				return msg
			}

			return ProjectFileChangedMsg{Path: rel}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return ProjectWatcherErrMsg{Err: err}
			}
		}
	}
}

func (w *ProjectWatcher) heartbeatConfig() (func() tea.Cmd, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.heartbeat, w.interval
}

func (w *ProjectWatcher) invokeHeartbeat(fn func() tea.Cmd) tea.Msg {
	if fn == nil {
		return nil
	}
	cmd := fn()
	if cmd == nil {
		return nil
	}
	return cmd()
}

func (w *ProjectWatcher) enqueuePending(msg tea.Msg) {
	w.mu.Lock()
	w.pending = append(w.pending, msg)
	w.mu.Unlock()
}

func (w *ProjectWatcher) dequeuePending() tea.Msg {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	msg := w.pending[0]
	w.pending = w.pending[1:]
	return msg
}

func (w *ProjectWatcher) Close() error {
	if w == nil {
		return nil
	}

	var closeErr error
	w.once.Do(func() {
		close(w.done)
		closeErr = w.watcher.Close()
		if w.onClose != nil {
			w.onClose()
		}
	})

	return closeErr
}

// OnChange registers a callback that receives root-relative paths whenever
// the watcher detects a relevant change.
func (w *ProjectWatcher) OnChange(fn func(string)) {
	if w == nil {
		return
	}
	w.onChange = fn
}

// OnClose registers a callback that is invoked exactly once when the watcher
// shuts down.
func (w *ProjectWatcher) OnClose(fn func()) {
	if w == nil {
		return
	}
	w.onClose = fn
}

// SetHeartbeat configures a command that is invoked whenever the watcher
// detects a change event or when the periodic ticker fires.
func (w *ProjectWatcher) SetHeartbeat(fn func() tea.Cmd, interval time.Duration) {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.heartbeat = fn
	w.interval = interval
}

// Skip stops reporting changes below dir, typically the artifact output
// directory.
func (w *ProjectWatcher) Skip(dir string) {
	if w == nil || dir == "" {
		return
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	w.mu.Lock()
	w.skip = append(w.skip, pathutil.NormalizePath(dir))
	w.mu.Unlock()
}

func (w *ProjectWatcher) addRecursive(root string) error {
	normalized := pathutil.NormalizePath(root)
	return filepath.WalkDir(normalized, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return err
		}

		if !d.IsDir() {
			return nil
		}
		if path != w.root && pathutil.HasSegment(filepath.Base(path), w.ignore, false) {
			return filepath.SkipDir
		}

		return w.watcher.Add(path)
	})
}

func (w *ProjectWatcher) isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	rel, err := w.relativePath(event.Name)
	if err != nil || rel == "" {
		return false
	}
	if pathutil.HasSegment(rel, w.ignore, true) || w.skipped(event.Name) {
		return false
	}

	return w.matches(rel, event.Name)
}

func (w *ProjectWatcher) matches(rel, abs string) bool {
	for _, pattern := range w.patterns {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		target := rel
		if filepath.IsAbs(filepath.FromSlash(pattern)) {
			target = filepath.ToSlash(pathutil.NormalizePath(abs))
		}
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *ProjectWatcher) skipped(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, dir := range w.skip {
		if pathutil.Inside(dir, path) {
			return true
		}
	}
	return false
}

func (w *ProjectWatcher) relativePath(path string) (string, error) {
	normalized := pathutil.NormalizePath(path)
	rel, err := pathutil.ProjectRelative(w.root, normalized)
	if err != nil {
		return "", err
	}

	if rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return "", nil
	}

	return rel, nil
}
