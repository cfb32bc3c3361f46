package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Paintersrp/textsearch/internal/config"
	"github.com/Paintersrp/textsearch/internal/state"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got %q", want, out.String())
}

func TestWatchRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "intro.mdx")
	if err := os.WriteFile(doc, []byte("first"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := config.Default(dir)
	cfg.OutputJSON = false
	st, err := state.NewState(cfg, nil)
	if err != nil {
		t.Fatalf("NewState returned error: %v", err)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	cmd := NewCmdWatch(st)
	cmd.SetOut(out)
	cmd.SetArgs(nil)

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	waitFor(t, out, "Indexed 1 documents, watching "+dir)

	if err := os.WriteFile(filepath.Join(dir, "second.mdx"), []byte("second"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, out, "Rebuilt 2 documents after second.mdx")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
}
