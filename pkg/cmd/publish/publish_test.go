package publish

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Paintersrp/textsearch/internal/artifacts"
	"github.com/Paintersrp/textsearch/internal/config"
	"github.com/Paintersrp/textsearch/internal/state"
)

type recordingPublisher struct {
	cfg   artifacts.PublishConfig
	pairs []artifacts.Pair
}

func (p *recordingPublisher) Publish(ctx context.Context, pair artifacts.Pair) error {
	p.pairs = append(p.pairs, pair)
	return nil
}

func stubPublisher(t *testing.T) *recordingPublisher {
	t.Helper()
	rec := &recordingPublisher{}
	original := newPublisher
	newPublisher = func(ctx context.Context, cfg artifacts.PublishConfig) (Publisher, error) {
		rec.cfg = cfg
		return rec, nil
	}
	t.Cleanup(func() { newPublisher = original })
	return rec
}

func newState(t *testing.T) *state.State {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "intro.mdx"), []byte("Hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := config.Default(dir)
	cfg.Publish = artifacts.PublishConfig{Bucket: "from-config", Prefix: "search"}
	st, err := state.NewState(cfg, nil)
	if err != nil {
		t.Fatalf("NewState returned error: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func execute(st *state.State, args ...string) (string, error) {
	cmd := NewCmdPublish(st)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPublishBuildsAndUploads(t *testing.T) {
	rec := stubPublisher(t)

	out, err := execute(newState(t), "--build", "--bucket", "docs-site", "--prefix", "/static/search/")
	if err != nil {
		t.Fatalf("publish returned error: %v", err)
	}
	if rec.cfg.Bucket != "docs-site" || len(rec.pairs) != 1 || len(rec.pairs[0].Docs) != 1 {
		t.Fatalf("unexpected publish %+v", rec)
	}
	if strings.TrimSpace(out) != "Published 1 documents to s3://docs-site/static/search" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPublishRequiresArtifacts(t *testing.T) {
	rec := stubPublisher(t)

	if _, err := execute(newState(t)); err == nil {
		t.Fatalf("expected error without written artifacts")
	}
	if len(rec.pairs) != 0 {
		t.Fatalf("expected nothing to be published")
	}
}

func TestPublishUsesConfigBucket(t *testing.T) {
	rec := stubPublisher(t)

	if _, err := execute(newState(t), "--build"); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}
	if rec.cfg.Bucket != "from-config" || rec.cfg.Prefix != "search" {
		t.Fatalf("expected config bucket, got %+v", rec.cfg)
	}
}
