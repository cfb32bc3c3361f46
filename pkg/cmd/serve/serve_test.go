package serve

import (
	"testing"

	"github.com/Paintersrp/textsearch/internal/config"
	"github.com/Paintersrp/textsearch/internal/constants"
	"github.com/Paintersrp/textsearch/internal/state"
)

func TestArtifactsDir(t *testing.T) {
	cfg := config.Default(t.TempDir())
	st := &state.State{Config: cfg}
	if got := artifactsDir(st); got != cfg.OutputDir {
		t.Fatalf("expected %q, got %q", cfg.OutputDir, got)
	}
	cfg.OutputJSON = false
	if got := artifactsDir(st); got != "" {
		t.Fatalf("expected no artifacts dir, got %q", got)
	}
}

func TestFlags(t *testing.T) {
	cmd := NewCmdServe(&state.State{})
	if got := cmd.Flags().Lookup("addr").DefValue; got != constants.DefaultAddr {
		t.Fatalf("unexpected default addr %q", got)
	}
}
