package initialize

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/Paintersrp/textsearch/internal/config"
)

func stubConfirm(t *testing.T, answer bool) *int {
	t.Helper()
	calls := 0
	original := confirm
	confirm = func(string) (bool, error) {
		calls++
		return answer, nil
	}
	t.Cleanup(func() { confirm = original })
	return &calls
}

func execute(args ...string) (string, error) {
	cmd := NewCmdInit()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitWritesStarter(t *testing.T) {
	dir := t.TempDir()
	calls := stubConfirm(t, false)

	out, err := execute(dir)
	if err != nil {
		t.Fatalf("init returned error: %v", err)
	}
	path := config.GetConfigPath(dir)
	if !strings.Contains(out, "Wrote "+path) || *calls != 0 {
		t.Fatalf("unexpected output %q (confirm calls %d)", out, *calls)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != config.Starter {
		t.Fatalf("expected starter config, got %q (%v)", data, err)
	}
}

func TestInitKeepsExistingWhenDeclined(t *testing.T) {
	dir := t.TempDir()
	path := config.GetConfigPath(dir)
	if err := os.WriteFile(path, []byte("custom"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	calls := stubConfirm(t, false)

	out, err := execute(dir)
	if err != nil {
		t.Fatalf("init returned error: %v", err)
	}
	if *calls != 1 || !strings.Contains(out, "Keeping existing config") {
		t.Fatalf("expected a declined prompt, got %q (calls %d)", out, *calls)
	}
	if data, _ := os.ReadFile(path); string(data) != "custom" {
		t.Fatalf("expected config to be kept, got %q", data)
	}
}

func TestInitOverwrites(t *testing.T) {
	for _, tt := range []struct {
		name    string
		args    []string
		confirm bool
		calls   int
	}{
		{name: "confirmed", confirm: true, calls: 1},
		{name: "forced", args: []string{"--force"}, calls: 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := config.GetConfigPath(dir)
			if err := os.WriteFile(path, []byte("custom"), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			calls := stubConfirm(t, tt.confirm)

			if _, err := execute(append([]string{dir}, tt.args...)...); err != nil {
				t.Fatalf("init returned error: %v", err)
			}
			if *calls != tt.calls {
				t.Fatalf("expected %d prompts, got %d", tt.calls, *calls)
			}
			if data, _ := os.ReadFile(path); string(data) != config.Starter {
				t.Fatalf("expected starter config, got %q", data)
			}
		})
	}
}
