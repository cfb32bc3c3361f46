package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"github.com/Paintersrp/textsearch/internal/artifacts"
	"github.com/Paintersrp/textsearch/internal/config"
	"github.com/Paintersrp/textsearch/internal/docgen"
	"github.com/Paintersrp/textsearch/internal/rule"
	"github.com/Paintersrp/textsearch/internal/search"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "textsearch.config.yaml", `
inputPaths: "docs/**/*.mdx"
outputJson: false
jsxTextMap:
  Banner: [title]
  Card:
    props: [heading]
    children: true
    nestedTextSelectors: [p]
outputDir: public/search
ignore: [storybook-static]
meta:
  component: DocMeta
`)

	cfg, err := config.Load(config.LoadOptions{Dir: dir})
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}

	if len(cfg.InputPaths) != 1 || cfg.InputPaths[0] != "docs/**/*.mdx" {
		t.Fatalf("expected single glob to be wrapped, got %v", cfg.InputPaths)
	}
	if cfg.OutputJSON {
		t.Fatalf("expected outputJson false")
	}
	if cfg.OutputDir != filepath.Join(dir, "public/search") {
		t.Fatalf("unexpected output dir %q", cfg.OutputDir)
	}
	if cfg.Meta.Component != "DocMeta" || cfg.Meta.Attribute != "title" {
		t.Fatalf("unexpected meta config %+v", cfg.Meta)
	}
	if !strings.Contains(strings.Join(cfg.Ignore, ","), "node_modules") || cfg.Ignore[len(cfg.Ignore)-1] != "storybook-static" {
		t.Fatalf("expected ignore list to extend defaults, got %v", cfg.Ignore)
	}

	banner, ok := cfg.JSXTextMap["Banner"]
	if !ok || banner.Kind != rule.KindList || len(banner.List) != 1 || banner.List[0] != "title" {
		t.Fatalf("unexpected Banner rule %+v", banner)
	}
	card := cfg.JSXTextMap["Card"]
	if card.Kind != rule.KindRecord || !card.Record.Children || card.Record.Props[0] != "heading" {
		t.Fatalf("unexpected Card rule %+v", card)
	}
	if _, ok := cfg.JSXTextMap["card"]; ok {
		t.Fatalf("expected component names to keep their case")
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "textsearch.config.toml", `
inputPaths = ["**/*.mdx"]
concurrency = 3

[jsxTextMap]
Callout = ["children"]

[logging]
format = "json"
`)

	cfg, err := config.Load(config.LoadOptions{Dir: dir})
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}
	if cfg.Concurrency != 3 || cfg.Logging.Format != "json" || !cfg.OutputJSON {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, ok := cfg.JSXTextMap["Callout"]; !ok {
		t.Fatalf("expected Callout rule, got %v", cfg.JSXTextMap)
	}
	if cfg.File != filepath.Join(dir, "textsearch.config.toml") {
		t.Fatalf("unexpected config file %q", cfg.File)
	}
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	overrides := viper.New()
	overrides.Set(config.KeyOutputJSON, false)
	overrides.Set(config.KeyLogLevel, "debug")

	cfg, err := config.Load(config.LoadOptions{Dir: dir, Overrides: overrides})
	if !errors.Is(err, config.ErrNoConfig) {
		t.Fatalf("expected ErrNoConfig, got %v", err)
	}
	if cfg == nil {
		t.Fatalf("expected defaults alongside ErrNoConfig")
	}
	if cfg.OutputJSON || cfg.Logging.Level != "debug" {
		t.Fatalf("expected overrides to apply, got %+v", cfg)
	}
	if cfg.OutputDir != filepath.Join(dir, artifacts.DefaultDir) {
		t.Fatalf("unexpected default output dir %q", cfg.OutputDir)
	}
}

func TestOverridesRebaseOutputDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "textsearch.config.yml", "inputPaths: ['**/*.mdx']\n")

	overrides := viper.New()
	overrides.Set(config.KeyRoot, "site")

	cfg, err := config.Load(config.LoadOptions{Dir: dir, Overrides: overrides})
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}
	if cfg.Root != filepath.Join(dir, "site") {
		t.Fatalf("unexpected root %q", cfg.Root)
	}
	if cfg.OutputDir != filepath.Join(dir, "site", artifacts.DefaultDir) {
		t.Fatalf("expected output dir to follow root, got %q", cfg.OutputDir)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{name: "bad rule", content: "jsxTextMap:\n  Banner: 3\n", field: "jsxTextMap.Banner"},
		{name: "unknown rule key", content: "jsxTextMap:\n  Banner:\n    prop: [title]\n", field: "jsxTextMap.Banner"},
		{name: "bad globs", content: "inputPaths: {a: b}\n", field: "inputPaths"},
		{name: "negative concurrency", content: "concurrency: -1\n", field: "concurrency"},
		{name: "bad log format", content: "logging:\n  format: xml\n", field: "logging.format"},
		{name: "bad base url", content: "baseUrl: ftp://example.com\n", field: "baseUrl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "textsearch.config.yaml", tt.content)

			_, err := config.Load(config.LoadOptions{Dir: dir})
			var verr *config.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "custom.json", `{"inputPaths": ["a/*.mdx"], "baseUrl": "https://docs.example.com"}`)

	cfg, err := config.Load(config.LoadOptions{File: path})
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}
	if cfg.InputPaths[0] != "a/*.mdx" || cfg.BaseURL != "https://docs.example.com" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestWriteStarterRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := config.GetConfigPath(dir)

	if err := config.WriteStarter(path, false); err != nil {
		t.Fatalf("WriteStarter returned error: %v", err)
	}
	if err := config.WriteStarter(path, false); err == nil {
		t.Fatalf("expected existing config to be kept")
	}
	if err := config.WriteStarter(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}

	cfg, err := config.Load(config.LoadOptions{Dir: dir})
	if err != nil {
		t.Fatalf("starter config does not load: %v", err)
	}
	if strings.Join(cfg.InputPaths, ",") != strings.Join(config.DefaultInputPaths, ",") {
		t.Fatalf("unexpected starter globs %v", cfg.InputPaths)
	}
}

func TestDefaultInputPathsMatchStoryFiles(t *testing.T) {
	for _, name := range []string{"src/Card.stories.tsx", "src/Card.stories.ts", "src/Card.stories.jsx", "src/Card.stories.js", "src/Card.stories.mjs"} {
		t.Run(name, func(t *testing.T) {
			globbed := false
			for _, pattern := range config.DefaultInputPaths {
				if doublestar.MatchUnvalidated(pattern, name) {
					globbed = true
				}
			}
			story := docgen.TypeOf(name) == search.TypeStory
			if globbed != story {
				t.Fatalf("default globs match=%v but story type=%v", globbed, story)
			}
		})
	}
}
