package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/textsearch/internal/artifacts"
	"github.com/Paintersrp/textsearch/internal/docgen"
	"github.com/Paintersrp/textsearch/internal/extract"
	"github.com/Paintersrp/textsearch/internal/logging"
	"github.com/Paintersrp/textsearch/internal/rule"
)

// FileName is the config file name without extension.
const FileName = "textsearch.config"

// Override keys bound to CLI flags.
const (
	KeyRoot        = "root"
	KeyOutputDir   = "out"
	KeyOutputJSON  = "output-json"
	KeyConcurrency = "concurrency"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
	KeyBaseURL     = "base-url"
)

// DefaultInputPaths are indexed when the config names none.
var DefaultInputPaths = []string{"**/*.mdx", "**/*.stories.{tsx,ts,jsx,js}"}

// ExtractionConfig is read once before a pipeline run and not modified
// afterwards.
type ExtractionConfig struct {
	InputPaths  []string
	OutputJSON  bool
	JSXTextMap  map[string]rule.Rule
	Root        string
	OutputDir   string
	Concurrency int
	Ignore      []string
	Meta        extract.MetaConfig
	Logging     logging.Config
	Publish     artifacts.PublishConfig
	BaseURL     string

	// File is the config file that was read, empty for defaults.
	File string
}

// fileConfig mirrors the on-disk layout. Rule values stay undecoded until
// rule.FromValue sees them.
type fileConfig struct {
	InputPaths  any                     `yaml:"inputPaths"  json:"inputPaths"  toml:"inputPaths"`
	OutputJSON  *bool                   `yaml:"outputJson"  json:"outputJson"  toml:"outputJson"`
	JSXTextMap  map[string]any          `yaml:"jsxTextMap"  json:"jsxTextMap"  toml:"jsxTextMap"`
	Root        string                  `yaml:"root"        json:"root"        toml:"root"`
	OutputDir   string                  `yaml:"outputDir"   json:"outputDir"   toml:"outputDir"`
	Concurrency int                     `yaml:"concurrency" json:"concurrency" toml:"concurrency"`
	Ignore      []string                `yaml:"ignore"      json:"ignore"      toml:"ignore"`
	Meta        extract.MetaConfig      `yaml:"meta"        json:"meta"        toml:"meta"`
	Logging     logging.Config          `yaml:"logging"     json:"logging"     toml:"logging"`
	Publish     artifacts.PublishConfig `yaml:"publish"     json:"publish"     toml:"publish"`
	BaseURL     string                  `yaml:"baseUrl"     json:"baseUrl"     toml:"baseUrl"`
}

// LoadOptions locates the config and supplies flag overrides.
type LoadOptions struct {
	// Dir is searched for FileName with a supported extension.
	Dir string
	// File, when set, is read instead of searching Dir.
	File string
	// Overrides holds flag values bound under the Key constants. Only keys
	// that are set override the file.
	Overrides *viper.Viper
}

// Default returns the configuration used when no file exists, rooted at dir.
func Default(dir string) *ExtractionConfig {
	if dir == "" {
		dir = "."
	}
	return &ExtractionConfig{
		InputPaths:  append([]string(nil), DefaultInputPaths...),
		OutputJSON:  true,
		JSXTextMap:  map[string]rule.Rule{},
		Root:        dir,
		OutputDir:   filepath.Join(dir, artifacts.DefaultDir),
		Concurrency: goruntime.NumCPU(),
		Ignore:      append([]string(nil), docgen.DefaultIgnore...),
		Meta: extract.MetaConfig{
			Component: extract.DefaultMetaComponent,
			Attribute: extract.DefaultMetaAttribute,
		},
		Logging: logging.Config{Level: "info", Format: "text"},
	}
}

// Load reads and validates the project config. When no file is found it
// returns the defaults with overrides applied together with ErrNoConfig, so
// callers may continue.
func Load(opts LoadOptions) (*ExtractionConfig, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	path := opts.File
	if path == "" {
		found, err := Find(dir)
		if err != nil && !errors.Is(err, ErrNoConfig) {
			return nil, err
		}
		path = found
	}

	if path == "" {
		cfg := Default(dir)
		applyOverrides(cfg, opts.Overrides, dir)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, ErrNoConfig
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	raw, err := decode(path, data)
	if err != nil {
		return nil, err
	}

	cfg, err := fromFile(raw, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.File = path
	applyOverrides(cfg, opts.Overrides, filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Find locates FileName in dir using viper's extension search.
func Find(dir string) (string, error) {
	v := viper.New()
	v.SetConfigName(FileName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", ErrNoConfig
		}
		// Parse errors are reported by decode with the file's path.
		if used := v.ConfigFileUsed(); used != "" {
			return used, nil
		}
		return "", err
	}
	return v.ConfigFileUsed(), nil
}

func decode(path string, data []byte) (*fileConfig, error) {
	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, &ValidationError{Field: "file", Msg: fmt.Sprintf("parse %s: %v", path, err)}
		}
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &ValidationError{Field: "file", Msg: fmt.Sprintf("parse %s: %v", path, err)}
		}
	default:
		return nil, &ValidationError{Field: "file", Msg: fmt.Sprintf("unsupported config format %q", filepath.Ext(path))}
	}
	return &raw, nil
}

func fromFile(raw *fileConfig, base string) (*ExtractionConfig, error) {
	cfg := Default(base)

	inputs, err := stringList(raw.InputPaths)
	if err != nil {
		return nil, &ValidationError{Field: "inputPaths", Msg: err.Error()}
	}
	if len(inputs) > 0 {
		cfg.InputPaths = inputs
	}
	if raw.OutputJSON != nil {
		cfg.OutputJSON = *raw.OutputJSON
	}

	names := make([]string, 0, len(raw.JSXTextMap))
	for name := range raw.JSXTextMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r, err := rule.FromValue(raw.JSXTextMap[name])
		if err != nil {
			return nil, &ValidationError{Field: "jsxTextMap." + name, Msg: err.Error()}
		}
		cfg.JSXTextMap[name] = r
	}

	if raw.Root != "" {
		cfg.Root = resolve(base, raw.Root)
	}
	cfg.OutputDir = filepath.Join(cfg.Root, artifacts.DefaultDir)
	if raw.OutputDir != "" {
		cfg.OutputDir = resolve(cfg.Root, raw.OutputDir)
	}
	if raw.Concurrency != 0 {
		cfg.Concurrency = raw.Concurrency
	}
	if raw.Ignore != nil {
		cfg.Ignore = append(cfg.Ignore, raw.Ignore...)
	}
	if raw.Meta.Component != "" {
		cfg.Meta.Component = raw.Meta.Component
	}
	if raw.Meta.Attribute != "" {
		cfg.Meta.Attribute = raw.Meta.Attribute
	}
	if raw.Logging.Level != "" {
		cfg.Logging.Level = raw.Logging.Level
	}
	if raw.Logging.Format != "" {
		cfg.Logging.Format = raw.Logging.Format
	}
	cfg.Publish = raw.Publish
	cfg.BaseURL = raw.BaseURL
	return cfg, nil
}

func applyOverrides(cfg *ExtractionConfig, v *viper.Viper, base string) {
	if v == nil {
		return
	}
	if v.IsSet(KeyRoot) && v.GetString(KeyRoot) != "" {
		previous := cfg.Root
		cfg.Root = resolve(base, v.GetString(KeyRoot))
		if cfg.OutputDir == filepath.Join(previous, artifacts.DefaultDir) {
			cfg.OutputDir = filepath.Join(cfg.Root, artifacts.DefaultDir)
		}
	}
	if v.IsSet(KeyOutputDir) && v.GetString(KeyOutputDir) != "" {
		cfg.OutputDir = resolve(cfg.Root, v.GetString(KeyOutputDir))
	}
	if v.IsSet(KeyOutputJSON) {
		cfg.OutputJSON = v.GetBool(KeyOutputJSON)
	}
	if v.IsSet(KeyConcurrency) && v.GetInt(KeyConcurrency) != 0 {
		cfg.Concurrency = v.GetInt(KeyConcurrency)
	}
	if v.IsSet(KeyLogLevel) && v.GetString(KeyLogLevel) != "" {
		cfg.Logging.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogFormat) && v.GetString(KeyLogFormat) != "" {
		cfg.Logging.Format = v.GetString(KeyLogFormat)
	}
	if v.IsSet(KeyBaseURL) && v.GetString(KeyBaseURL) != "" {
		cfg.BaseURL = v.GetString(KeyBaseURL)
	}
}

// Validate reports the first invalid field.
func (cfg *ExtractionConfig) Validate() error {
	if len(cfg.InputPaths) == 0 {
		return &ValidationError{Field: "inputPaths", Msg: "at least one glob is required"}
	}
	for _, pattern := range cfg.InputPaths {
		if strings.TrimSpace(pattern) == "" {
			return &ValidationError{Field: "inputPaths", Msg: "globs must not be blank"}
		}
	}
	if cfg.Concurrency < 0 {
		return &ValidationError{Field: "concurrency", Msg: "must not be negative"}
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "text", "json":
	default:
		return &ValidationError{Field: "logging.format", Msg: fmt.Sprintf("unknown format %q", cfg.Logging.Format)}
	}
	if cfg.BaseURL != "" {
		if _, err := artifacts.NormalizeBaseURL(cfg.BaseURL); err != nil {
			return &ValidationError{Field: "baseUrl", Msg: err.Error()}
		}
	}
	return nil
}

// Generator returns a document generator configured from cfg.
func (cfg *ExtractionConfig) Generator(extractor *extract.Extractor) *docgen.Generator {
	if extractor == nil {
		extractor = extract.New(cfg.JSXTextMap, cfg.Meta)
	}
	return &docgen.Generator{
		Root:        cfg.Root,
		Extractor:   extractor,
		Ignore:      cfg.Ignore,
		Concurrency: cfg.Concurrency,
	}
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

func stringList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string glob, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a glob or list of globs, got %T", value)
	}
}
