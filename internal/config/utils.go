package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Starter is the config written by the init command.
const Starter = `# textsearch configuration
inputPaths:
  - "**/*.mdx"
  - "**/*.stories.{tsx,ts,jsx,js}"
outputJson: true

# Component name -> extraction rule.
#   Banner: [title]                  # attribute and nested text named "title"
#   Callout: [children]              # all text inside the component
#   Card:
#     props: [heading, caption]
#     children: true
#     nestedTextSelectors: [p]
jsxTextMap: {}

meta:
  component: Meta
  attribute: title

logging:
  level: info
  format: text
`

// GetConfigPath returns the default config location in dir.
func GetConfigPath(dir string) string {
	return filepath.Join(dir, FileName+".yaml")
}

// WriteStarter writes Starter to path. An existing file is kept unless
// overwrite is set.
func WriteStarter(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%s already exists", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file existence: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(Starter), 0o644)
}
