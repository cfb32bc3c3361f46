package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Paintersrp/textsearch/internal/artifacts"
	"github.com/Paintersrp/textsearch/internal/overlay"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/state"
)

// RequireState fails when the command runs without a loaded project.
func RequireState(s *state.State) error {
	if s == nil || s.Config == nil {
		return fmt.Errorf("state configuration is not initialized")
	}
	return nil
}

// ResolveArtifactSource maps a --from value to an artifact source. Empty
// selects the configured output directory; relative directories resolve
// against the project root; http(s) locations are fetched remotely.
func ResolveArtifactSource(s *state.State, location string) (artifacts.Source, error) {
	if err := RequireState(s); err != nil {
		return nil, err
	}

	location = strings.TrimSpace(location)
	if location == "" {
		return artifacts.DirSource{Dir: s.Config.OutputDir}, nil
	}

	lowered := strings.ToLower(location)
	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		return artifacts.SourceFor(location)
	}
	if !filepath.IsAbs(location) {
		location = filepath.Join(s.Config.Root, location)
	}
	return artifacts.DirSource{Dir: filepath.Clean(location)}, nil
}

// ResolveTargetURL returns the docs URL for doc under the configured base.
// It reports false when the document has no navigation target.
func ResolveTargetURL(s *state.State, doc search.SearchDoc) (string, bool, error) {
	target, ok := overlay.Target(doc)
	if !ok {
		return "", false, nil
	}
	base := ""
	if s != nil && s.Config != nil {
		base = s.Config.BaseURL
	}
	url, err := overlay.ResolveURL(base, target)
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}
