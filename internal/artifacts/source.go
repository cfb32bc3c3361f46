package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/purell"
)

// Source opens artifact files by name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads artifacts from a local directory.
type DirSource struct {
	Dir string
}

// Open implements Source.
func (s DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.Dir, name))
}

// HTTPSource fetches artifacts relative to a base URL.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

const urlFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment |
	purell.FlagDecodeUnnecessaryEscapes |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveDotSegments

// NormalizeBaseURL canonicalizes a base URL and ensures it ends in a slash so
// artifact names resolve beneath it.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("artifacts: empty base url")
	}
	normalized, err := purell.NormalizeURLString(raw, urlFlags)
	if err != nil {
		return "", fmt.Errorf("artifacts: normalize %q: %w", raw, err)
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("artifacts: parse %q: %w", normalized, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("artifacts: unsupported scheme %q", parsed.Scheme)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed.String(), nil
}

// NewHTTPSource returns a source rooted at base. A nil client selects a
// client with a 30 second timeout.
func NewHTTPSource(base string, client *http.Client) (*HTTPSource, error) {
	normalized, err := NormalizeBaseURL(base)
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{base: parsed, client: client}, nil
}

// URL returns the absolute location of an artifact.
func (s *HTTPSource) URL(name string) string {
	return s.base.ResolveReference(&url.URL{Path: name}).String()
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(name), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", req.URL, resp.Status)
	}
	return resp.Body, nil
}

// SourceFor returns an HTTP source for http(s) locations and a directory
// source for anything else.
func SourceFor(location string) (Source, error) {
	lowered := strings.ToLower(strings.TrimSpace(location))
	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		return NewHTTPSource(location, nil)
	}
	if location == "" {
		location = DefaultDir
	}
	return DirSource{Dir: location}, nil
}
