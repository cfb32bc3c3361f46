// Package artifacts reads and writes the document and index files that carry
// a built search index to its consumers.
package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/textsearch/internal/search"
)

// Artifact file names and the default output directory.
const (
	DocsFile   = "text-search-docs.json"
	IndexFile  = "text-search-index.json"
	DefaultDir = ".text-search-artifacts"
)

// ErrMismatch reports a documents file and index file that were not produced
// by the same build.
var ErrMismatch = errors.New("artifacts: documents and index do not match")

// Pair is a documents collection and the serialized index built from it.
type Pair struct {
	Docs   []search.SearchDoc
	Shards map[string]string
}

// Encode renders both artifacts. The index must already be fully exported.
func (p Pair) Encode() (docs, index []byte, err error) {
	list := p.Docs
	if list == nil {
		list = []search.SearchDoc{}
	}
	docs, err = json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("artifacts: encode documents: %w", err)
	}
	shards := p.Shards
	if shards == nil {
		shards = map[string]string{}
	}
	index, err = json.Marshal(shards)
	if err != nil {
		return nil, nil, fmt.Errorf("artifacts: encode index: %w", err)
	}
	return docs, index, nil
}

// Write stores the pair under dir, creating it when absent. Both files are
// staged as temporaries and renamed into place, documents first, so a failed
// write leaves any previous pair untouched.
func Write(dir string, p Pair) error {
	docs, index, err := p.Encode()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifacts: create %s: %w", dir, err)
	}

	docsTmp, err := stage(dir, DocsFile, docs)
	if err != nil {
		return err
	}
	indexTmp, err := stage(dir, IndexFile, index)
	if err != nil {
		_ = os.Remove(docsTmp)
		return err
	}

	if err := os.Rename(docsTmp, filepath.Join(dir, DocsFile)); err != nil {
		_ = os.Remove(docsTmp)
		_ = os.Remove(indexTmp)
		return fmt.Errorf("artifacts: replace %s: %w", DocsFile, err)
	}
	if err := os.Rename(indexTmp, filepath.Join(dir, IndexFile)); err != nil {
		_ = os.Remove(indexTmp)
		return fmt.Errorf("artifacts: replace %s: %w", IndexFile, err)
	}
	return nil
}

func stage(dir, name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("artifacts: stage %s: %w", name, err)
	}
	path := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("artifacts: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("artifacts: close %s: %w", name, err)
	}
	if err := os.Chmod(path, 0o644); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("artifacts: chmod %s: %w", name, err)
	}
	return path, nil
}

// Load fetches both artifacts from src concurrently. The documents are
// validated against the documents schema. Either failure fails the load.
func Load(ctx context.Context, src Source) (Pair, error) {
	var (
		docsData  []byte
		indexData []byte
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		data, err := read(ctx, src, DocsFile)
		docsData = data
		return err
	})
	group.Go(func() error {
		data, err := read(ctx, src, IndexFile)
		indexData = data
		return err
	})
	if err := group.Wait(); err != nil {
		return Pair{}, err
	}

	return Decode(docsData, indexData)
}

// Decode parses both artifacts.
func Decode(docsData, indexData []byte) (Pair, error) {
	if err := ValidateDocs(docsData); err != nil {
		return Pair{}, err
	}
	var pair Pair
	if err := json.Unmarshal(docsData, &pair.Docs); err != nil {
		return Pair{}, fmt.Errorf("artifacts: decode %s: %w", DocsFile, err)
	}
	if err := json.Unmarshal(indexData, &pair.Shards); err != nil {
		return Pair{}, fmt.Errorf("artifacts: decode %s: %w", IndexFile, err)
	}
	if pair.Shards == nil {
		return Pair{}, fmt.Errorf("artifacts: decode %s: index is null", IndexFile)
	}
	return pair, nil
}

func read(ctx context.Context, src Source, name string) ([]byte, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("artifacts: open %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("artifacts: read %s: %w", name, err)
	}
	return data, nil
}

// Restore imports the pair's index and checks it was built from the pair's
// documents.
func Restore(p Pair) (*search.Index, error) {
	idx, err := search.Import(p.Shards)
	if err != nil {
		return nil, err
	}
	fingerprint, err := search.Fingerprint(p.Docs)
	if err != nil {
		return nil, err
	}
	if fingerprint != idx.Fingerprint() || len(p.Docs) != idx.Len() {
		return nil, ErrMismatch
	}
	return idx, nil
}
