package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Shard keys written by Export. Each indexed field adds "<field>.map".
const (
	ShardConfig   = "cfg"
	ShardRegistry = "reg"
	ShardStore    = "store"

	fieldShardSuffix = ".map"
	formatVersion    = 1
)

var (
	// ErrIncompleteImport reports a serialized index that lacks a shard the
	// configuration requires.
	ErrIncompleteImport = errors.New("search: incomplete index import")
	// ErrUnknownShard reports a shard key the configuration does not expect.
	ErrUnknownShard = errors.New("search: unknown index shard")
	// ErrCorruptShard reports a shard whose payload cannot be decoded or is
	// inconsistent with the others.
	ErrCorruptShard = errors.New("search: corrupt index shard")
)

type exportedConfig struct {
	Version     int    `json:"version"`
	Config      Config `json:"config"`
	Fingerprint string `json:"fingerprint"`
	Count       int    `json:"count"`
}

// ShardKeys lists the keys Export emits for cfg, in emission order.
func ShardKeys(cfg Config) []string {
	cfg = cfg.withDefaults()
	keys := []string{ShardConfig, ShardRegistry, ShardStore}
	for _, field := range cfg.Fields {
		keys = append(keys, field+fieldShardSuffix)
	}
	return keys
}

// Export hands every shard to fn in a fixed order and returns only after the
// last shard was accepted. The first error from fn stops the export.
func (idx *Index) Export(fn func(key, value string) error) error {
	for _, key := range ShardKeys(idx.cfg) {
		value, err := idx.encodeShard(key)
		if err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return fmt.Errorf("search: export %s: %w", key, err)
		}
	}
	return nil
}

// ExportMap collects a complete export into a map.
func (idx *Index) ExportMap() (map[string]string, error) {
	shards := make(map[string]string)
	err := idx.Export(func(key, value string) error {
		shards[key] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shards, nil
}

func (idx *Index) encodeShard(key string) (string, error) {
	var payload any
	switch key {
	case ShardConfig:
		payload = exportedConfig{
			Version:     formatVersion,
			Config:      idx.cfg,
			Fingerprint: idx.Fingerprint(),
			Count:       len(idx.ids),
		}
	case ShardRegistry:
		payload = nonNilStrings(idx.ids)
	case ShardStore:
		store := idx.store
		if store == nil {
			store = []SearchDoc{}
		}
		payload = store
	default:
		field := strings.TrimSuffix(key, fieldShardSuffix)
		terms, ok := idx.fields[field]
		if !ok || field == key {
			return "", fmt.Errorf("%w: %s", ErrUnknownShard, key)
		}
		payload = terms
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("search: encode shard %s: %w", key, err)
	}
	return string(data), nil
}

// Import restores an index from a complete set of exported shards. Every key
// required by the exported configuration must be present and no others; the
// result is never partially populated.
func Import(shards map[string]string) (*Index, error) {
	raw, ok := shards[ShardConfig]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteImport, ShardConfig)
	}
	var exported exportedConfig
	if err := json.Unmarshal([]byte(raw), &exported); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptShard, ShardConfig, err)
	}
	if exported.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptShard, exported.Version)
	}

	expected := ShardKeys(exported.Config)
	var missing []string
	for _, key := range expected {
		if _, ok := shards[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteImport, strings.Join(missing, ", "))
	}
	var unknown []string
	for key := range shards {
		if !slices.Contains(expected, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownShard, strings.Join(unknown, ", "))
	}

	idx := NewIndex(exported.Config)
	idx.digest = nil
	idx.fingerprint = exported.Fingerprint

	if err := json.Unmarshal([]byte(shards[ShardRegistry]), &idx.ids); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptShard, ShardRegistry, err)
	}
	if err := json.Unmarshal([]byte(shards[ShardStore]), &idx.store); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptShard, ShardStore, err)
	}
	if len(idx.ids) != len(idx.store) || len(idx.ids) != exported.Count {
		return nil, fmt.Errorf("%w: registry has %d ids, store has %d documents, config expects %d",
			ErrCorruptShard, len(idx.ids), len(idx.store), exported.Count)
	}
	for number, id := range idx.ids {
		if idx.store[number].ID != id {
			return nil, fmt.Errorf("%w: store entry %d is %q, registry expects %q", ErrCorruptShard, number, idx.store[number].ID, id)
		}
		idx.lookup[id] = number
	}

	for _, field := range idx.cfg.Fields {
		key := field + fieldShardSuffix
		terms := make(map[string][]posting)
		if err := json.Unmarshal([]byte(shards[key]), &terms); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptShard, key, err)
		}
		for term, list := range terms {
			for _, p := range list {
				if p.Doc < 0 || p.Doc >= len(idx.ids) {
					return nil, fmt.Errorf("%w: %s: term %q references document %d", ErrCorruptShard, key, term, p.Doc)
				}
			}
		}
		idx.fields[field] = terms
	}
	return idx, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
