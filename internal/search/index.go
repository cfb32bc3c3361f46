package search

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"slices"
	"sort"
	"strings"
)

// ErrDuplicateID is returned when a document id is added twice.
var ErrDuplicateID = errors.New("search: duplicate document id")

type posting struct {
	Doc int `json:"d"`
	Pos int `json:"p"`
}

// Index is a multi-field forward index over SearchDoc records. Documents
// must be added from a single goroutine; searching a built index is safe for
// concurrent readers.
type Index struct {
	cfg Config
	// ids maps the internal document number to its id in insertion order.
	ids    []string
	lookup map[string]int
	store  []SearchDoc
	// fields maps field name to term prefix to postings, ordered by
	// document number.
	fields map[string]map[string][]posting

	digest      hash.Hash
	fingerprint string
}

// NewIndex constructs an empty index. Missing configuration values fall back
// to DefaultConfig.
func NewIndex(cfg Config) *Index {
	cfg = cfg.withDefaults()
	idx := &Index{
		cfg:    cfg,
		lookup: make(map[string]int),
		fields: make(map[string]map[string][]posting, len(cfg.Fields)),
		digest: sha256.New(),
	}
	for _, field := range cfg.Fields {
		idx.fields[field] = make(map[string][]posting)
	}
	return idx
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Fields) == 0 {
		c.Fields = def.Fields
	}
	if len(c.Store) == 0 {
		c.Store = def.Store
	}
	if c.Tokenize == "" {
		c.Tokenize = def.Tokenize
	}
	c.Fields = slices.Clone(c.Fields)
	c.Store = slices.Clone(c.Store)
	return c
}

// Config returns the index configuration.
func (idx *Index) Config() Config {
	return idx.cfg
}

// Build adds every document in order.
func (idx *Index) Build(docs []SearchDoc) error {
	for _, doc := range docs {
		if err := idx.Add(doc); err != nil {
			return err
		}
	}
	return nil
}

// Add indexes the sanitized form of doc. Ids must be non-empty and unique.
func (idx *Index) Add(doc SearchDoc) error {
	doc = doc.Sanitized()
	if strings.TrimSpace(doc.ID) == "" {
		return errors.New("search: document id is empty")
	}
	if _, exists := idx.lookup[doc.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, doc.ID)
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("search: encode %s: %w", doc.ID, err)
	}

	number := len(idx.ids)
	idx.ids = append(idx.ids, doc.ID)
	idx.lookup[doc.ID] = number
	idx.store = append(idx.store, doc.project(idx.cfg.Store))

	idx.digest.Write(encoded)
	idx.digest.Write([]byte{'\n'})
	idx.fingerprint = ""

	for _, field := range idx.cfg.Fields {
		terms := idx.fields[field]
		for _, tok := range Tokenize(doc.Field(field)) {
			for _, prefix := range prefixes(tok.Term) {
				list := terms[prefix]
				if n := len(list); n > 0 && list[n-1].Doc == number {
					continue
				}
				terms[prefix] = append(list, posting{Doc: number, Pos: tok.Position})
			}
		}
	}
	return nil
}

// Len reports the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// Documents returns the stored documents in insertion order.
func (idx *Index) Documents() []SearchDoc {
	return slices.Clone(idx.store)
}

// Get returns the stored document for id.
func (idx *Index) Get(id string) (SearchDoc, bool) {
	number, ok := idx.lookup[id]
	if !ok {
		return SearchDoc{}, false
	}
	return idx.store[number], true
}

// Fingerprint identifies the exact document collection that was indexed.
// Fingerprint(docs) over the same documents yields the same value.
func (idx *Index) Fingerprint() string {
	if idx.fingerprint == "" && idx.digest != nil {
		idx.fingerprint = hex.EncodeToString(idx.digest.Sum(nil))
	}
	return idx.fingerprint
}

// Fingerprint hashes a document collection the way Index does. Documents are
// hashed in their sanitized form so a collection and its decoded JSON copy
// agree.
func Fingerprint(docs []SearchDoc) (string, error) {
	digest := sha256.New()
	for _, doc := range docs {
		encoded, err := json.Marshal(doc.Sanitized())
		if err != nil {
			return "", fmt.Errorf("search: encode %s: %w", doc.ID, err)
		}
		digest.Write(encoded)
		digest.Write([]byte{'\n'})
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

type candidate struct {
	doc     int
	matched int
	first   int
}

// Search evaluates q against each requested field and returns one ranked hit
// list per field, in field order. Documents matching more query terms rank
// first, then earlier matches, then earlier insertion.
func (idx *Index) Search(q Query) []Result {
	terms := uniqueTerms(q.Term)
	if len(terms) == 0 || len(idx.ids) == 0 {
		return nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	fields := q.Fields
	if len(fields) == 0 {
		fields = idx.cfg.Fields
	}

	results := make([]Result, 0, len(fields))
	for _, field := range fields {
		index, ok := idx.fields[field]
		if !ok {
			continue
		}

		byDoc := make(map[int]*candidate)
		for _, term := range terms {
			for _, p := range index[term] {
				c, ok := byDoc[p.Doc]
				if !ok {
					c = &candidate{doc: p.Doc, first: p.Pos}
					byDoc[p.Doc] = c
				}
				c.matched++
				if p.Pos < c.first {
					c.first = p.Pos
				}
			}
		}

		ranked := make([]*candidate, 0, len(byDoc))
		for _, c := range byDoc {
			if c.matched < len(terms) && !q.Suggest {
				continue
			}
			ranked = append(ranked, c)
		}
		sort.Slice(ranked, func(i, j int) bool {
			a, b := ranked[i], ranked[j]
			if a.matched != b.matched {
				return a.matched > b.matched
			}
			if a.first != b.first {
				return a.first < b.first
			}
			return a.doc < b.doc
		})
		if len(ranked) > limit {
			ranked = ranked[:limit]
		}

		hits := make([]SearchDoc, 0, len(ranked))
		for _, c := range ranked {
			hits = append(hits, idx.store[c.doc])
		}
		results = append(results, Result{Field: field, Hits: hits})
	}
	return results
}

func uniqueTerms(text string) []string {
	var terms []string
	for _, tok := range Tokenize(text) {
		if !slices.Contains(terms, tok.Term) {
			terms = append(terms, tok.Term)
		}
	}
	return terms
}
