// Package indexset implements the index-set manager (C4): it opens the
// family of on-disk indexes and synonym tables for one named corpus and
// exposes typed lookups, guaranteeing a single shared open handle per
// store per process.
package indexset

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/internal/kv"
	"github.com/halsted/corpusql/internal/synonym"
	"github.com/halsted/corpusql/internal/temporal"
)

// Type names one of the eight on-disk index directories spec.md §3/§6
// defines.
type Type string

const (
	Unigram    Type = "unigram"
	Bigram     Type = "bigram"
	Trigram    Type = "trigram"
	Dependency Type = "dependency"
	NERDate    Type = "ner_date"
	POS        Type = "pos"
	Hypernym   Type = "hypernym"
	Stitch     Type = "stitch"
)

// AllTypes lists every index directory in a fixed, deterministic order.
var AllTypes = []Type{Unigram, Bigram, Trigram, Dependency, NERDate, POS, Hypernym, Stitch}

// state is the index-set handle's lifecycle (spec.md §4.12).
type state int

const (
	stateClosed state = iota
	stateOpening
	stateOpen
	stateClosing
)

// Set is an opened, named family of indexes plus the synonym tables
// that back the stitch index. All queries require it to be Open.
type Set struct {
	Name string
	root string

	mu     sync.RWMutex
	state  state
	stores map[Type]*kv.Store
	syn    map[synonym.Kind]*synonym.Table

	temporalOnce sync.Once
	temporalIdx  *temporal.Index
	temporalErr  error
	temporalInit func() (*temporal.Index, error)
}

// Dir returns the directory holding the named index set under root.
func Dir(root, name string) string { return filepath.Join(root, name) }

// Open opens every index directory under <root>/<name>/ plus the
// synonym tables under <root>/<name>/stitch/. readOnly should be true
// for every query-serving caller; only an index builder opens
// read-write (spec.md §5: index builds are single-writer).
func Open(root, name string, readOnly bool, temporalInit func() (*temporal.Index, error)) (*Set, error) {
	s := &Set{
		Name:         name,
		root:         Dir(root, name),
		state:        stateOpening,
		stores:       map[Type]*kv.Store{},
		syn:          map[synonym.Kind]*synonym.Table{},
		temporalInit: temporalInit,
	}

	for _, t := range AllTypes {
		store, err := kv.Open(filepath.Join(s.root, string(t)), readOnly)
		if err != nil {
			s.closeOpened()
			return nil, corpuserr.Wrap(corpuserr.StorageError, err, "open index %s/%s", name, t)
		}
		s.stores[t] = store
	}

	for _, k := range []synonym.Kind{synonym.KindDate, synonym.KindNER, synonym.KindPOS, synonym.KindDependency} {
		table, err := synonym.Load(filepath.Join(s.root, string(Stitch), k.FileName()))
		if err != nil {
			s.closeOpened()
			return nil, err
		}
		s.syn[k] = table
	}

	s.state = stateOpen
	return s, nil
}

func (s *Set) closeOpened() {
	for _, store := range s.stores {
		_ = store.Close()
	}
}

// Get returns the opened store for an index type, or a SchemaError if
// the set somehow lacks it (spec.md §4.10: referring to an absent
// index is a fatal query error).
func (s *Set) Get(t Type) (*kv.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateOpen {
		return nil, corpuserr.New(corpuserr.StorageError, "index set %s is not open", s.Name)
	}
	store, ok := s.stores[t]
	if !ok {
		return nil, corpuserr.New(corpuserr.SchemaError, "index set %s has no %s index", s.Name, t)
	}
	return store, nil
}

// All returns every opened store, keyed by type.
func (s *Set) All() map[Type]*kv.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Type]*kv.Store, len(s.stores))
	for t, store := range s.stores {
		out[t] = store
	}
	return out
}

// Synonyms returns the read-only synonym table for kind.
func (s *Set) Synonyms(k synonym.Kind) (*synonym.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.syn[k]
	if !ok {
		return nil, corpuserr.New(corpuserr.SchemaError, "index set %s has no %s synonym table", s.Name, k)
	}
	return t, nil
}

// Temporal lazily builds and caches the Nash temporal index (C6) for
// the lifetime of this handle, guarded by a one-shot initializer
// (spec.md §4.6, §5).
func (s *Set) Temporal() (*temporal.Index, error) {
	if s.temporalInit == nil {
		return nil, corpuserr.New(corpuserr.SchemaError, "index set %s has no temporal initializer configured", s.Name)
	}
	s.temporalOnce.Do(func() {
		s.temporalIdx, s.temporalErr = s.temporalInit()
	})
	return s.temporalIdx, s.temporalErr
}

// Close closes every opened store. Safe to call once; a second call is
// a no-op.
func (s *Set) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed || s.state == stateClosing {
		return nil
	}
	s.state = stateClosing
	var firstErr error
	for t, store := range s.stores {
		if err := store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", t, err)
		}
	}
	s.state = stateClosed
	return firstErr
}
