// Package kv wraps an embedded ordered, byte-keyed KV engine (C2).
// Each index type in an index set gets its own Store instance backed by
// a badger.DB, giving log-structured-merge write batching, prefix
// iteration in lexicographic key order, and crash-safe persistence.
package kv

import (
	"bytes"
	"errors"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/halsted/corpusql/internal/corpuserr"
)

// Store is a thin, ordered byte-keyed KV wrapper over one badger.DB.
type Store struct {
	db   *badger.DB
	path string
}

// Open opens (creating if absent) the store rooted at path.
func Open(path string, readOnly bool) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithReadOnly(readOnly)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, corpuserr.Wrap(corpuserr.StorageError, err, "open index store at %s", path)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the underlying badger.DB handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "close index store at %s", s.path)
	}
	return nil
}

// Get returns the value for key, or (nil, false, nil) if absent. A
// missing key is not an error per spec.md §4.2.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			value = append([]byte(nil), v...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, corpuserr.Wrap(corpuserr.StorageError, err, "get key %x", key)
	}
	return value, true, nil
}

// Put writes a single key/value pair.
func (s *Store) Put(key, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "put key %x", key)
	}
	return nil
}

// KV is one key/value pair for batched writes.
type KV struct {
	Key   []byte
	Value []byte
}

// BatchPut writes entries in batches of at most batchSize, committing
// each batch as one transaction. A batchSize <= 0 uses a single
// transaction for the whole slice.
func (s *Store) BatchPut(entries []KV, batchSize int) error {
	if batchSize <= 0 {
		batchSize = len(entries)
		if batchSize == 0 {
			return nil
		}
	}
	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		wb := s.db.NewWriteBatch()
		for _, kv := range entries[start:end] {
			if err := wb.Set(kv.Key, kv.Value); err != nil {
				wb.Cancel()
				return corpuserr.Wrap(corpuserr.StorageError, err, "batch put")
			}
		}
		if err := wb.Flush(); err != nil {
			return corpuserr.Wrap(corpuserr.StorageError, err, "flush batch of %d entries", end-start)
		}
		log.Debug().Int("batch_size", end-start).Msg("index store batch committed")
	}
	return nil
}

// Entry is one key/value pair returned while scanning.
type Entry struct {
	Key   []byte
	Value []byte
}

// ScanPrefix calls fn for every key with the given prefix, in
// lexicographic key order, until fn returns false or an error occurs.
func (s *Store) ScanPrefix(prefix []byte, fn func(Entry) (bool, error)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var value []byte
			if err := item.Value(func(v []byte) error {
				value = append([]byte(nil), v...)
				return nil
			}); err != nil {
				return err
			}
			cont, err := fn(Entry{Key: append([]byte(nil), item.Key()...), Value: value})
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
}

// Seek calls fn for every key >= from, in lexicographic key order,
// until fn returns false or an error occurs.
func (s *Store) Seek(from []byte, fn func(Entry) (bool, error)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(from); it.Valid(); it.Next() {
			item := it.Item()
			var value []byte
			if err := item.Value(func(v []byte) error {
				value = append([]byte(nil), v...)
				return nil
			}); err != nil {
				return err
			}
			cont, err := fn(Entry{Key: append([]byte(nil), item.Key()...), Value: value})
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
}

// HasPrefix reports whether any key with the given prefix exists.
func (s *Store) HasPrefix(prefix []byte) (bool, error) {
	found := false
	err := s.ScanPrefix(prefix, func(Entry) (bool, error) {
		found = true
		return false, nil
	})
	return found, err
}

// IsEmpty reports whether the store has no keys at all, used to honor
// the generators' preserve_existing flag (spec.md §4.3).
func (s *Store) IsEmpty() (bool, error) {
	return s.HasPrefix(nil)
}

// EncodeKey joins key components with the NUL separator spec.md §3
// uses for multi-part index keys (bigram, trigram, dependency, hypernym).
func EncodeKey(parts ...string) []byte {
	return bytes.Join(toByteSlices(parts), []byte{0x00})
}

func toByteSlices(parts []string) [][]byte {
	out := make([][]byte, len(parts))
	for i, p := range parts {
		out[i] = []byte(p)
	}
	return out
}
