// Package store persists the label/text dictionaries docmask keeps for
// reusable completion instructions and chat snippets.
//
// Two implementations are provided: an in-memory map for tests and when no
// path is configured, and an embedded bbolt database for production. The
// interface is deliberately small: one dictionary per kind, saved and
// fetched one label at a time.
package store

import (
	"fmt"
	"sort"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// Dictionary kinds. Each kind is an isolated label→text namespace.
const (
	KindInstructions = "instructions"
	KindSnippets     = "snippets"
)

var kinds = []string{KindInstructions, KindSnippets}

// Store is a label/text dictionary keyed by kind.
// All implementations must be safe for concurrent use.
type Store interface {
	// Save stores text under kind/label, silently overwriting.
	Save(kind, label, text string) error

	// Get returns the text stored under kind/label, if present.
	Get(kind, label string) (text string, ok bool, err error)

	// List returns all labels under kind, sorted.
	List(kind string) ([]string, error)

	// Delete removes kind/label. Deleting an absent label is a no-op.
	Delete(kind, label string) error

	// Close releases any resources held by the store.
	Close() error
}

func validKind(kind string) error {
	for _, k := range kinds {
		if k == kind {
			return nil
		}
	}
	return fmt.Errorf("unknown dictionary kind %q", kind)
}

// memStore is a thread-safe in-memory Store.
type memStore struct {
	mu    sync.RWMutex
	dicts map[string]map[string]string
}

// NewMemory returns an empty in-memory Store.
func NewMemory() Store {
	m := &memStore{dicts: make(map[string]map[string]string, len(kinds))}
	for _, k := range kinds {
		m.dicts[k] = make(map[string]string)
	}
	return m
}

func (s *memStore) Save(kind, label, text string) error {
	if err := validKind(kind); err != nil {
		return err
	}
	s.mu.Lock()
	s.dicts[kind][label] = text
	s.mu.Unlock()
	return nil
}

func (s *memStore) Get(kind, label string) (string, bool, error) {
	if err := validKind(kind); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	text, ok := s.dicts[kind][label]
	s.mu.RUnlock()
	return text, ok, nil
}

func (s *memStore) List(kind string) ([]string, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	s.mu.RLock()
	labels := make([]string, 0, len(s.dicts[kind]))
	for l := range s.dicts[kind] {
		labels = append(labels, l)
	}
	s.mu.RUnlock()
	sort.Strings(labels)
	return labels, nil
}

func (s *memStore) Delete(kind, label string) error {
	if err := validKind(kind); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.dicts[kind], label)
	s.mu.Unlock()
	return nil
}

func (s *memStore) Close() error { return nil }

// boltStore is a Store backed by an embedded bbolt database, one bucket
// per dictionary kind. Entries survive process restarts.
type boltStore struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path and ensures a bucket
// per dictionary kind exists.
func Open(path string) (Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, k := range kinds {
			if _, err := tx.CreateBucketIfNotExists([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close() //nolint:errcheck // best-effort close on init failure
		return nil, fmt.Errorf("create store buckets: %w", err)
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Save(kind, label, text string) error {
	if err := validKind(kind); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kind)).Put([]byte(label), []byte(text))
	})
}

func (s *boltStore) Get(kind, label string) (string, bool, error) {
	if err := validKind(kind); err != nil {
		return "", false, err
	}
	var text string
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(kind)).Get([]byte(label)); v != nil {
			text, ok = string(v), true
		}
		return nil
	})
	return text, ok, err
}

func (s *boltStore) List(kind string) ([]string, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	var labels []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kind)).ForEach(func(k, _ []byte) error {
			labels = append(labels, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(labels)
	return labels, nil
}

func (s *boltStore) Delete(kind, label string) error {
	if err := validKind(kind); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kind)).Delete([]byte(label))
	})
}

func (s *boltStore) Close() error { return s.db.Close() }
