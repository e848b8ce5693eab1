// Package kvtree is the data structure layer the server talks to: a
// byte-key, byte-value store backed by the extendiblehash container.
package kvtree

import (
	"fmt"
	"log/slog"

	"github.com/arvsh/lynxdb/extendiblehash"
)

// KeyedStore is the interface dbserver drives.
type KeyedStore interface {
	Get(key []byte) ([]byte, error)
	Insert(key []byte, value []byte) error
	Delete(key []byte) error
	Close() error
}

// HashStore is a KeyedStore over extendiblehash.Table. It replaces the
// teacher's placeholder map-backed HashMap with the project's own
// generic hash table, keyed on the string form of the request bytes.
type HashStore struct {
	table *extendiblehash.Table[string, []byte]
}

// NewHashStore builds an empty store with the given bucket size.
func NewHashStore(bucketSize int) *HashStore {
	return &HashStore{
		table: extendiblehash.New[string, []byte](bucketSize, extendiblehash.HashString()),
	}
}

func (s *HashStore) Get(key []byte) ([]byte, error) {
	value, ok := s.table.Find(string(key))
	if !ok {
		slog.Info("key not found", "key", string(key))
		return nil, fmt.Errorf("kvtree: key not found")
	}
	return value, nil
}

func (s *HashStore) Insert(key []byte, value []byte) error {
	slog.Info("inserting", "key", string(key))
	s.table.Insert(string(key), value)
	return nil
}

func (s *HashStore) Delete(key []byte) error {
	if !s.table.Remove(string(key)) {
		return fmt.Errorf("kvtree: key not found")
	}
	return nil
}

func (s *HashStore) Close() error {
	return nil
}
