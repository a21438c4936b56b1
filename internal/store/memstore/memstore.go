// Package memstore keeps a book in memory, for tests and small books built
// on the fly.
package memstore

import (
	"context"
	"sync"

	"github.com/discochess/chessassist/internal/store"
)

var _ store.Writer = (*Store)(nil)

// Store is an in-memory book store. Shards are kept uncompressed.
type Store struct {
	mu      sync.RWMutex
	shards  map[int][]byte
	objects map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{
		shards:  make(map[int][]byte),
		objects: make(map[string][]byte),
	}
}

// SetShard stores a copy of data as a shard.
func (s *Store) SetShard(shardID int, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shards[shardID] = append([]byte(nil), data...)
}

// Len returns the number of stored shards.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shards)
}

// ReadShard returns a shard.
func (s *Store) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.shards[shardID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

// ReadObject returns a metadata object.
func (s *Store) ReadObject(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

// WriteShard stores a copy of data as a shard.
func (s *Store) WriteShard(ctx context.Context, shardID int, data []byte) error {
	s.SetShard(shardID, data)
	return nil
}

// WriteObject stores a copy of data as a metadata object.
func (s *Store) WriteObject(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = append([]byte(nil), data...)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
