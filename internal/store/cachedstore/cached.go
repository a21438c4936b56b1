package cachedstore

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/discochess/chessassist/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store wraps another store and caches its shards. Concurrent misses for the
// same shard share a single read of the underlying store.
type Store struct {
	underlying store.Store
	backend    Backend
	inflight   singleflight.Group
}

// New creates a cached store in front of underlying.
func New(underlying store.Store, backend Backend) *Store {
	return &Store{
		underlying: underlying,
		backend:    backend,
	}
}

// ReadShard returns a shard from the cache, reading it through on a miss.
// Callers must not modify the returned slice.
func (s *Store) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	if data, ok := s.backend.Get(shardID); ok {
		return data, nil
	}

	v, err, _ := s.inflight.Do(strconv.Itoa(shardID), func() (any, error) {
		data, err := s.underlying.ReadShard(ctx, shardID)
		if err != nil {
			return nil, err
		}
		s.backend.Set(shardID, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// ReadObject reads metadata straight from the underlying store.
func (s *Store) ReadObject(ctx context.Context, name string) ([]byte, error) {
	return s.underlying.ReadObject(ctx, name)
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}
