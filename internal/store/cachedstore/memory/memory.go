// Package memory implements an in-memory LRU shard cache.
package memory

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/chessassist/internal/stats"
	"github.com/discochess/chessassist/internal/store/cachedstore"
)

var _ cachedstore.Backend = (*Backend)(nil)

// DefaultCapacity is the number of shards kept when no capacity is given.
const DefaultCapacity = 64

// Backend is a thread-safe LRU cache of shards.
type Backend struct {
	cache     *lru.Cache[int, []byte]
	collector stats.Collector

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a backend holding at most capacity shards. The collector may
// be nil.
func New(capacity int, collector stats.Collector) (*Backend, error) {
	b := &Backend{collector: stats.OrNoop(collector)}
	cache, err := lru.NewWithEvict(capacity, func(int, []byte) {
		b.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("memory: capacity %d: %w", capacity, err)
	}
	b.cache = cache
	return b, nil
}

// Get returns a cached shard.
func (b *Backend) Get(shardID int) ([]byte, bool) {
	if data, ok := b.cache.Get(shardID); ok {
		b.hits.Add(1)
		b.collector.IncCounter(stats.MetricCacheHits, 1)
		return data, true
	}
	b.misses.Add(1)
	b.collector.IncCounter(stats.MetricCacheMisses, 1)
	return nil, false
}

// Set caches a shard, evicting the least recently used one when full.
func (b *Backend) Set(shardID int, data []byte) {
	b.cache.Add(shardID, data)
	b.collector.SetGauge(stats.MetricCacheSize, int64(b.cache.Len()))
}

// Stats returns current cache statistics.
func (b *Backend) Stats() cachedstore.Stats {
	return cachedstore.Stats{
		Hits:      b.hits.Load(),
		Misses:    b.misses.Load(),
		Evictions: b.evictions.Load(),
		Size:      b.cache.Len(),
	}
}
