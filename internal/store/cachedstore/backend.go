// Package cachedstore keeps recently read book shards in memory in front of
// a slower store.
package cachedstore

// Backend holds cached shards and decides what to evict.
type Backend interface {
	// Get returns a cached shard, or false if it is not cached.
	Get(shardID int) ([]byte, bool)

	// Set caches a shard.
	Set(shardID int, data []byte)

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// HitRate returns the percentage of reads served from the cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
