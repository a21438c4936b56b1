// Package store defines the storage backends holding book shards and
// metadata objects.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a shard or object does not exist.
var ErrNotFound = errors.New("store: not found")

// ManifestName is the object describing a book.
const ManifestName = "manifest.json"

// Store reads a book. Implementations handle paths and compression.
type Store interface {
	// ReadShard returns the decompressed content of a shard.
	ReadShard(ctx context.Context, shardID int) ([]byte, error)

	// ReadObject returns an uncompressed metadata object such as the
	// manifest.
	ReadObject(ctx context.Context, name string) ([]byte, error)

	// Close releases any resources held by the store.
	Close() error
}

// Writer is a Store that books can be built into.
type Writer interface {
	Store

	// WriteShard compresses and stores a shard, replacing any previous one.
	WriteShard(ctx context.Context, shardID int, data []byte) error

	// WriteObject stores a metadata object as is.
	WriteObject(ctx context.Context, name string, data []byte) error
}

// ShardName returns the slash-separated relative name of a shard, e.g.
// "shards/00042.zst".
func ShardName(shardID int, ext string) string {
	name := fmt.Sprintf("shards/%05d", shardID)
	if ext != "" {
		name += "." + ext
	}
	return name
}
