// Package shard defines how book positions are spread across shard files.
package shard

import "github.com/discochess/chessassist/internal/chess"

// Strategy maps positions to shard IDs.
type Strategy interface {
	// Name identifies the strategy in book manifests.
	Name() string

	// ShardID returns the shard holding p, in [0, totalShards). Positions
	// that differ only in move counters or in an unusable en passant square
	// must map to the same shard.
	ShardID(p chess.Position, totalShards int) int
}
