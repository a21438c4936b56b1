// Package fnvshard spreads positions uniformly by hashing their lookup key.
//
// It gives no locality between related positions and is mostly useful as a
// baseline against material sharding.
package fnvshard

import (
	"hash/fnv"

	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/shard"
)

// Strategy implements FNV-1a hash sharding.
type Strategy struct{}

var _ shard.Strategy = (*Strategy)(nil)

// New creates an FNV sharding strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns "fnv32".
func (s *Strategy) Name() string {
	return "fnv32"
}

// ShardID hashes the position's lookup key.
func (s *Strategy) ShardID(p chess.Position, totalShards int) int {
	h := fnv.New32a()
	h.Write([]byte(fen.LookupKey(p)))
	return int(h.Sum32() % uint32(totalShards))
}
