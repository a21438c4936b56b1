// Package materialshard groups positions by material balance.
//
// Positions from one game change material rarely, so a game replayed against
// the book touches few shards and the shard cache stays warm.
package materialshard

import (
	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/shard"
)

// Strategy implements material sharding.
type Strategy struct{}

var _ shard.Strategy = (*Strategy)(nil)

// New creates a material sharding strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns "material".
func (s *Strategy) Name() string {
	return "material"
}

// ShardID packs piece counts into an ID:
//
//	bits 0-2   white queens
//	bits 3-5   black queens
//	bits 6-8   white rooks
//	bits 9-11  black rooks
//	bits 12-14 white minor pieces
//	bits 15-17 black minor pieces
//	bit  18    black to move
//
// Each count saturates at 7. The result is reduced modulo totalShards.
func (s *Strategy) ShardID(p chess.Position, totalShards int) int {
	m := fen.MaterialOf(p.Board)

	var id uint32
	id |= sat(m.WhiteQueens) << 0
	id |= sat(m.BlackQueens) << 3
	id |= sat(m.WhiteRooks) << 6
	id |= sat(m.BlackRooks) << 9
	id |= sat(m.WhiteBishops+m.WhiteKnights) << 12
	id |= sat(m.BlackBishops+m.BlackKnights) << 15
	if p.Turn == chess.Black {
		id |= 1 << 18
	}
	return int(id % uint32(totalShards))
}

func sat(n int) uint32 {
	return uint32(min(n, 7))
}
