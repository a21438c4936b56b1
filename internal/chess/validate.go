package chess

import (
	"errors"
	"fmt"
)

var (
	ErrMissingKing     = errors.New("chess: missing king")
	ErrTooManyKings    = errors.New("chess: more than one king")
	ErrPawnOnBackRank  = errors.New("chess: pawn on first or last rank")
	ErrOpponentInCheck = errors.New("chess: side not to move is in check")
)

// Validate reports positions that cannot arise in a game. The move generator
// does not require a valid position; this is for inputs from outside, such as
// a board read from an image, before they reach an engine.
func Validate(p Position) error {
	for _, c := range [2]Color{White, Black} {
		switch n := p.Count(King, c); {
		case n == 0:
			return fmt.Errorf("%w: %s", ErrMissingKing, c)
		case n > 1:
			return fmt.Errorf("%w: %s has %d", ErrTooManyKings, c, n)
		}
	}
	for f := 0; f < 8; f++ {
		for _, r := range [2]int{0, 7} {
			if sq := NewSquare(f, r); p.Board[sq].Type == Pawn {
				return fmt.Errorf("%w: %s", ErrPawnOnBackRank, sq)
			}
		}
	}
	if p.InCheck(p.Turn.Other()) {
		return fmt.Errorf("%w: %s", ErrOpponentInCheck, p.Turn.Other())
	}
	return nil
}
