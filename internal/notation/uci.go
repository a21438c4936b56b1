// Package notation renders and parses moves for engines and people:
// coordinate (UCI) notation, Standard Algebraic Notation and plain-English
// descriptions.
package notation

import (
	"errors"
	"fmt"

	"github.com/discochess/chessassist/internal/chess"
)

var (
	// ErrIllegalMove indicates a well-formed move that is not legal in the
	// given position.
	ErrIllegalMove = errors.New("notation: illegal move")

	// ErrAmbiguousMove indicates SAN text that matches more than one legal
	// move.
	ErrAmbiguousMove = errors.New("notation: ambiguous move")
)

// EncodeUCI returns the coordinate form of m.
func EncodeUCI(m chess.Move) string {
	return m.String()
}

// DecodeUCI parses coordinate notation and resolves it against the legal
// moves of p, so the returned move carries castling and en passant tags.
func DecodeUCI(p chess.Position, s string) (chess.Move, error) {
	want, err := chess.ParseMove(s)
	if err != nil {
		return chess.Move{}, err
	}
	for _, m := range chess.LegalMoves(p) {
		if m.Matches(want) {
			return m, nil
		}
	}
	return chess.Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, s)
}

// DecodeUCILine decodes a sequence of coordinate moves played in order from
// p, returning the moves and the final position.
func DecodeUCILine(p chess.Position, line []string) ([]chess.Move, chess.Position, error) {
	moves := make([]chess.Move, 0, len(line))
	for i, s := range line {
		m, err := DecodeUCI(p, s)
		if err != nil {
			return moves, p, fmt.Errorf("move %d: %w", i+1, err)
		}
		moves = append(moves, m)
		p = p.Apply(m)
	}
	return moves, p, nil
}
