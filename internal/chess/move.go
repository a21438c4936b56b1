package chess

import "fmt"

// Move is a move from one square to another. The generator sets the special
// move tags so Apply never has to infer them from geometry.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType

	CastleKingside  bool
	CastleQueenside bool
	EnPassant       bool
}

// IsCastle reports whether m castles on either side.
func (m Move) IsCastle() bool {
	return m.CastleKingside || m.CastleQueenside
}

// String returns the coordinate (UCI) form, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if l := m.Promotion.Letter(); l != 0 {
		s += string(l)
	}
	return s
}

// ParseMove parses coordinate notation. The result carries no special-move
// tags; resolve it against LegalMoves to obtain them.
func ParseMove(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			m.Promotion = Queen
		case 'r':
			m.Promotion = Rook
		case 'b':
			m.Promotion = Bishop
		case 'n':
			m.Promotion = Knight
		default:
			return Move{}, fmt.Errorf("%w: unknown promotion %q", ErrInvalidMove, s[4])
		}
	}
	return m, nil
}

// Matches reports whether m and other move the same squares with the same
// promotion, ignoring tags.
func (m Move) Matches(other Move) bool {
	return m.From == other.From && m.To == other.To && m.Promotion == other.Promotion
}
