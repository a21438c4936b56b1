package fen

import (
	"strings"

	"github.com/discochess/chessassist/internal/chess"
)

// Material represents the piece counts for both sides.
type Material struct {
	WhitePawns   int
	WhiteKnights int
	WhiteBishops int
	WhiteRooks   int
	WhiteQueens  int

	BlackPawns   int
	BlackKnights int
	BlackBishops int
	BlackRooks   int
	BlackQueens  int
}

// Normalize returns the canonical four-field form of a FEN string, used as
// the lookup key for books and caches. Move counters are dropped and the
// castling field is rewritten in KQkq order.
func Normalize(s string) (string, error) {
	p, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Key(p), nil
}

// MaterialOf counts the non-king pieces on the board.
func MaterialOf(board [64]chess.Piece) Material {
	var m Material
	for _, pc := range board {
		white := pc.Color == chess.White
		switch pc.Type {
		case chess.Pawn:
			pick(white, &m.WhitePawns, &m.BlackPawns)
		case chess.Knight:
			pick(white, &m.WhiteKnights, &m.BlackKnights)
		case chess.Bishop:
			pick(white, &m.WhiteBishops, &m.BlackBishops)
		case chess.Rook:
			pick(white, &m.WhiteRooks, &m.BlackRooks)
		case chess.Queen:
			pick(white, &m.WhiteQueens, &m.BlackQueens)
		}
	}
	return m
}

func pick(white bool, w, b *int) {
	if white {
		*w++
	} else {
		*b++
	}
}

// ParseMaterial extracts material counts from the placement field of a FEN
// string.
func ParseMaterial(s string) (Material, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Material{}, ErrInvalidFEN
	}
	board, err := ParseBoard(fields[0])
	if err != nil {
		return Material{}, err
	}
	return MaterialOf(board), nil
}

// SideToMove returns "w" or "b" from a FEN string.
func SideToMove(s string) (string, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return "", ErrInvalidFEN
	}
	if fields[1] != "w" && fields[1] != "b" {
		return "", ErrInvalidFEN
	}
	return fields[1], nil
}
