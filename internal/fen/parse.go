// Package fen converts between chess positions and Forsyth-Edwards Notation.
package fen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/discochess/chessassist/internal/chess"
)

// ErrInvalidFEN indicates the FEN string is malformed.
var ErrInvalidFEN = errors.New("fen: invalid FEN notation")

// Start is the standard starting position.
const Start = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Parse decodes a FEN string. At least the first four fields (placement, side
// to move, castling, en passant) are required; the halfmove clock and fullmove
// number default to 0 and 1.
func Parse(s string) (chess.Position, error) {
	fields := strings.Fields(s)
	if len(fields) < 4 {
		return chess.Position{}, fmt.Errorf("%w: want at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}
	if len(fields) > 6 {
		return chess.Position{}, fmt.Errorf("%w: want at most 6 fields, got %d", ErrInvalidFEN, len(fields))
	}

	board, err := ParseBoard(fields[0])
	if err != nil {
		return chess.Position{}, err
	}
	p := chess.Position{
		Board:          board,
		EnPassant:      chess.NoSquare,
		FullmoveNumber: 1,
	}

	switch fields[1] {
	case "w":
		p.Turn = chess.White
	case "b":
		p.Turn = chess.Black
	default:
		return chess.Position{}, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	if p.Castling, err = parseCastling(fields[2]); err != nil {
		return chess.Position{}, err
	}

	if fields[3] != "-" {
		sq, err := chess.ParseSquare(fields[3])
		if err != nil {
			return chess.Position{}, fmt.Errorf("%w: en passant %q", ErrInvalidFEN, fields[3])
		}
		// The target lies behind a pawn that just advanced two squares.
		wantRank := 5
		if p.Turn == chess.Black {
			wantRank = 2
		}
		if sq.Rank() != wantRank {
			return chess.Position{}, fmt.Errorf("%w: en passant %q with %s to move", ErrInvalidFEN, fields[3], fields[1])
		}
		p.EnPassant = sq
	}

	if len(fields) > 4 {
		if p.HalfmoveClock, err = parseCounter(fields[4]); err != nil {
			return chess.Position{}, err
		}
	}
	if len(fields) > 5 {
		if p.FullmoveNumber, err = parseCounter(fields[5]); err != nil {
			return chess.Position{}, err
		}
	}
	return p, nil
}

// ParseBoard decodes the piece placement field alone: eight ranks from rank 8
// down to rank 1, separated by slashes, each summing to exactly eight files.
func ParseBoard(placement string) ([64]chess.Piece, error) {
	var board [64]chess.Piece
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return board, fmt.Errorf("%w: want 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for i, rank := range ranks {
		r := 7 - i
		file := 0
		for j := 0; j < len(rank); j++ {
			ch := rank[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc, ok := chess.PieceFromLetter(ch)
			if !ok {
				return board, fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, ch)
			}
			if file < 8 {
				board[chess.NewSquare(file, r)] = pc
			}
			file++
		}
		if file != 8 {
			return board, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, r+1, file)
		}
	}
	return board, nil
}

func parseCastling(s string) (chess.CastlingRights, error) {
	if s == "-" {
		return chess.NoCastling, nil
	}
	var c chess.CastlingRights
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'K':
			c |= chess.WhiteKingside
		case 'Q':
			c |= chess.WhiteQueenside
		case 'k':
			c |= chess.BlackKingside
		case 'q':
			c |= chess.BlackQueenside
		default:
			return 0, fmt.Errorf("%w: castling %q", ErrInvalidFEN, s)
		}
	}
	return c, nil
}

func parseCounter(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: counter %q", ErrInvalidFEN, s)
	}
	return n, nil
}
