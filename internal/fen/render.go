package fen

import (
	"strconv"
	"strings"

	"github.com/discochess/chessassist/internal/chess"
)

// String encodes p as a six-field FEN string.
func String(p chess.Position) string {
	var sb strings.Builder
	sb.Grow(90)
	writePrefix(&sb, p)
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfmoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullmoveNumber))
	return sb.String()
}

// BoardString encodes only the piece placement field.
func BoardString(board [64]chess.Piece) string {
	var sb strings.Builder
	writeBoard(&sb, board)
	return sb.String()
}

// Key encodes the first four fields of p, the part that identifies a
// position independent of move counters.
func Key(p chess.Position) string {
	var sb strings.Builder
	writePrefix(&sb, p)
	return sb.String()
}

// LookupKey is Key with the en passant square kept only when an en passant
// capture is actually legal, so positions reached by a double pawn push match
// evaluation databases that omit unusable targets.
func LookupKey(p chess.Position) string {
	if p.EnPassant != chess.NoSquare && !hasEnPassantCapture(p) {
		p.EnPassant = chess.NoSquare
	}
	return Key(p)
}

func hasEnPassantCapture(p chess.Position) bool {
	for _, m := range chess.LegalMoves(p) {
		if m.EnPassant {
			return true
		}
	}
	return false
}

func writePrefix(sb *strings.Builder, p chess.Position) {
	writeBoard(sb, p.Board)
	if p.Turn == chess.White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}
	sb.WriteString(p.Castling.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
}

func writeBoard(sb *strings.Builder, board [64]chess.Piece) {
	for r := 7; r >= 0; r-- {
		empty := 0
		for f := 0; f < 8; f++ {
			pc := board[chess.NewSquare(f, r)]
			if pc.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pc.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r > 0 {
			sb.WriteByte('/')
		}
	}
}
