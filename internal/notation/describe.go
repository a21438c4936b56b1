package notation

import (
	"strings"

	"github.com/discochess/chessassist/internal/chess"
)

var pieceNames = map[chess.PieceType]string{
	chess.Pawn:   "Pawn",
	chess.Knight: "Knight",
	chess.Bishop: "Bishop",
	chess.Rook:   "Rook",
	chess.Queen:  "Queen",
	chess.King:   "King",
}

var glyphs = map[chess.Piece]string{
	{Type: chess.King, Color: chess.White}:   "♔",
	{Type: chess.Queen, Color: chess.White}:  "♕",
	{Type: chess.Rook, Color: chess.White}:   "♖",
	{Type: chess.Bishop, Color: chess.White}: "♗",
	{Type: chess.Knight, Color: chess.White}: "♘",
	{Type: chess.Pawn, Color: chess.White}:   "♙",
	{Type: chess.King, Color: chess.Black}:   "♚",
	{Type: chess.Queen, Color: chess.Black}:  "♛",
	{Type: chess.Rook, Color: chess.Black}:   "♜",
	{Type: chess.Bishop, Color: chess.Black}: "♝",
	{Type: chess.Knight, Color: chess.Black}: "♞",
	{Type: chess.Pawn, Color: chess.Black}:   "♟",
}

// PieceName returns the English name of t, e.g. "Knight".
func PieceName(t chess.PieceType) string {
	return pieceNames[t]
}

// Glyph returns the Unicode chess symbol for pc, or "·" for an empty square.
func Glyph(pc chess.Piece) string {
	if g, ok := glyphs[pc]; ok {
		return g
	}
	return "·"
}

// Details summarises the consequences of a move.
type Details struct {
	Piece     chess.PieceType `json:"-"`
	Captured  chess.PieceType `json:"-"`
	Promotion chess.PieceType `json:"-"`
	Castle    string          `json:"castle,omitempty"` // "kingside" or "queenside"
	Check     bool            `json:"check"`
	Checkmate bool            `json:"checkmate"`
	Stalemate bool            `json:"stalemate"`
}

// Describe reports what m does in p. m must be legal in p.
func Describe(p chess.Position, m chess.Move) Details {
	d := Details{
		Piece:     p.PieceAt(m.From).Type,
		Captured:  p.PieceAt(m.To).Type,
		Promotion: m.Promotion,
	}
	if m.EnPassant {
		d.Captured = chess.Pawn
	}
	switch {
	case m.CastleKingside:
		d.Castle = "kingside"
	case m.CastleQueenside:
		d.Castle = "queenside"
	}

	next := p.Apply(m)
	d.Check = next.IsCheck()
	if !chess.HasLegalMove(next) {
		d.Checkmate = d.Check
		d.Stalemate = !d.Check
	}
	return d
}

// Notes returns short annotations such as "captures Pawn" or "checkmate".
func (d Details) Notes() []string {
	var notes []string
	if d.Castle != "" {
		notes = append(notes, d.Castle+" castle")
	}
	if d.Captured != chess.NoPieceType {
		notes = append(notes, "captures "+PieceName(d.Captured))
	}
	if d.Promotion != chess.NoPieceType {
		notes = append(notes, "promotes to "+PieceName(d.Promotion))
	}
	switch {
	case d.Checkmate:
		notes = append(notes, "checkmate")
	case d.Check:
		notes = append(notes, "check")
	case d.Stalemate:
		notes = append(notes, "stalemate")
	}
	return notes
}

// Sentence renders m in plain words, e.g. "Knight g1 → f3" or
// "Pawn e7 → e8 (promotes to Queen) captures Rook".
func Sentence(p chess.Position, m chess.Move) string {
	switch {
	case m.CastleKingside:
		return "Kingside Castle"
	case m.CastleQueenside:
		return "Queenside Castle"
	}

	d := Describe(p, m)
	var sb strings.Builder
	sb.WriteString(PieceName(d.Piece))
	sb.WriteByte(' ')
	sb.WriteString(m.From.String())
	sb.WriteString(" → ")
	sb.WriteString(m.To.String())
	if d.Promotion != chess.NoPieceType {
		sb.WriteString(" (promotes to ")
		sb.WriteString(PieceName(d.Promotion))
		sb.WriteByte(')')
	}
	if d.Captured != chess.NoPieceType {
		sb.WriteString(" captures ")
		sb.WriteString(PieceName(d.Captured))
	}
	return sb.String()
}

// Diagram draws the board with rank and file labels. With flip set the board
// is shown from Black's side.
func Diagram(p chess.Position, flip bool) string {
	files := "  a b c d e f g h"
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		r := 7 - i
		if flip {
			r = i
		}
		sb.WriteByte(byte('1' + r))
		for j := 0; j < 8; j++ {
			f := j
			if flip {
				f = 7 - j
			}
			sb.WriteByte(' ')
			sb.WriteString(Glyph(p.Board[chess.NewSquare(f, r)]))
		}
		sb.WriteByte('\n')
	}
	if flip {
		files = "  h g f e d c b a"
	}
	sb.WriteString(files)
	sb.WriteByte('\n')
	return sb.String()
}
