package chess

// rightsCleared maps a square to the castling rights lost when a piece moves
// from or onto it: the king and rook home squares.
var rightsCleared = func() [64]CastlingRights {
	var t [64]CastlingRights
	t[E1] = WhiteKingside | WhiteQueenside
	t[H1] = WhiteKingside
	t[A1] = WhiteQueenside
	t[E8] = BlackKingside | BlackQueenside
	t[H8] = BlackKingside
	t[A8] = BlackQueenside
	return t
}()

// Apply returns the position after m. m must be one of LegalMoves(p); the
// result for any other move is unspecified. p itself is left untouched.
func (p Position) Apply(m Move) Position {
	next := p
	mover := p.Board[m.From]
	captured := p.Board[m.To]

	next.Board[m.From] = NoPiece
	switch {
	case m.IsCastle():
		next.Board[m.To] = mover
		rank := m.From.Rank()
		cs := castleSides[0]
		if m.CastleQueenside {
			cs = castleSides[1]
		}
		rookFrom, rookTo := NewSquare(cs.rookFile, rank), NewSquare(cs.rookTo, rank)
		next.Board[rookTo] = next.Board[rookFrom]
		next.Board[rookFrom] = NoPiece
	case m.EnPassant:
		next.Board[m.To] = mover
		victim := NewSquare(m.To.File(), m.From.Rank())
		captured = next.Board[victim]
		next.Board[victim] = NoPiece
	case m.Promotion != NoPieceType:
		next.Board[m.To] = Piece{Type: m.Promotion, Color: mover.Color}
	default:
		next.Board[m.To] = mover
	}

	if mover.Type == King {
		next.Castling &^= kingsideRight(mover.Color) | queensideRight(mover.Color)
	}
	if m.From.Valid() {
		next.Castling &^= rightsCleared[m.From]
	}
	if m.To.Valid() {
		next.Castling &^= rightsCleared[m.To]
	}

	next.EnPassant = NoSquare
	if mover.Type == Pawn {
		if d := m.To.Rank() - m.From.Rank(); d == 2 || d == -2 {
			next.EnPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
		}
	}

	if mover.Type == Pawn || !captured.IsEmpty() {
		next.HalfmoveClock = 0
	} else {
		next.HalfmoveClock++
	}
	if p.Turn == Black {
		next.FullmoveNumber++
	}
	next.Turn = p.Turn.Other()
	return next
}
