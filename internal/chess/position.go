package chess

// Position is a complete game state. It is a value type: assigning or passing
// a Position copies the board, so no two positions ever share storage.
type Position struct {
	Board          [64]Piece
	Turn           Color
	Castling       CastlingRights
	EnPassant      Square
	HalfmoveClock  int
	FullmoveNumber int
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StartingPosition returns the standard initial position.
func StartingPosition() Position {
	p := Position{
		Turn:           White,
		Castling:       AllCastling,
		EnPassant:      NoSquare,
		FullmoveNumber: 1,
	}
	for f := 0; f < 8; f++ {
		p.Board[NewSquare(f, 0)] = Piece{Type: backRank[f], Color: White}
		p.Board[NewSquare(f, 1)] = Piece{Type: Pawn, Color: White}
		p.Board[NewSquare(f, 6)] = Piece{Type: Pawn, Color: Black}
		p.Board[NewSquare(f, 7)] = Piece{Type: backRank[f], Color: Black}
	}
	return p
}

// PieceAt returns the piece on sq, or NoPiece.
func (p Position) PieceAt(sq Square) Piece {
	if !sq.Valid() {
		return NoPiece
	}
	return p.Board[sq]
}

// KingSquare returns the square of c's king, or NoSquare if it has none.
func (p Position) KingSquare(c Color) Square {
	king := Piece{Type: King, Color: c}
	for sq := A1; sq <= H8; sq++ {
		if p.Board[sq] == king {
			return sq
		}
	}
	return NoSquare
}

// Count returns how many pieces of type t and color c are on the board.
func (p Position) Count(t PieceType, c Color) int {
	want := Piece{Type: t, Color: c}
	n := 0
	for _, pc := range p.Board {
		if pc == want {
			n++
		}
	}
	return n
}

// homeRank is the back rank of color c.
func homeRank(c Color) int {
	if c == White {
		return 0
	}
	return 7
}
