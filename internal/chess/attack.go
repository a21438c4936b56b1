package chess

// offset is a (file, rank) step.
type offset struct{ df, dr int }

var (
	knightJumps = [8]offset{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8]offset{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	diagonals   = [4]offset{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
	orthogonals = [4]offset{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
)

// step returns the square reached from s by o, or NoSquare off the board.
func (s Square) step(o offset) Square {
	return NewSquare(s.File()+o.df, s.Rank()+o.dr)
}

// forward is the rank direction pawns of color c advance in.
func forward(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

// IsAttacked reports whether any piece of color by attacks sq.
func (p Position) IsAttacked(sq Square, by Color) bool {
	// A pawn of color by attacks sq from one rank behind it.
	pawn := Piece{Type: Pawn, Color: by}
	for _, df := range [2]int{-1, 1} {
		if from := NewSquare(sq.File()+df, sq.Rank()-forward(by)); from != NoSquare && p.Board[from] == pawn {
			return true
		}
	}

	knight := Piece{Type: Knight, Color: by}
	for _, o := range knightJumps {
		if from := sq.step(o); from != NoSquare && p.Board[from] == knight {
			return true
		}
	}

	if p.rayHits(sq, by, diagonals[:], Bishop) || p.rayHits(sq, by, orthogonals[:], Rook) {
		return true
	}

	king := Piece{Type: King, Color: by}
	for _, o := range kingSteps {
		if from := sq.step(o); from != NoSquare && p.Board[from] == king {
			return true
		}
	}
	return false
}

// rayHits walks each direction from sq to the first occupied square and
// reports whether it holds a slider of color by (the given type or a queen).
func (p Position) rayHits(sq Square, by Color, dirs []offset, slider PieceType) bool {
	for _, o := range dirs {
		for to := sq.step(o); to != NoSquare; to = to.step(o) {
			pc := p.Board[to]
			if pc.IsEmpty() {
				continue
			}
			if pc.Color == by && (pc.Type == slider || pc.Type == Queen) {
				return true
			}
			break
		}
	}
	return false
}

// InCheck reports whether c's king is attacked. A side without a king is
// never in check.
func (p Position) InCheck(c Color) bool {
	k := p.KingSquare(c)
	if k == NoSquare {
		return false
	}
	return p.IsAttacked(k, c.Other())
}
