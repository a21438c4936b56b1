package chess

// generator appends the pseudo-legal moves of the piece on from.
type generator func(p *Position, from Square, moves []Move) []Move

// generators dispatches on piece type. The set is fixed at six.
var generators = [...]generator{
	Pawn:   genPawn,
	Knight: genKnight,
	Bishop: genBishop,
	Rook:   genRook,
	Queen:  genQueen,
	King:   genKing,
}

// LegalMoves returns every legal move for the side to move. The order is
// unspecified. p is not modified.
func LegalMoves(p Position) []Move {
	pseudo := PseudoLegalMoves(p)
	legal := pseudo[:0]
	for _, m := range pseudo {
		if !leavesKingAttacked(p, m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// PseudoLegalMoves returns the moves permitted by piece movement rules,
// including those that leave the mover's king attacked.
func PseudoLegalMoves(p Position) []Move {
	moves := make([]Move, 0, 48)
	for sq := A1; sq <= H8; sq++ {
		pc := p.Board[sq]
		if pc.IsEmpty() || pc.Color != p.Turn {
			continue
		}
		moves = generators[pc.Type](&p, sq, moves)
	}
	return moves
}

// leavesKingAttacked applies m to a copy of p and tests the mover's king.
func leavesKingAttacked(p Position, m Move) bool {
	next := p.Apply(m)
	return next.InCheck(p.Turn)
}

// HasLegalMove reports whether the side to move has at least one legal move.
func HasLegalMove(p Position) bool {
	for _, m := range PseudoLegalMoves(p) {
		if !leavesKingAttacked(p, m) {
			return true
		}
	}
	return false
}

func genPawn(p *Position, from Square, moves []Move) []Move {
	us := p.Board[from].Color
	dir := forward(us)
	lastRank := 7
	startRank := 1
	if us == Black {
		lastRank, startRank = 0, 6
	}

	add := func(to Square, ep bool) {
		if to.Rank() == lastRank {
			for _, t := range PromotionTypes {
				moves = append(moves, Move{From: from, To: to, Promotion: t})
			}
			return
		}
		moves = append(moves, Move{From: from, To: to, EnPassant: ep})
	}

	if one := NewSquare(from.File(), from.Rank()+dir); one != NoSquare && p.Board[one].IsEmpty() {
		add(one, false)
		if from.Rank() == startRank {
			if two := NewSquare(from.File(), from.Rank()+2*dir); p.Board[two].IsEmpty() {
				add(two, false)
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		to := NewSquare(from.File()+df, from.Rank()+dir)
		if to == NoSquare {
			continue
		}
		if target := p.Board[to]; !target.IsEmpty() && target.Color != us {
			add(to, false)
		} else if to == p.EnPassant && target.IsEmpty() &&
			p.Board[NewSquare(to.File(), from.Rank())] == (Piece{Type: Pawn, Color: us.Other()}) {
			add(to, true)
		}
	}
	return moves
}

func genKnight(p *Position, from Square, moves []Move) []Move {
	return p.genSteps(from, knightJumps[:], moves)
}

func genBishop(p *Position, from Square, moves []Move) []Move {
	return p.genRays(from, diagonals[:], moves)
}

func genRook(p *Position, from Square, moves []Move) []Move {
	return p.genRays(from, orthogonals[:], moves)
}

func genQueen(p *Position, from Square, moves []Move) []Move {
	moves = p.genRays(from, diagonals[:], moves)
	return p.genRays(from, orthogonals[:], moves)
}

func genKing(p *Position, from Square, moves []Move) []Move {
	moves = p.genSteps(from, kingSteps[:], moves)
	return p.genCastles(from, moves)
}

// genSteps emits single-step moves onto empty or enemy squares.
func (p *Position) genSteps(from Square, steps []offset, moves []Move) []Move {
	us := p.Board[from].Color
	for _, o := range steps {
		to := from.step(o)
		if to == NoSquare {
			continue
		}
		if target := p.Board[to]; target.IsEmpty() || target.Color != us {
			moves = append(moves, Move{From: from, To: to})
		}
	}
	return moves
}

// genRays emits sliding moves, stopping at the first occupied square and
// including it only when it holds an enemy piece.
func (p *Position) genRays(from Square, dirs []offset, moves []Move) []Move {
	us := p.Board[from].Color
	for _, o := range dirs {
		for to := from.step(o); to != NoSquare; to = to.step(o) {
			target := p.Board[to]
			if target.IsEmpty() {
				moves = append(moves, Move{From: from, To: to})
				continue
			}
			if target.Color != us {
				moves = append(moves, Move{From: from, To: to})
			}
			break
		}
	}
	return moves
}

// castleSide describes the fixed squares of one castling move.
type castleSide struct {
	kingside bool
	rookFile int
	kingTo   int   // file the king lands on
	rookTo   int   // file the rook lands on
	empty    []int // files strictly between king and rook
	safe     []int // files the king stands on, crosses or lands on
}

var castleSides = [2]castleSide{
	{kingside: true, rookFile: 7, kingTo: 6, rookTo: 5, empty: []int{5, 6}, safe: []int{4, 5, 6}},
	{kingside: false, rookFile: 0, kingTo: 2, rookTo: 3, empty: []int{1, 2, 3}, safe: []int{4, 3, 2}},
}

func (cs castleSide) right(c Color) CastlingRights {
	if cs.kingside {
		return kingsideRight(c)
	}
	return queensideRight(c)
}

func (p *Position) genCastles(from Square, moves []Move) []Move {
	us := p.Board[from].Color
	rank := homeRank(us)
	if from != NewSquare(4, rank) {
		return moves
	}
	them := us.Other()
	rook := Piece{Type: Rook, Color: us}

next:
	for _, cs := range castleSides {
		if !p.Castling.Has(cs.right(us)) || p.Board[NewSquare(cs.rookFile, rank)] != rook {
			continue
		}
		for _, f := range cs.empty {
			if !p.Board[NewSquare(f, rank)].IsEmpty() {
				continue next
			}
		}
		for _, f := range cs.safe {
			if p.IsAttacked(NewSquare(f, rank), them) {
				continue next
			}
		}
		moves = append(moves, Move{
			From:            from,
			To:              NewSquare(cs.kingTo, rank),
			CastleKingside:  cs.kingside,
			CastleQueenside: !cs.kingside,
		})
	}
	return moves
}
