package chess

// Status is the terminal state of a position, if any.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	InsufficientMaterial
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case InsufficientMaterial:
		return "insufficient material"
	}
	return "ongoing"
}

// IsTerminal reports whether the game is over.
func (s Status) IsTerminal() bool {
	return s != Ongoing
}

// IsCheck reports whether the side to move is in check.
func (p Position) IsCheck() bool {
	return p.InCheck(p.Turn)
}

// IsCheckmate reports whether the side to move is checkmated.
func (p Position) IsCheckmate() bool {
	return p.IsCheck() && !HasLegalMove(p)
}

// IsStalemate reports whether the side to move has no legal move while not in
// check.
func (p Position) IsStalemate() bool {
	return !p.IsCheck() && !HasLegalMove(p)
}

// IsInsufficientMaterial reports a dead position: bare kings, a single minor
// piece against a bare king, or one bishop each on squares of the same color.
func (p Position) IsInsufficientMaterial() bool {
	var minors [2][]Square
	for sq := A1; sq <= H8; sq++ {
		pc := p.Board[sq]
		switch pc.Type {
		case NoPieceType, King:
		case Knight, Bishop:
			minors[pc.Color] = append(minors[pc.Color], sq)
		default:
			return false
		}
	}

	w, b := minors[White], minors[Black]
	switch {
	case len(w)+len(b) <= 1:
		return true
	case len(w) == 1 && len(b) == 1:
		wb, bb := p.Board[w[0]], p.Board[b[0]]
		return wb.Type == Bishop && bb.Type == Bishop && w[0].IsLight() == b[0].IsLight()
	}
	return false
}

// Status classifies p. Checkmate and stalemate take precedence over
// insufficient material.
func (p Position) Status() Status {
	if !HasLegalMove(p) {
		if p.IsCheck() {
			return Checkmate
		}
		return Stalemate
	}
	if p.IsInsufficientMaterial() {
		return InsufficientMaterial
	}
	return Ongoing
}
