package chess

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(p Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := LegalMoves(p)
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		nodes += Perft(p.Apply(m), depth-1)
	}
	return nodes
}

// DivideEntry is the perft count below a single root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// Divide runs Perft separately below every root move.
func Divide(p Position, depth int) []DivideEntry {
	if depth <= 0 {
		return nil
	}
	moves := LegalMoves(p)
	entries := make([]DivideEntry, len(moves))
	for i, m := range moves {
		entries[i] = DivideEntry{Move: m, Nodes: Perft(p.Apply(m), depth-1)}
	}
	return entries
}
