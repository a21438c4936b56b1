package chess_test

import (
	"sort"
	"testing"

	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
)

func mustParse(t testing.TB, s string) chess.Position {
	t.Helper()
	p, err := fen.Parse(s)
	if err != nil {
		t.Fatalf("fen.Parse(%q) error = %v", s, err)
	}
	return p
}

// mustMove finds the legal move with the given coordinate form.
func mustMove(t testing.TB, p chess.Position, uci string) chess.Move {
	t.Helper()
	want, err := chess.ParseMove(uci)
	if err != nil {
		t.Fatalf("ParseMove(%q) error = %v", uci, err)
	}
	for _, m := range chess.LegalMoves(p) {
		if m.Matches(want) {
			return m
		}
	}
	t.Fatalf("move %s is not legal in %s", uci, fen.String(p))
	return chess.Move{}
}

// play applies a sequence of coordinate moves, each of which must be legal.
func play(t testing.TB, p chess.Position, moves ...string) chess.Position {
	t.Helper()
	for _, uci := range moves {
		p = p.Apply(mustMove(t, p, uci))
	}
	return p
}

// uciSet renders moves as a sorted slice of coordinate strings.
func uciSet(moves []chess.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	sort.Strings(out)
	return out
}

func hasMove(moves []chess.Move, uci string) bool {
	for _, m := range moves {
		if m.String() == uci {
			return true
		}
	}
	return false
}
