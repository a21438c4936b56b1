package fen

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/discochess/chessassist/internal/chess"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, p chess.Position)
	}{
		{
			name:  "starting position",
			input: Start,
			check: func(t *testing.T, p chess.Position) {
				if diff := cmp.Diff(chess.StartingPosition(), p); diff != "" {
					t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:  "en passant target and black to move",
			input: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			check: func(t *testing.T, p chess.Position) {
				if p.Turn != chess.Black {
					t.Errorf("Turn = %v, want black", p.Turn)
				}
				if p.EnPassant != chess.E3 {
					t.Errorf("EnPassant = %v, want e3", p.EnPassant)
				}
				if got := p.PieceAt(chess.E4); got != (chess.Piece{Type: chess.Pawn, Color: chess.White}) {
					t.Errorf("PieceAt(e4) = %+v, want white pawn", got)
				}
			},
		},
		{
			name:  "counters default when absent",
			input: "8/8/8/4k3/8/8/4K3/8 w - -",
			check: func(t *testing.T, p chess.Position) {
				if p.HalfmoveClock != 0 || p.FullmoveNumber != 1 {
					t.Errorf("counters = %d/%d, want 0/1", p.HalfmoveClock, p.FullmoveNumber)
				}
			},
		},
		{
			name:  "partial castling rights in any order",
			input: "r3k2r/8/8/8/8/8/8/R3K2R w qK - 3 17",
			check: func(t *testing.T, p chess.Position) {
				if want := chess.WhiteKingside | chess.BlackQueenside; p.Castling != want {
					t.Errorf("Castling = %v, want %v", p.Castling, want)
				}
				if p.HalfmoveClock != 3 || p.FullmoveNumber != 17 {
					t.Errorf("counters = %d/%d, want 3/17", p.HalfmoveClock, p.FullmoveNumber)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"too few fields", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq"},
		{"too many fields", Start + " extra"},
		{"seven ranks", "rnbqkbnr/pppppppp/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"nine ranks", "rnbqkbnr/pppppppp/8/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"short rank", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"long rank", "rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"rank overflow by digits", "rnbqkbnr/pppppppp/44p/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"unknown piece", "rnbxkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad side to move", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1"},
		{"bad castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkx - 0 1"},
		{"bad en passant", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e9 0 1"},
		{"en passant on rank 3 with white to move", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e3 0 1"},
		{"en passant on rank 6 with black to move", "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e6 0 2"},
		{"en passant on rank 4", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e4 0 1"},
		{"bad halfmove", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1"},
		{"negative fullmove", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, ErrInvalidFEN) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidFEN", tt.input, err)
			}
		})
	}
}

func TestString_RoundTrip(t *testing.T) {
	fens := []string{
		Start,
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		"r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 b - - 99 120",
	}

	for _, s := range fens {
		t.Run(s, func(t *testing.T) {
			p, err := Parse(s)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := String(p); got != s {
				t.Errorf("String() = %q, want %q", got, s)
			}
			again, err := Parse(String(p))
			if err != nil {
				t.Fatalf("Parse(String()) error = %v", err)
			}
			if again != p {
				t.Errorf("Parse(String(p)) != p")
			}
		})
	}
}

func TestString_ReachablePositions(t *testing.T) {
	// Walk a few plies of the move tree and check every position survives
	// a render/parse round trip.
	var walk func(p chess.Position, depth int)
	walk = func(p chess.Position, depth int) {
		got, err := Parse(String(p))
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", String(p), err)
		}
		if got != p {
			t.Fatalf("round trip changed position %q", String(p))
		}
		if depth == 0 {
			return
		}
		for _, m := range chess.LegalMoves(p) {
			walk(p.Apply(m), depth-1)
		}
	}
	walk(chess.StartingPosition(), 3)
}

func TestString_CanonicalDefaults(t *testing.T) {
	p, err := Parse("8/8/8/4k3/8/8/4K3/8 w - -")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, want := String(p), "8/8/8/4k3/8/8/4K3/8 w - - 0 1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseBoard(t *testing.T) {
	board, err := ParseBoard("8/8/8/3k4/8/8/8/R3K3")
	if err != nil {
		t.Fatalf("ParseBoard() error = %v", err)
	}
	want := map[chess.Square]chess.Piece{
		chess.D5: {Type: chess.King, Color: chess.Black},
		chess.A1: {Type: chess.Rook, Color: chess.White},
		chess.E1: {Type: chess.King, Color: chess.White},
	}
	for sq := chess.A1; sq <= chess.H8; sq++ {
		if board[sq] != want[sq] {
			t.Errorf("square %s = %+v, want %+v", sq, board[sq], want[sq])
		}
	}
	if got := BoardString(board); got != "8/8/8/3k4/8/8/8/R3K3" {
		t.Errorf("BoardString() = %q", got)
	}
}

func BenchmarkParse(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Parse(Start)
	}
}
