package chess_test

import (
	"errors"
	"testing"

	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
)

func TestFoolsMate(t *testing.T) {
	p := play(t, chess.StartingPosition(), "f2f3", "e7e5", "g2g4", "d8h4")

	if !p.IsCheckmate() {
		t.Fatalf("IsCheckmate() = false for %s", fen.String(p))
	}
	if p.IsStalemate() {
		t.Error("IsStalemate() = true for a checkmate")
	}
	if got := p.Status(); got != chess.Checkmate {
		t.Errorf("Status() = %v, want checkmate", got)
	}
	if !p.Status().IsTerminal() {
		t.Error("checkmate should be terminal")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want chess.Status
	}{
		{"start", fen.Start, chess.Ongoing},
		{"check is not mate", "r1bqkb1r/pppp1Bpp/2n2n2/4p3/4P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 0 4", chess.Ongoing},
		{"back rank mate", "3R2k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", chess.Checkmate},
		{"queen stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", chess.Stalemate},
		{"bare kings", "8/8/8/4k3/8/8/4K3/8 w - - 0 1", chess.InsufficientMaterial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, tt.fen)
			if got := p.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsInsufficientMaterial(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want bool
	}{
		{"king vs king", "8/8/8/4k3/8/8/4K3/8 w - - 0 1", true},
		{"king and knight vs king", "8/8/8/4k3/8/8/4K3/1N6 w - - 0 1", true},
		{"king vs king and bishop", "8/8/2b5/4k3/8/8/4K3/8 b - - 0 1", true},
		{"bishops on same color", "5b2/8/8/4k3/8/8/4K3/2B5 w - - 0 1", true},
		{"bishops on opposite colors", "2b5/8/8/4k3/8/8/4K3/2B5 w - - 0 1", false},
		{"two knights", "8/8/8/4k3/8/8/4K3/1NN5 w - - 0 1", false},
		{"knight each", "8/8/5n2/4k3/8/8/4K3/1N6 w - - 0 1", false},
		{"rook", "8/8/8/4k3/8/8/4K3/R7 w - - 0 1", false},
		{"pawn", "8/8/8/4k3/8/8/4KP2/8 w - - 0 1", false},
		{"starting position", fen.Start, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustParse(t, tt.fen).IsInsufficientMaterial(); got != tt.want {
				t.Errorf("IsInsufficientMaterial() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAttacked(t *testing.T) {
	p := mustParse(t, "4k3/8/8/3p4/8/2N5/8/R3K3 w - - 0 1")
	tests := []struct {
		sq   chess.Square
		by   chess.Color
		want bool
	}{
		{chess.C4, chess.Black, true},  // pawn d5
		{chess.E4, chess.Black, true},  // pawn d5
		{chess.D4, chess.Black, false}, // pawns do not attack straight ahead
		{chess.D5, chess.White, true},  // knight c3
		{chess.A8, chess.White, true},  // rook a1 up the file
		{chess.H1, chess.White, false}, // rook ray blocked by the king
		{chess.D2, chess.White, true},  // king e1
		{chess.D7, chess.Black, true},  // king e8
		{chess.E7, chess.White, false},
	}
	for _, tt := range tests {
		if got := p.IsAttacked(tt.sq, tt.by); got != tt.want {
			t.Errorf("IsAttacked(%s, %v) = %v, want %v", tt.sq, tt.by, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		wantErr error
	}{
		{"start", fen.Start, nil},
		{"missing black king", "8/8/8/8/8/8/8/4K3 w - - 0 1", chess.ErrMissingKing},
		{"two white kings", "4k3/8/8/8/8/8/8/3KK3 w - - 0 1", chess.ErrTooManyKings},
		{"pawn on eighth rank", "P3k3/8/8/8/8/8/8/4K3 w - - 0 1", chess.ErrPawnOnBackRank},
		{"pawn on first rank", "4k3/8/8/8/8/8/8/p3K3 w - - 0 1", chess.ErrPawnOnBackRank},
		{"side not to move in check", "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1", chess.ErrOpponentInCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := chess.Validate(mustParse(t, tt.fen))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
