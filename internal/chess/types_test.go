package chess_test

import (
	"errors"
	"testing"

	"github.com/discochess/chessassist/internal/chess"
)

func TestParseSquare(t *testing.T) {
	tests := []struct {
		input   string
		want    chess.Square
		wantErr bool
	}{
		{input: "a1", want: chess.A1},
		{input: "a4", want: chess.NewSquare(0, 3)},
		{input: "e4", want: chess.E4},
		{input: "h8", want: chess.H8},
		{input: "i1", wantErr: true},
		{input: "a9", wantErr: true},
		{input: "a0", wantErr: true},
		{input: "A1", wantErr: true},
		{input: "e", wantErr: true},
		{input: "e44", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := chess.ParseSquare(tt.input)
			if tt.wantErr {
				if !errors.Is(err, chess.ErrInvalidSquare) {
					t.Errorf("ParseSquare(%q) error = %v, want ErrInvalidSquare", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSquare(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSquare(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestSquare_FileRank(t *testing.T) {
	sq := chess.NewSquare(0, 3)
	if sq.File() != 0 || sq.Rank() != 3 {
		t.Errorf("File/Rank = %d/%d, want 0/3", sq.File(), sq.Rank())
	}
	if chess.NewSquare(8, 0) != chess.NoSquare || chess.NewSquare(0, -1) != chess.NoSquare {
		t.Error("NewSquare off the board should return NoSquare")
	}
	if chess.NoSquare.String() != "-" {
		t.Errorf("NoSquare.String() = %q, want -", chess.NoSquare.String())
	}
	if chess.A1.IsLight() || !chess.H1.IsLight() {
		t.Error("a1 should be dark and h1 light")
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		input   string
		want    chess.Move
		wantErr bool
	}{
		{input: "e2e4", want: chess.Move{From: chess.E2, To: chess.E4}},
		{input: "e7e8q", want: chess.Move{From: chess.E7, To: chess.E8, Promotion: chess.Queen}},
		{input: "a2a1n", want: chess.Move{From: chess.A2, To: chess.A1, Promotion: chess.Knight}},
		{input: "e2e", wantErr: true},
		{input: "e7e8qq", wantErr: true},
		{input: "e7e8k", wantErr: true},
		{input: "e7e8Q", wantErr: true},
		{input: "z2e4", wantErr: true},
		{input: "e2e9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := chess.ParseMove(tt.input)
			if tt.wantErr {
				if !errors.Is(err, chess.ErrInvalidMove) {
					t.Errorf("ParseMove(%q) error = %v, want ErrInvalidMove", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMove(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMove(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestCastlingRights_String(t *testing.T) {
	tests := []struct {
		rights chess.CastlingRights
		want   string
	}{
		{chess.NoCastling, "-"},
		{chess.AllCastling, "KQkq"},
		{chess.WhiteQueenside | chess.BlackKingside, "Qk"},
		{chess.BlackQueenside, "q"},
	}
	for _, tt := range tests {
		if got := tt.rights.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPieceFromLetter(t *testing.T) {
	for _, l := range []byte("PNBRQKpnbrqk") {
		pc, ok := chess.PieceFromLetter(l)
		if !ok {
			t.Fatalf("PieceFromLetter(%q) not ok", l)
		}
		if pc.Letter() != l {
			t.Errorf("Letter() = %q, want %q", pc.Letter(), l)
		}
	}
	if _, ok := chess.PieceFromLetter('x'); ok {
		t.Error("PieceFromLetter('x') should fail")
	}
}
