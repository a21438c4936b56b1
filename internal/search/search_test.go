package search

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var shard = []byte(`{"fen":"8/8/8/4k3/8/8/4K3/4R3 w - -","evals":[{"pvs":[{"cp":500,"line":"e1e2 e5d4"}],"knodes":1000,"depth":20}]}
{"fen":"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq -","evals":[{"pvs":[{"cp":25,"line":"f1b5 a7a6"}],"knodes":2000,"depth":25}]}

{"fen":"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -","evals":[{"pvs":[{"cp":18,"line":"e2e4"}],"knodes":900,"depth":18},{"pvs":[{"cp":20,"line":"e2e4 e7e5"},{"cp":15,"line":"d2d4 d7d5"}],"knodes":3000,"depth":30}]}
`)

func TestSearch(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantCP  int
		wantErr error
	}{
		{"first line", "8/8/8/4k3/8/8/4K3/4R3 w - -", 500, nil},
		{"middle line", "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq -", 25, nil},
		{"last line after blank", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -", 20, nil},
		{"before all", "1k6/8/8/8/8/8/8/K7 w - -", 0, ErrNotFound},
		{"after all", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e3", 0, ErrNotFound},
		{"prefix of existing", "8/8/8/4k3/8/8/4K3/4R3 w", 0, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Search(shard, tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Search() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			best, ok := rec.Best()
			if !ok {
				t.Fatal("Best() found nothing")
			}
			if got := *best.PVs[0].CP; got != tt.wantCP {
				t.Errorf("best CP = %d, want %d", got, tt.wantCP)
			}
		})
	}
}

func TestSearch_EmptyData(t *testing.T) {
	if _, err := Search(nil, "8/8/8/8/8/8/8/K6k w - -"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Search(nil) error = %v, want ErrNotFound", err)
	}
}

func TestRecord_Best(t *testing.T) {
	rec, err := Search(shard, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
	if err != nil {
		t.Fatal(err)
	}
	best, _ := rec.Best()
	if best.Depth != 30 || len(best.PVs) != 2 {
		t.Errorf("Best() = depth %d with %d lines, want depth 30 with 2", best.Depth, len(best.PVs))
	}
	if diff := cmp.Diff([]string{"e2e4", "e7e5"}, best.PVs[0].Moves()); diff != "" {
		t.Errorf("Moves() mismatch (-want +got):\n%s", diff)
	}

	if _, ok := (&Record{Evals: []Eval{{Depth: 5}}}).Best(); ok {
		t.Error("Best() accepted an evaluation without lines")
	}
}

func TestSort(t *testing.T) {
	lines := [][]byte{
		[]byte(`{"fen":"c","evals":[]}`),
		[]byte(`{"fen":"a","evals":[]}`),
		[]byte(`{"fen":"b","evals":[]}`),
	}
	Sort(lines)
	var got []string
	for _, l := range lines {
		got = append(got, ExtractFEN(l))
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("Sort() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractFEN(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`{"fen":"8/8/8/8/8/8/8/K6k w - -","evals":[]}`, "8/8/8/8/8/8/8/K6k w - -"},
		{`{"evals":[],"fen":"x"}`, "x"},
		{`{"evals":[]}`, ""},
		{`{"fen":"unterminated`, ""},
	}
	for _, tt := range tests {
		if got := ExtractFEN([]byte(tt.line)); got != tt.want {
			t.Errorf("ExtractFEN(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func BenchmarkSearch(b *testing.B) {
	var data []byte
	for i := 0; i < 10000; i++ {
		data = append(data, fmt.Sprintf(`{"fen":"%08d w - -","evals":[{"pvs":[{"cp":%d,"line":"e2e4"}],"knodes":1,"depth":1}]}`+"\n", i, i)...)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Search(data, "00005000 w - -"); err != nil {
			b.Fatal(err)
		}
	}
}
