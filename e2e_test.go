//go:build e2e

package chessassist_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/uci"
)

// startStockfish starts the engine found by uci.Locate or skips the test.
func startStockfish(t *testing.T, opts ...uci.Option) *uci.Engine {
	t.Helper()
	path, err := uci.Locate("")
	if errors.Is(err, uci.ErrEngineNotFound) {
		t.Skipf("Skipping: %v", err)
	}
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	eng, err := uci.Start(ctx, path, opts...)
	if err != nil {
		t.Fatalf("Start(%s) error = %v", path, err)
	}
	t.Logf("engine: %s", eng.Name())
	return eng
}

func TestE2E_Stockfish(t *testing.T) {
	eng := startStockfish(t, uci.WithMultiPV(3))
	client, err := chessassist.New(
		chessassist.WithEngine(eng),
		chessassist.WithDepth(12),
		chessassist.WithCache(16, time.Minute),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	tests := []struct {
		name     string
		fen      string
		wantMove string
		wantMate bool
	}{
		{"start", fen.Start, "", false},
		{"mate in one", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", true},
		{"black to move", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			start := time.Now()
			a, err := client.Analyze(ctx, tt.fen)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			t.Logf("%s %s (%s) in %v", a.BestMove, a.SAN, a.Eval.Score(), time.Since(start))

			if tt.wantMove != "" && a.BestMove != tt.wantMove {
				t.Errorf("BestMove = %s, want %s", a.BestMove, tt.wantMove)
			}
			if a.Eval.IsMate() != tt.wantMate {
				t.Errorf("IsMate() = %v, want %v", a.Eval.IsMate(), tt.wantMate)
			}
			if len(a.Eval.PVs) == 0 || len(a.Eval.PVs) > 3 {
				t.Errorf("got %d PVs, want 1 to 3", len(a.Eval.PVs))
			}
			if a.Source != chessassist.SourceEngine {
				t.Errorf("Source = %s, want engine", a.Source)
			}

			// Repeated analysis is served from the cache.
			again, err := client.Analyze(ctx, tt.fen)
			if err != nil {
				t.Fatalf("second Analyze() error = %v", err)
			}
			if !again.Cached || again.BestMove != a.BestMove {
				t.Errorf("second Analyze() = %s cached=%v, want %s from cache", again.BestMove, again.Cached, a.BestMove)
			}
		})
	}
}

func TestE2E_GameOver(t *testing.T) {
	eng := startStockfish(t)
	client, err := chessassist.New(chessassist.WithEngine(eng), chessassist.WithDepth(8))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	mated := "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	if _, err := client.Analyze(context.Background(), mated); !errors.Is(err, chessassist.ErrGameOver) {
		t.Errorf("Analyze(checkmated) error = %v, want ErrGameOver", err)
	}
}
