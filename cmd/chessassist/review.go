package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	notnil "github.com/notnil/chess"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/book"
	"github.com/discochess/chessassist/internal/chess"
)

var reviewCmd = &cobra.Command{
	Use:   "review FILE.pgn",
	Short: "Replay PGN games and cross-check every move",
	Long: `Replay the games of a PGN file, playing every move through the rules
engine and comparing each resulting position with an independent PGN
parser. With --book, every position is also looked up in the opening book.

Examples:
  chessassist review games.pgn
  chessassist review --games 50 --book ./book games.pgn`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

var maxGames int

func init() {
	reviewCmd.Flags().IntVar(&maxGames, "games", 10, "max games to replay (0 for all)")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var b *book.Book
	if bookLocation != "" {
		var err error
		if b, err = openBook(ctx); err != nil {
			return err
		}
		defer b.Close()
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening PGN: %w", err)
	}
	defer f.Close()

	var (
		games, mismatched int
		positions, found  int
		lookupTime        time.Duration
		hitRates          []float64
	)
	scanner := notnil.NewScanner(f)
	for (maxGames <= 0 || games < maxGames) && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := scanner.Next()
		games++
		fmt.Fprintf(out, "\n=== Game %d: %s vs %s (%s) ===\n", games,
			tagValue(ref, "White"), tagValue(ref, "Black"), tagValue(ref, "Result"))

		g, seen, err := replay(ref)
		if err != nil {
			mismatched++
			fmt.Fprintf(out, "  MISMATCH: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "  Moves: %d, every position matches (%s)\n", len(g.UCIMoves()), g.Result())

		if b == nil {
			continue
		}
		var gameFound int
		for _, pos := range seen {
			start := time.Now()
			_, err := b.Lookup(ctx, pos)
			lookupTime += time.Since(start)
			positions++
			switch {
			case err == nil:
				found++
				gameFound++
			case !errors.Is(err, book.ErrNotFound):
				return err
			}
		}
		total := len(seen)
		rate := float64(gameFound) / float64(total) * 100
		hitRates = append(hitRates, rate)
		fmt.Fprintf(out, "  Book: %d/%d positions (%.1f%%)\n", gameFound, total, rate)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading PGN: %w", err)
	}

	fmt.Fprintf(out, "\n=== Summary ===\n")
	fmt.Fprintf(out, "Games replayed: %d (%d mismatched)\n", games, mismatched)
	if positions > 0 {
		fmt.Fprintf(out, "Book positions: %d/%d (%.1f%%)\n", found, positions, float64(found)/float64(positions)*100)
		mean, std := stat.MeanStdDev(hitRates, nil)
		fmt.Fprintf(out, "Per game:       %.1f%% ± %.1f%%\n", mean, std)
		fmt.Fprintf(out, "Avg lookup:     %v\n", lookupTime/time.Duration(positions))
	}
	if mismatched > 0 {
		return fmt.Errorf("%d games did not replay cleanly", mismatched)
	}
	return nil
}

// replay plays ref's moves through a Game, comparing board, side to move
// and castling rights after each move. It returns every position reached,
// the start included.
func replay(ref *notnil.Game) (*chessassist.Game, []chess.Position, error) {
	g, err := chessassist.NewGame(startFEN(ref))
	if err != nil {
		return nil, nil, err
	}
	seen := []chess.Position{g.Position()}
	refPositions := ref.Positions()
	for i, m := range ref.Moves() {
		if _, err := g.PushUCI(m.String()); err != nil {
			return nil, nil, fmt.Errorf("move %d %s: %w", i+1, m, err)
		}
		want := strings.Fields(refPositions[i+1].String())[:3]
		got := strings.Fields(g.FEN())[:3]
		if strings.Join(want, " ") != strings.Join(got, " ") {
			return nil, nil, fmt.Errorf("after move %d %s: got %q, want %q", i+1, m, got, want)
		}
		seen = append(seen, g.Position())
	}
	if ref.Method() == notnil.Checkmate || ref.Method() == notnil.Stalemate {
		if want := ref.Outcome().String(); g.Result() != want {
			return nil, nil, fmt.Errorf("result %s, want %s", g.Result(), want)
		}
	}
	return g, seen, nil
}

func startFEN(ref *notnil.Game) string {
	if tp := ref.GetTagPair("FEN"); tp != nil {
		return tp.Value
	}
	return ""
}

func tagValue(ref *notnil.Game, key string) string {
	if tp := ref.GetTagPair(key); tp != nil {
		return tp.Value
	}
	return "?"
}
