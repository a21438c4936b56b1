package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/notation"
)

var perftCmd = &cobra.Command{
	Use:   "perft [FEN]",
	Short: "Count the nodes of the legal move tree",
	Long: `Count the leaf nodes of the legal move tree to a fixed depth, the
standard check of a move generator. With --divide the count is split by root
move; with --runs the search is repeated and timed.

Examples:
  chessassist perft --depth 5
  chessassist perft --depth 3 --divide "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPerft,
}

var (
	perftDepth  int
	perftDivide bool
	perftRuns   int
)

func init() {
	perftCmd.Flags().IntVar(&perftDepth, "depth", 4, "search depth in plies")
	perftCmd.Flags().BoolVar(&perftDivide, "divide", false, "show the count below each root move")
	perftCmd.Flags().IntVar(&perftRuns, "runs", 1, "number of timed runs")
	rootCmd.AddCommand(perftCmd)
}

func runPerft(cmd *cobra.Command, args []string) error {
	fenStr := fen.Start
	if len(args) == 1 {
		fenStr = args[0]
	}
	pos, err := chessassist.ParsePosition(fenStr)
	if err != nil {
		return err
	}
	if perftDepth < 1 {
		return fmt.Errorf("depth must be at least 1")
	}
	out := cmd.OutOrStdout()

	if perftDivide {
		entries := chess.Divide(pos, perftDepth)
		slices.SortFunc(entries, func(a, b chess.DivideEntry) int {
			return strings.Compare(notation.EncodeUCI(a.Move), notation.EncodeUCI(b.Move))
		})
		var total uint64
		for _, e := range entries {
			fmt.Fprintf(out, "%s: %d\n", notation.EncodeUCI(e.Move), e.Nodes)
			total += e.Nodes
		}
		fmt.Fprintf(out, "\nMoves: %d\nNodes: %d\n", len(entries), total)
		return nil
	}

	runs := max(perftRuns, 1)
	seconds := make([]float64, 0, runs)
	var nodes uint64
	for i := 0; i < runs; i++ {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		start := time.Now()
		nodes = chess.Perft(pos, perftDepth)
		elapsed := time.Since(start)
		seconds = append(seconds, elapsed.Seconds())
		if verbose {
			fmt.Fprintf(out, "run %d: %s\n", i+1, elapsed)
		}
	}

	fmt.Fprintf(out, "Depth: %d\n", perftDepth)
	fmt.Fprintf(out, "Nodes: %d\n", nodes)
	printTimings(out, seconds, nodes)
	return nil
}

func printTimings(w io.Writer, seconds []float64, nodes uint64) {
	mean, std := stat.MeanStdDev(seconds, nil)
	if len(seconds) == 1 {
		std = 0
	}
	sorted := slices.Clone(seconds)
	slices.Sort(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	fmt.Fprintf(w, "Time:  mean %s, median %s, stddev %s over %d run(s)\n",
		seconds2dur(mean), seconds2dur(median), seconds2dur(std), len(seconds))
	if mean > 0 {
		fmt.Fprintf(w, "NPS:   %.0f\n", float64(nodes)/mean)
	}
}

func seconds2dur(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond)
}
