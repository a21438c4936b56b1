package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/notation"
)

var movesCmd = &cobra.Command{
	Use:   "moves [FEN]",
	Short: "List the legal moves in a position",
	Long: `Show the board, the game status and every legal move of a position
in SAN and coordinate notation.

Examples:
  chessassist moves
  chessassist moves "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMoves,
}

var movesFlip bool

func init() {
	movesCmd.Flags().BoolVar(&movesFlip, "flip", false, "show the board from Black's side")
	rootCmd.AddCommand(movesCmd)
}

func runMoves(cmd *cobra.Command, args []string) error {
	fenStr := fen.Start
	if len(args) == 1 {
		fenStr = args[0]
	}
	pos, err := chessassist.ParsePosition(fenStr)
	if err != nil {
		return err
	}
	printMoves(cmd.OutOrStdout(), pos, movesFlip)
	return nil
}

func printMoves(w io.Writer, pos chess.Position, flip bool) {
	fmt.Fprintln(w, notation.Diagram(pos, flip))
	fmt.Fprintf(w, "FEN:    %s\n", fen.String(pos))
	status := pos.Status().String()
	if pos.IsCheck() && !pos.IsCheckmate() {
		status += ", check"
	}
	fmt.Fprintf(w, "Turn:   %s\n", pos.Turn)
	fmt.Fprintf(w, "Status: %s\n", status)

	legal := chess.LegalMoves(pos)
	if len(legal) == 0 {
		return
	}
	items := make([]string, len(legal))
	for i, m := range legal {
		items[i] = fmt.Sprintf("%s (%s)", notation.EncodeSAN(pos, m), notation.EncodeUCI(m))
	}
	fmt.Fprintf(w, "Moves:  %d\n", len(legal))
	for i := 0; i < len(items); i += 4 {
		fmt.Fprintf(w, "  %s\n", strings.Join(items[i:min(i+4, len(items))], "  "))
	}
}
