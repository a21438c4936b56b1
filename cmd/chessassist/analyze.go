package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/notation"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [FEN]",
	Short: "Recommend a move for a position",
	Long: `Recommend a move for a position given as FEN, or read from a screenshot
with --image.

Without a FEN or --image the standard starting position is analysed.

Examples:
  # After 1.e4
  chessassist analyze "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"

  # From a screenshot, playing Black, with an explanation
  chessassist analyze --image board.png --color black --explain

  # Machine-readable output
  chessassist analyze --json "8/8/8/8/8/5k2/7q/5K2 b - - 0 1"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var (
	imagePath   string
	colorName   string
	explain     bool
	analyzeJSON bool
	multiPV     int
)

func init() {
	analyzeCmd.Flags().StringVar(&imagePath, "image", "", "screenshot of the board to analyse")
	analyzeCmd.Flags().StringVar(&colorName, "color", "white", "colour you play in the screenshot: white or black")
	analyzeCmd.Flags().BoolVar(&explain, "explain", false, "ask the vision model to explain the move")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the analysis as JSON")
	analyzeCmd.Flags().IntVar(&multiPV, "multipv", 1, "number of engine lines to report")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if imagePath != "" && len(args) > 0 {
		return fmt.Errorf("give either a FEN or --image, not both")
	}
	playingAs, err := chessassist.ParseColor(colorName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := newClient(ctx, clientConfig{
		engine:       true,
		vision:       imagePath != "",
		explanations: explain,
		multiPV:      multiPV,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	var a *chessassist.Analysis
	if imagePath != "" {
		img, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
		a, err = client.AnalyzeImage(ctx, img, mediaTypeOf(imagePath, img), playingAs)
		if err != nil {
			return err
		}
	} else {
		fenStr := fen.Start
		if len(args) == 1 {
			fenStr = args[0]
		}
		if a, err = client.Analyze(ctx, fenStr); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	return printAnalysis(out, a, imagePath != "" && playingAs == chessassist.Black)
}

// mediaTypeOf guesses the image type from the extension, then the content.
func mediaTypeOf(path string, data []byte) string {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(mt, "image/") {
		return mt
	}
	return http.DetectContentType(data)
}

func printAnalysis(w io.Writer, a *chessassist.Analysis, flip bool) error {
	pos, err := chessassist.ParsePosition(a.FEN)
	if err != nil {
		return err
	}
	player, _ := chessassist.ParseColor(a.SideToMove)

	fmt.Fprintln(w, notation.Diagram(pos, flip))
	fmt.Fprintf(w, "FEN:       %s\n", a.FEN)
	fmt.Fprintf(w, "Best move: %s (%s)\n", a.SAN, a.BestMove)
	fmt.Fprintf(w, "           %s\n", a.Description)
	if len(a.Notes) > 0 {
		fmt.Fprintf(w, "Notes:     %s\n", strings.Join(a.Notes, ", "))
	}
	fmt.Fprintf(w, "Eval:      %s (depth %d, %s", a.Eval.Score(), a.Eval.Depth, a.Source)
	if a.Cached {
		fmt.Fprint(w, ", cached")
	}
	fmt.Fprintln(w, ")")
	fmt.Fprintf(w, "Summary:   %s\n", a.Summary(player))
	for i, pv := range a.Eval.PVs {
		fmt.Fprintf(w, "Line %d:    %s\n", i+1, pv.String())
	}
	if a.Explanation != "" {
		fmt.Fprintf(w, "\n%s\n", a.Explanation)
	}
	if verbose {
		fmt.Fprintf(w, "Time:      %s\n", a.Elapsed)
	}
	return nil
}
