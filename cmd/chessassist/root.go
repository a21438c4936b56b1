package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags.
	enginePath   string
	depth        int
	bookLocation string
	envFile      string
	verbose      bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "chessassist",
	Short: "Find the best move in a chess position",
	Long: `chessassist recommends moves for chess positions given as FEN or as a
screenshot of a board, using a UCI engine such as Stockfish and an optional
opening book built from the Lichess evaluation database.

The engine is found with --engine, $STOCKFISH_PATH or the usual install
locations. Screenshots are read by a vision model authenticated with
$ANTHROPIC_API_KEY. Both variables may be set in a .env file.

Examples:
  # Best move after 1.e4
  chessassist analyze "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"

  # Best move from a screenshot, playing Black
  chessassist analyze --image board.png --color black

  # Interactive session
  chessassist repl`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&enginePath, "engine", "e", "", "UCI engine binary (default: $STOCKFISH_PATH or stockfish on PATH)")
	rootCmd.PersistentFlags().IntVar(&depth, "depth", 15, "engine search depth")
	rootCmd.PersistentFlags().StringVarP(&bookLocation, "book", "b", "", "opening book: directory, s3://bucket/prefix or gs://bucket/prefix")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file of environment variables to load if present")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}
