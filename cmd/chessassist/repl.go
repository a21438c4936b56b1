package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/uci"
)

const replPrompt = "FEN>>> "

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive analysis session",
	Long: `Start an interactive session. Enter a FEN to analyse it and make it the
current position, or one of the commands below.

Commands:
  <FEN>          analyse the position and continue from it
  analyze        analyse the current position
  moves          list the legal moves
  play <move>    play a move in SAN or coordinate notation
  undo           take back the last move
  history        show the moves played
  pgn            print the game as PGN
  new            go back to the starting position
  quit           leave`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runREPL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx, clientConfig{engine: true})
	if errors.Is(err, uci.ErrEngineNotFound) {
		logger.Warn("no engine found; analysis is unavailable")
		client, err = chessassist.New(chessassist.WithLogger(logger))
	}
	if err != nil {
		return err
	}
	defer client.Close()

	r := &repl{client: client, out: cmd.OutOrStdout()}
	r.game, _ = chessassist.NewGame("")
	return r.run(cmd, bufio.NewScanner(cmd.InOrStdin()))
}

type repl struct {
	client *chessassist.Client
	game   *chessassist.Game
	out    io.Writer
}

func (r *repl) run(cmd *cobra.Command, in *bufio.Scanner) error {
	fmt.Fprintln(r.out, "Enter a FEN or a command (help for the list).")
	for {
		fmt.Fprint(r.out, replPrompt)
		if !in.Scan() {
			fmt.Fprintln(r.out)
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if err := cmd.Context().Err(); err != nil {
			return nil
		}

		word, rest, _ := strings.Cut(line, " ")
		switch strings.ToLower(word) {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(r.out, cmd.Long)
		case "moves":
			printMoves(r.out, r.game.Position(), false)
		case "play":
			if rest == "" {
				fmt.Fprintln(r.out, "usage: play <move>")
				continue
			}
			if _, err := r.game.Play(strings.TrimSpace(rest)); err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(r.out, "%s  (%s)\n", r.game.FormatHistory(), r.game.Status())
		case "undo":
			if !r.game.Undo() {
				fmt.Fprintln(r.out, "nothing to undo")
				continue
			}
			fmt.Fprintln(r.out, r.game.FEN())
		case "history":
			fmt.Fprintln(r.out, r.game.FormatHistory())
		case "pgn":
			fmt.Fprint(r.out, r.game.PGN(nil))
		case "new":
			r.game, _ = chessassist.NewGame("")
			fmt.Fprintln(r.out, r.game.FEN())
		case "analyze", "best":
			r.analyze(cmd, r.game.FEN())
		default:
			if !strings.Contains(line, "/") {
				fmt.Fprintf(r.out, "unknown command %q\n", word)
				continue
			}
			g, err := chessassist.NewGame(line)
			if err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
				continue
			}
			r.game = g
			r.analyze(cmd, g.FEN())
		}
	}
}

func (r *repl) analyze(cmd *cobra.Command, fenStr string) {
	a, err := r.client.Analyze(cmd.Context(), fenStr)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	printAnalysis(r.out, a, false)
}
