package chessassist

import (
	"fmt"
	"slices"
	"strings"

	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/notation"
)

// MoveRecord is one entry of a game's history.
type MoveRecord struct {
	Move       chess.Move
	SAN        string
	UCI        string
	FENBefore  string
	MoveNumber int
	Color      Color
}

// Game is a sequence of moves played from a starting position. It is not
// safe for concurrent use.
type Game struct {
	positions []chess.Position
	moves     []chess.Move
	sans      []string
}

// NewGame starts a game from the position given as FEN, or from the
// standard starting position when fenStr is empty.
func NewGame(fenStr string) (*Game, error) {
	start := chess.StartingPosition()
	if fenStr != "" {
		var err error
		if start, err = ParsePosition(fenStr); err != nil {
			return nil, err
		}
	}
	return &Game{positions: []chess.Position{start}}, nil
}

// Position returns the current position.
func (g *Game) Position() chess.Position {
	return g.positions[len(g.positions)-1]
}

// FEN returns the current position as FEN.
func (g *Game) FEN() string {
	return fen.String(g.Position())
}

// Status reports whether the game is over.
func (g *Game) Status() chess.Status {
	return g.Position().Status()
}

// Push plays m, which must be legal in the current position.
func (g *Game) Push(m chess.Move) error {
	pos := g.Position()
	if st := pos.Status(); st.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrGameOver, st)
	}
	legal := chess.LegalMoves(pos)
	i := slices.IndexFunc(legal, m.Matches)
	if i < 0 {
		return fmt.Errorf("%w: %s", notation.ErrIllegalMove, m)
	}
	m = legal[i]
	g.sans = append(g.sans, notation.EncodeSAN(pos, m))
	g.moves = append(g.moves, m)
	g.positions = append(g.positions, pos.Apply(m))
	return nil
}

// PushUCI plays a move in coordinate notation.
func (g *Game) PushUCI(s string) (chess.Move, error) {
	m, err := notation.DecodeUCI(g.Position(), s)
	if err != nil {
		return chess.Move{}, err
	}
	return m, g.Push(m)
}

// PushSAN plays a move in SAN.
func (g *Game) PushSAN(s string) (chess.Move, error) {
	m, err := notation.DecodeSAN(g.Position(), s)
	if err != nil {
		return chess.Move{}, err
	}
	return m, g.Push(m)
}

// Play plays a move in either coordinate notation or SAN.
func (g *Game) Play(s string) (chess.Move, error) {
	m, err := ParseMove(g.Position(), s)
	if err != nil {
		return chess.Move{}, err
	}
	return m, g.Push(m)
}

// Undo takes back the last move. It reports false at the start of the game.
func (g *Game) Undo() bool {
	if len(g.moves) == 0 {
		return false
	}
	g.positions = g.positions[:len(g.positions)-1]
	g.moves = g.moves[:len(g.moves)-1]
	g.sans = g.sans[:len(g.sans)-1]
	return true
}

// History returns the moves played so far in SAN.
func (g *Game) History() []string {
	return slices.Clone(g.sans)
}

// Records returns the history with the position each move was played from.
func (g *Game) Records() []MoveRecord {
	out := make([]MoveRecord, len(g.moves))
	for i, m := range g.moves {
		before := g.positions[i]
		out[i] = MoveRecord{
			Move:       m,
			SAN:        g.sans[i],
			UCI:        notation.EncodeUCI(m),
			FENBefore:  fen.String(before),
			MoveNumber: before.FullmoveNumber,
			Color:      before.Turn,
		}
	}
	return out
}

// UCIMoves returns the moves played so far in coordinate notation.
func (g *Game) UCIMoves() []string {
	out := make([]string, len(g.moves))
	for i, m := range g.moves {
		out[i] = notation.EncodeUCI(m)
	}
	return out
}

// FormatHistory numbers the moves, e.g. "1. e4 e5 2. Nf3".
func (g *Game) FormatHistory() string {
	return notation.MoveText(g.positions[0], g.sans)
}

// Result returns the PGN result token for the current position.
func (g *Game) Result() string {
	pos := g.Position()
	switch pos.Status() {
	case chess.Checkmate:
		if pos.Turn == chess.White {
			return "0-1"
		}
		return "1-0"
	case chess.Stalemate, chess.InsufficientMaterial:
		return "1/2-1/2"
	}
	return "*"
}

var sevenTagRoster = []string{"Event", "Site", "Date", "Round", "White", "Black", "Result"}

// PGN exports the game. The seven standard tags come first, defaulting to
// "?", followed by any other tags in name order. Games that do not start
// from the standard position carry SetUp and FEN tags.
func (g *Game) PGN(tags map[string]string) string {
	all := make(map[string]string, len(tags)+2)
	for k, v := range tags {
		all[k] = v
	}
	all["Result"] = g.Result()
	if start := g.positions[0]; start != chess.StartingPosition() {
		all["SetUp"] = "1"
		all["FEN"] = fen.String(start)
	}

	var sb strings.Builder
	for _, name := range sevenTagRoster {
		v, ok := all[name]
		if !ok {
			v = "?"
		}
		writeTag(&sb, name, v)
		delete(all, name)
	}
	rest := make([]string, 0, len(all))
	for k := range all {
		rest = append(rest, k)
	}
	slices.Sort(rest)
	for _, k := range rest {
		writeTag(&sb, k, all[k])
	}
	sb.WriteByte('\n')

	text := notation.MoveText(g.positions[0], g.sans)
	if text != "" {
		text += " "
	}
	sb.WriteString(wrap(text+g.Result(), 79))
	sb.WriteByte('\n')
	return sb.String()
}

func writeTag(sb *strings.Builder, name, value string) {
	value = strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	fmt.Fprintf(sb, "[%s \"%s\"]\n", name, value)
}

// wrap breaks text at spaces so no line exceeds width.
func wrap(text string, width int) string {
	var sb strings.Builder
	n := 0
	for i, word := range strings.Fields(text) {
		if i > 0 {
			if n+1+len(word) > width {
				sb.WriteByte('\n')
				n = 0
			} else {
				sb.WriteByte(' ')
				n++
			}
		}
		sb.WriteString(word)
		n += len(word)
	}
	return sb.String()
}
