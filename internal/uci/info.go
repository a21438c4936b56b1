package uci

import (
	"fmt"
	"time"

	"github.com/notnil/chess"
	protocol "github.com/notnil/chess/uci"
)

// Score is an engine evaluation from the side to move's point of view.
type Score struct {
	// Centipawns is valid when Mate is zero.
	Centipawns int
	// Mate is the distance to mate in moves: positive when the side to move
	// mates, negative when it is mated.
	Mate int
}

// IsMate reports whether the score is a forced mate.
func (s Score) IsMate() bool { return s.Mate != 0 }

// Negate flips the point of view.
func (s Score) Negate() Score {
	return Score{Centipawns: -s.Centipawns, Mate: -s.Mate}
}

// String renders "+1.25", "-0.40", "#3" or "#-2".
func (s Score) String() string {
	if s.IsMate() {
		return fmt.Sprintf("#%d", s.Mate)
	}
	return fmt.Sprintf("%+.2f", float64(s.Centipawns)/100)
}

// Info is the final report of one principal variation.
type Info struct {
	Depth    int
	MultiPV  int
	Score    Score
	HasScore bool
	Nodes    uint64
	Time     time.Duration
	// PV is the line in coordinate notation, starting with the move searched.
	PV []string
}

// lineInfo converts the library's last report for a search whose best move
// was best. Engines occasionally end on a report without a principal
// variation; the line then falls back to best and ponder.
func lineInfo(multiPV int, sr protocol.SearchResults) Info {
	li := sr.Info
	info := Info{
		Depth:   li.Depth,
		MultiPV: multiPV,
		Nodes:   uint64(max(li.Nodes, 0)),
		Time:    li.Time,
		PV:      moveStrings(li.PV),
	}
	best := sr.BestMove.String()
	if len(info.PV) > 0 && info.PV[0] == best {
		info.HasScore = true
		info.Score = Score{Centipawns: li.Score.CP, Mate: li.Score.Mate}
		return info
	}
	info.PV = []string{best}
	if sr.Ponder != nil {
		info.PV = append(info.PV, sr.Ponder.String())
	}
	return info
}

func moveStrings(moves []*chess.Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		if m != nil {
			out = append(out, m.String())
		}
	}
	return out
}
