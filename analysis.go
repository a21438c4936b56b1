package chessassist

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/notation"
)

// Source says where an analysis came from.
type Source string

const (
	SourceEngine Source = "engine"
	SourceBook   Source = "book"
)

// Analysis is a recommended move with its evaluation.
type Analysis struct {
	ID         string `json:"id"`
	FEN        string `json:"fen"`
	SideToMove string `json:"side_to_move"`

	// BestMove is the recommendation in coordinate notation, SAN its
	// algebraic form and Description a plain sentence such as
	// "Knight g1 → f3 captures Pawn".
	BestMove    string   `json:"best_move"`
	SAN         string   `json:"san"`
	Description string   `json:"description"`
	Notes       []string `json:"notes,omitempty"`
	Ponder      string   `json:"ponder,omitempty"`

	Eval        Eval   `json:"eval"`
	Explanation string `json:"explanation,omitempty"`

	Source  Source        `json:"source"`
	Cached  bool          `json:"cached,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Eval is a position evaluation.
type Eval struct {
	// Depth is the search depth used to compute this evaluation.
	Depth int `json:"depth"`

	// Knodes is the number of kilo-nodes searched.
	Knodes int `json:"knodes"`

	// PVs contains all principal variations, best first.
	PVs []PV `json:"pvs"`
}

// PV represents a principal variation (line of play).
type PV struct {
	// Centipawns is the evaluation in centipawns from White's perspective.
	// Nil if the position has a forced mate.
	Centipawns *int `json:"cp,omitempty"`

	// Mate is the number of moves until checkmate: positive when White
	// mates, negative when Black does. Nil if there is no forced mate.
	Mate *int `json:"mate,omitempty"`

	// Line is the sequence of moves in coordinate notation and SAN its
	// algebraic form. SAN stops early if the line turns illegal.
	Line []string `json:"line"`
	SAN  []string `json:"san"`
}

func newPV(pos chess.Position, cp, mate *int, line []string) PV {
	san, _ := notation.SANLine(pos, line)
	return PV{Centipawns: cp, Mate: mate, Line: line, SAN: san}
}

func newAnalysis(pos chess.Position, best, ponder string, eval Eval) (*Analysis, error) {
	m, err := notation.DecodeUCI(pos, best)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIllegalEngineMove, best, err)
	}
	return &Analysis{
		ID:          uuid.NewString(),
		FEN:         fen.String(pos),
		SideToMove:  pos.Turn.String(),
		BestMove:    notation.EncodeUCI(m),
		SAN:         notation.EncodeSAN(pos, m),
		Description: notation.Sentence(pos, m),
		Notes:       notation.Describe(pos, m).Notes(),
		Ponder:      ponder,
		Eval:        eval,
	}, nil
}

func (a *Analysis) clone() *Analysis {
	out := *a
	out.Notes = slices.Clone(a.Notes)
	out.Eval.PVs = slices.Clone(a.Eval.PVs)
	for i, pv := range out.Eval.PVs {
		out.Eval.PVs[i].Centipawns = cloneInt(pv.Centipawns)
		out.Eval.PVs[i].Mate = cloneInt(pv.Mate)
		out.Eval.PVs[i].Line = slices.Clone(pv.Line)
		out.Eval.PVs[i].SAN = slices.Clone(pv.SAN)
	}
	return &out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// Summary describes the evaluation from player's point of view, e.g.
// "Mate in 3!", "Opponent mates in 2", "You're ahead +1.2",
// "You're behind -0.8" or "≈ Equal position".
func (a *Analysis) Summary(player Color) string {
	pv := a.Eval.BestPV()
	switch {
	case pv == nil:
		return "N/A"
	case pv.Mate != nil:
		n := *pv.Mate
		if player == chess.Black {
			n = -n
		}
		if n > 0 {
			return fmt.Sprintf("Mate in %d!", n)
		}
		return fmt.Sprintf("Opponent mates in %d", -n)
	case pv.Centipawns != nil:
		cp := *pv.Centipawns
		if player == chess.Black {
			cp = -cp
		}
		switch v := float64(cp) / 100; {
		case v > 0.5:
			return fmt.Sprintf("You're ahead +%.1f", v)
		case v < -0.5:
			return fmt.Sprintf("You're behind %.1f", v)
		}
		return "≈ Equal position"
	}
	return "N/A"
}

// BestPV returns the best principal variation, or nil if none available.
func (e *Eval) BestPV() *PV {
	if len(e.PVs) == 0 {
		return nil
	}
	return &e.PVs[0]
}

// BestLine returns the SAN moves of the best variation.
func (e *Eval) BestLine() []string {
	if pv := e.BestPV(); pv != nil {
		return pv.SAN
	}
	return nil
}

// IsMate returns true if the best line is a forced checkmate.
func (e *Eval) IsMate() bool {
	if pv := e.BestPV(); pv != nil {
		return pv.IsMate()
	}
	return false
}

// Score returns the score of the best line, e.g. "+1.25", "#3" or "#-5".
func (e *Eval) Score() string {
	pv := e.BestPV()
	if pv == nil {
		return "?"
	}
	return pv.Score()
}

// Score returns a human-readable score string.
// Examples: "+1.25", "-0.50", "#3", "#-5"
func (pv *PV) Score() string {
	if pv.Mate != nil {
		return "#" + strconv.Itoa(*pv.Mate)
	}
	if pv.Centipawns == nil {
		return "?"
	}
	cp := *pv.Centipawns
	sign := "+"
	if cp < 0 {
		sign = "-"
		cp = -cp
	}
	return fmt.Sprintf("%s%d.%02d", sign, cp/100, cp%100)
}

// IsMate returns true if this PV is a forced checkmate.
func (pv *PV) IsMate() bool {
	return pv.Mate != nil
}

// String renders the PV as "+0.32 e4 e5 Nf3".
func (pv *PV) String() string {
	return strings.TrimSpace(pv.Score() + " " + strings.Join(pv.SAN, " "))
}
