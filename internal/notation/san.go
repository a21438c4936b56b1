package notation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/discochess/chessassist/internal/chess"
)

const (
	castleKingside  = "O-O"
	castleQueenside = "O-O-O"
)

// EncodeSAN renders m, a legal move in p, in Standard Algebraic Notation,
// including disambiguation and the check or mate suffix.
func EncodeSAN(p chess.Position, m chess.Move) string {
	return encodeSAN(p, m, chess.LegalMoves(p)) + checkSuffix(p.Apply(m))
}

// encodeSAN renders m without the check suffix. legal must be the legal
// moves of p.
func encodeSAN(p chess.Position, m chess.Move, legal []chess.Move) string {
	switch {
	case m.CastleKingside:
		return castleKingside
	case m.CastleQueenside:
		return castleQueenside
	}

	pc := p.PieceAt(m.From)
	capture := m.EnPassant || !p.PieceAt(m.To).IsEmpty()

	var sb strings.Builder
	if pc.Type == chess.Pawn {
		if capture {
			sb.WriteByte(m.From.String()[0])
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Promotion != chess.NoPieceType {
			sb.WriteByte('=')
			sb.WriteByte(upper(m.Promotion))
		}
		return sb.String()
	}

	sb.WriteByte(upper(pc.Type))
	sb.WriteString(disambiguation(p, m, pc, legal))
	if capture {
		sb.WriteByte('x')
	}
	sb.WriteString(m.To.String())
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other legal moves of an identical piece to the same square.
func disambiguation(p chess.Position, m chess.Move, pc chess.Piece, legal []chess.Move) string {
	var others, sameFile, sameRank bool
	for _, o := range legal {
		if o.To != m.To || o.From == m.From || p.PieceAt(o.From) != pc {
			continue
		}
		others = true
		if o.From.File() == m.From.File() {
			sameFile = true
		}
		if o.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	from := m.From.String()
	switch {
	case !others:
		return ""
	case !sameFile:
		return from[:1]
	case !sameRank:
		return from[1:]
	default:
		return from
	}
}

func checkSuffix(next chess.Position) string {
	if !next.IsCheck() {
		return ""
	}
	if chess.HasLegalMove(next) {
		return "+"
	}
	return "#"
}

func upper(t chess.PieceType) byte {
	return t.Letter() - ('a' - 'A')
}

var sanPattern = regexp.MustCompile(`^([NBRQK])?([a-h])?([1-8])?(x)?([a-h][1-8])(?:=?([NBRQ]))?$`)

// DecodeSAN parses Standard Algebraic Notation against the legal moves of p.
// Check and annotation suffixes are ignored, "0-0" is accepted for castling
// and the "=" before a promotion piece is optional.
func DecodeSAN(p chess.Position, s string) (chess.Move, error) {
	text := strings.TrimRight(strings.TrimSpace(s), "+#!?")
	text = strings.TrimSuffix(text, "e.p.")
	text = strings.TrimSpace(text)

	legal := chess.LegalMoves(p)
	switch strings.ReplaceAll(text, "0", "O") {
	case castleKingside:
		return pickOne(s, legal, func(m chess.Move) bool { return m.CastleKingside })
	case castleQueenside:
		return pickOne(s, legal, func(m chess.Move) bool { return m.CastleQueenside })
	}

	parts := sanPattern.FindStringSubmatch(text)
	if parts == nil {
		return chess.Move{}, fmt.Errorf("%w: malformed SAN %q", chess.ErrInvalidMove, s)
	}

	pieceType := chess.Pawn
	if parts[1] != "" {
		pieceType, _ = chess.PieceTypeFromLetter(parts[1][0])
	}
	to, _ := chess.ParseSquare(parts[5])
	promotion := chess.NoPieceType
	if parts[6] != "" {
		promotion, _ = chess.PieceTypeFromLetter(parts[6][0])
	}
	fromFile, fromRank := -1, -1
	if parts[2] != "" {
		fromFile = int(parts[2][0] - 'a')
	}
	if parts[3] != "" {
		fromRank = int(parts[3][0] - '1')
	}

	return pickOne(s, legal, func(m chess.Move) bool {
		if m.To != to || m.Promotion != promotion || m.IsCastle() {
			return false
		}
		if p.PieceAt(m.From).Type != pieceType {
			return false
		}
		if fromFile >= 0 && m.From.File() != fromFile {
			return false
		}
		return fromRank < 0 || m.From.Rank() == fromRank
	})
}

func pickOne(s string, legal []chess.Move, match func(chess.Move) bool) (chess.Move, error) {
	var found []chess.Move
	for _, m := range legal {
		if match(m) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return chess.Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, s)
	case 1:
		return found[0], nil
	default:
		return chess.Move{}, fmt.Errorf("%w: %s matches %d moves", ErrAmbiguousMove, s, len(found))
	}
}

// SANLine converts a line of coordinate moves played from p, such as an
// engine principal variation, to SAN.
func SANLine(p chess.Position, line []string) ([]string, error) {
	sans := make([]string, 0, len(line))
	for i, s := range line {
		m, err := DecodeUCI(p, s)
		if err != nil {
			return sans, fmt.Errorf("move %d: %w", i+1, err)
		}
		sans = append(sans, EncodeSAN(p, m))
		p = p.Apply(m)
	}
	return sans, nil
}

// MoveText numbers a line of SAN moves starting from p, for example
// "1. e4 e5 2. Nf3" or "3... Nc6 4. Bb5".
func MoveText(p chess.Position, sans []string) string {
	var sb strings.Builder
	n := p.FullmoveNumber
	turn := p.Turn
	for i, san := range sans {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch {
		case turn == chess.White:
			sb.WriteString(strconv.Itoa(n))
			sb.WriteString(". ")
		case i == 0:
			sb.WriteString(strconv.Itoa(n))
			sb.WriteString("... ")
		}
		sb.WriteString(san)
		if turn == chess.Black {
			n++
		}
		turn = turn.Other()
	}
	return sb.String()
}
