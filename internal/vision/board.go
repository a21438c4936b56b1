package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
)

// ErrNoBoard is returned when the model's reply contains no readable board.
var ErrNoBoard = errors.New("vision: no board in response")

const boardMaxTokens = 2000

var (
	gridLine     = regexp.MustCompile(`^([1-8]):([rnbqkpRNBQKP.]{8})$`)
	boardPattern = regexp.MustCompile(`([rnbqkpRNBQKP1-8]+/){7}[rnbqkpRNBQKP1-8]+`)
)

func orientation(playingAs chess.Color) string {
	if playingAs == chess.White {
		return `You are viewing from WHITE's perspective.
Visual top = rank 8, visual bottom = rank 1
Visual left = file a, visual right = file h`
	}
	return `You are viewing from BLACK's perspective.
Visual top = rank 1, visual bottom = rank 8
Visual left = file h, visual right = file a

When reading coordinates, use the LABELS shown on the board (numbers 1-8 on left, letters h-a on bottom).`
}

func boardPrompt(playingAs chess.Color) string {
	return orientation(playingAs) + `

List EXACTLY what piece is on each square, using the board coordinates shown.
Use: K=white king, Q=white queen, R=white rook, B=white bishop, N=white knight, P=white pawn
     k=black king, q=black queen, r=black rook, b=black bishop, n=black knight, p=black pawn
     . = empty

WHITE pieces are LIGHT colored. BLACK pieces are DARK colored.
Ignore any dots/circles (those are move hints, not pieces).

Output in this EXACT format (8 characters per line, no spaces):
8:????????
7:????????
6:????????
5:????????
4:????????
3:????????
2:????????
1:????????

Replace ? with the piece letter or . for empty.
Example: 8:rnbqkbnr means black's back rank with all pieces.`
}

// ReadBoard asks the model which piece stands on each square of the board
// shown in img. The image is cropped and scaled first when it can be
// decoded; otherwise it is sent as is with the given media type.
func (c *Client) ReadBoard(ctx context.Context, img []byte, mediaType string, playingAs chess.Color) ([64]chess.Piece, error) {
	data, mt, err := PrepareImage(img)
	if err != nil {
		c.logger.Debug("sending image unprocessed", zap.Error(err))
		data, mt = img, mediaType
	}

	text, err := c.complete(ctx, c.boardModel, boardMaxTokens,
		anthropic.NewImageBlockBase64(mt, base64.StdEncoding.EncodeToString(data)),
		anthropic.NewTextBlock(boardPrompt(playingAs)),
	)
	if err != nil {
		return [64]chess.Piece{}, err
	}
	c.logger.Debug("board reply", zap.String("text", text))
	return ParseBoardResponse(text)
}

// ParseBoardResponse extracts a board from a model reply. The 8-line grid
// format is preferred; failing that, the first FEN piece-placement field in
// the text is used.
func ParseBoardResponse(text string) ([64]chess.Piece, error) {
	ranks := map[byte]string{}
	for _, line := range strings.Split(text, "\n") {
		if m := gridLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			ranks[m[1][0]] = m[2]
		}
	}
	if len(ranks) == 8 {
		rows := make([]string, 0, 8)
		for r := byte('8'); r >= '1'; r-- {
			rows = append(rows, gridToFEN(ranks[r]))
		}
		return parsePlacement(strings.Join(rows, "/"))
	}

	if placement := boardPattern.FindString(text); placement != "" {
		return parsePlacement(placement)
	}
	return [64]chess.Piece{}, ErrNoBoard
}

func parsePlacement(s string) ([64]chess.Piece, error) {
	board, err := fen.ParseBoard(s)
	if err != nil {
		return board, fmt.Errorf("%w: %v", ErrNoBoard, err)
	}
	return board, nil
}

// gridToFEN turns "r..qk..r" into "r2qk2r".
func gridToFEN(row string) string {
	var sb strings.Builder
	empty := 0
	for i := 0; i < len(row); i++ {
		if row[i] == '.' {
			empty++
			continue
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
			empty = 0
		}
		sb.WriteByte(row[i])
	}
	if empty > 0 {
		sb.WriteByte(byte('0' + empty))
	}
	return sb.String()
}
