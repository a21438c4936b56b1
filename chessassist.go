// Package chessassist recommends moves for chess positions given as FEN or
// as a screenshot of a board.
//
// Example usage:
//
//	eng, err := uci.Start(ctx, "stockfish")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := chessassist.New(chessassist.WithEngine(eng))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	a, err := client.Analyze(ctx, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s (%s)\n", a.SAN, a.Eval.Score())
package chessassist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/discochess/chessassist/internal/book"
	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/notation"
	"github.com/discochess/chessassist/internal/search"
	"github.com/discochess/chessassist/internal/stats"
	"github.com/discochess/chessassist/internal/uci"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("chessassist: client closed")

	// ErrNoEngine indicates a position needs the engine but none is set.
	ErrNoEngine = errors.New("chessassist: no engine configured")

	// ErrNoVision indicates an image or explanation was requested without a
	// vision model.
	ErrNoVision = errors.New("chessassist: no vision model configured")

	// ErrGameOver indicates the position has no move to recommend.
	ErrGameOver = errors.New("chessassist: game is over")

	// ErrInvalidPosition indicates a FEN that does not parse or describes an
	// impossible position.
	ErrInvalidPosition = errors.New("chessassist: invalid position")

	// ErrIllegalEngineMove indicates the engine or book proposed a move that
	// is not legal in the position.
	ErrIllegalEngineMove = errors.New("chessassist: engine suggested an illegal move")
)

// Color is the side a player plays.
type Color = chess.Color

const (
	White = chess.White
	Black = chess.Black
)

// Engine searches positions. *uci.Engine implements it.
type Engine interface {
	Analyze(ctx context.Context, fen string, depth int) (uci.Result, error)
	Close() error
}

// Vision reads boards from images and explains moves. *vision.Client
// implements it.
type Vision interface {
	ReadBoard(ctx context.Context, img []byte, mediaType string, playingAs chess.Color) ([64]chess.Piece, error)
	Explain(ctx context.Context, fen, san string, line []string) (string, error)
}

// Book holds pre-computed evaluations. *book.Book implements it.
type Book interface {
	Lookup(ctx context.Context, pos chess.Position) (*search.Record, error)
	Close() error
}

var (
	_ Engine = (*uci.Engine)(nil)
	_ Book   = (*book.Book)(nil)
)

// Client recommends moves. A Client is safe for concurrent use by multiple
// goroutines.
type Client struct {
	engine  Engine
	vision  Vision
	book    Book
	depth   int
	explain bool
	cache   *expirable.LRU[string, *Analysis]
	stats   stats.Collector
	logger  *zap.Logger
	closed  atomic.Bool
}

// New creates a Client. With neither engine nor book it can still validate
// positions, but Analyze fails with ErrNoEngine.
func New(opts ...Option) (*Client, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	c := &Client{
		engine:  cfg.engine,
		vision:  cfg.vision,
		book:    cfg.book,
		depth:   cfg.depth,
		explain: cfg.explain,
		stats:   cfg.stats,
		logger:  cfg.logger.Named("assistant"),
	}
	if cfg.cacheSize > 0 {
		c.cache = expirable.NewLRU[string, *Analysis](cfg.cacheSize, nil, cfg.cacheTTL)
	}

	c.logger.Debug("client initialized",
		zap.Bool("engine", c.engine != nil),
		zap.Bool("vision", c.vision != nil),
		zap.Bool("book", c.book != nil),
		zap.Int("depth", c.depth),
	)
	return c, nil
}

// Analyze recommends a move for the side to move in the position given as
// FEN. Positions found in the book are answered from it; all others are
// searched by the engine.
func (c *Client) Analyze(ctx context.Context, fenStr string) (*Analysis, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	start := time.Now()
	c.stats.IncCounter(stats.MetricAnalyses, 1)

	a, err := c.analyze(ctx, fenStr)
	if err != nil {
		c.stats.IncCounter(stats.MetricAnalysisErrors, 1)
		return nil, err
	}
	a.Elapsed = time.Since(start)
	c.stats.ObserveHistogram(stats.MetricAnalysisSeconds, a.Elapsed.Seconds())
	return a, nil
}

func (c *Client) analyze(ctx context.Context, fenStr string) (*Analysis, error) {
	pos, err := ParsePosition(fenStr)
	if err != nil {
		return nil, err
	}
	if st := pos.Status(); st.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", ErrGameOver, st)
	}

	key := fen.LookupKey(pos)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.stats.IncCounter(stats.MetricResultCacheHits, 1)
			a := cached.clone()
			a.FEN = fen.String(pos)
			a.Cached = true
			return a, nil
		}
	}

	a, err := c.fromBook(ctx, pos)
	if a == nil && err == nil {
		a, err = c.fromEngine(ctx, pos)
	}
	if err != nil {
		return nil, err
	}

	if c.explain && c.vision != nil {
		c.stats.IncCounter(stats.MetricVisionCalls, 1)
		text, err := c.vision.Explain(ctx, a.FEN, a.SAN, a.Eval.BestLine())
		if err != nil {
			c.logger.Warn("explanation failed", zap.Error(err))
		} else {
			a.Explanation = text
		}
	}

	if c.cache != nil {
		c.cache.Add(key, a)
		a = a.clone()
	}
	return a, nil
}

// fromBook returns nil without error when the book cannot answer.
func (c *Client) fromBook(ctx context.Context, pos chess.Position) (*Analysis, error) {
	if c.book == nil {
		return nil, nil
	}
	rec, err := c.book.Lookup(ctx, pos)
	if errors.Is(err, book.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("book lookup failed", zap.Error(err))
		return nil, nil
	}
	best, ok := rec.Best()
	if !ok || len(best.PVs[0].Moves()) == 0 {
		return nil, nil
	}

	eval := Eval{Depth: best.Depth, Knodes: best.Knodes}
	for _, pv := range best.PVs {
		eval.PVs = append(eval.PVs, newPV(pos, pv.CP, pv.Mate, pv.Moves()))
	}
	moves := best.PVs[0].Moves()
	var ponder string
	if len(moves) > 1 {
		ponder = moves[1]
	}
	a, err := newAnalysis(pos, moves[0], ponder, eval)
	if err != nil {
		c.logger.Warn("book move rejected", zap.String("fen", rec.FEN), zap.Error(err))
		return nil, nil
	}
	a.Source = SourceBook
	return a, nil
}

func (c *Client) fromEngine(ctx context.Context, pos chess.Position) (*Analysis, error) {
	if c.engine == nil {
		return nil, ErrNoEngine
	}
	c.stats.IncCounter(stats.MetricEngineSearches, 1)
	fenStr := fen.String(pos)
	res, err := c.engine.Analyze(ctx, fenStr, c.depth)
	if err != nil {
		return nil, fmt.Errorf("analyzing %q: %w", fenStr, err)
	}

	var eval Eval
	for i, info := range res.Lines {
		if i == 0 {
			eval.Depth = info.Depth
			eval.Knodes = int(info.Nodes / 1000)
		}
		score := info.Score
		if pos.Turn == chess.Black {
			score = score.Negate()
		}
		var cp, mate *int
		if score.IsMate() {
			mate = &score.Mate
		} else {
			cp = &score.Centipawns
		}
		eval.PVs = append(eval.PVs, newPV(pos, cp, mate, info.PV))
	}

	a, err := newAnalysis(pos, res.BestMove, res.Ponder, eval)
	if err != nil {
		return nil, err
	}
	a.Source = SourceEngine
	return a, nil
}

// AnalyzeImage reads the board from a screenshot and recommends a move for
// playingAs, who is assumed to be on move. Castling rights are granted
// wherever king and rook still stand on their home squares.
func (c *Client) AnalyzeImage(ctx context.Context, img []byte, mediaType string, playingAs Color) (*Analysis, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if c.vision == nil {
		return nil, ErrNoVision
	}
	c.stats.IncCounter(stats.MetricVisionCalls, 1)
	board, err := c.vision.ReadBoard(ctx, img, mediaType, playingAs)
	if err != nil {
		return nil, fmt.Errorf("reading board: %w", err)
	}
	pos := PositionFromBoard(board, playingAs)
	c.logger.Debug("board read", zap.String("fen", fen.String(pos)))
	return c.Analyze(ctx, fen.String(pos))
}

// Explain asks the vision model why move, in coordinate or SAN form, is good
// in the position.
func (c *Client) Explain(ctx context.Context, fenStr, move string) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	if c.vision == nil {
		return "", ErrNoVision
	}
	pos, err := ParsePosition(fenStr)
	if err != nil {
		return "", err
	}
	m, err := ParseMove(pos, move)
	if err != nil {
		return "", err
	}
	san := notation.EncodeSAN(pos, m)
	c.stats.IncCounter(stats.MetricVisionCalls, 1)
	return c.vision.Explain(ctx, fen.String(pos), san, []string{san})
}

// Close releases the engine and book.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	var errs []error
	if c.engine != nil {
		if err := c.engine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing engine: %w", err))
		}
	}
	if c.book != nil {
		if err := c.book.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing book: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ParsePosition parses and validates a FEN.
func ParsePosition(fenStr string) (chess.Position, error) {
	pos, err := fen.Parse(fenStr)
	if err != nil {
		return chess.Position{}, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	if err := chess.Validate(pos); err != nil {
		return chess.Position{}, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	return pos, nil
}

// ParseColor accepts "white", "black", "w" or "b" in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("chessassist: unknown color %q", s)
}

// ParseMove resolves a move given in coordinate notation or SAN.
func ParseMove(pos chess.Position, s string) (chess.Move, error) {
	if m, err := notation.DecodeUCI(pos, s); err == nil {
		return m, nil
	}
	return notation.DecodeSAN(pos, s)
}

// PositionFromBoard builds a position with playingAs to move, no en passant
// square and castling rights inferred from the home squares.
func PositionFromBoard(board [64]chess.Piece, playingAs Color) chess.Position {
	p := chess.Position{
		Board:          board,
		Turn:           playingAs,
		EnPassant:      chess.NoSquare,
		FullmoveNumber: 1,
	}
	rights := []struct {
		king, rook chess.Square
		color      chess.Color
		right      chess.CastlingRights
	}{
		{chess.E1, chess.H1, chess.White, chess.WhiteKingside},
		{chess.E1, chess.A1, chess.White, chess.WhiteQueenside},
		{chess.E8, chess.H8, chess.Black, chess.BlackKingside},
		{chess.E8, chess.A8, chess.Black, chess.BlackQueenside},
	}
	for _, r := range rights {
		if board[r.king] == (chess.Piece{Type: chess.King, Color: r.color}) &&
			board[r.rook] == (chess.Piece{Type: chess.Rook, Color: r.color}) {
			p.Castling |= r.right
		}
	}
	return p
}
