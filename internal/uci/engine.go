// Package uci drives an external chess engine over the Universal Chess
// Interface protocol.
package uci

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/notnil/chess"
	protocol "github.com/notnil/chess/uci"
	"go.uber.org/zap"
)

var (
	// ErrEngineClosed is returned when the engine process has exited or
	// Close has been called.
	ErrEngineClosed = errors.New("uci: engine closed")

	// ErrNoBestMove is returned for positions without a legal move.
	ErrNoBestMove = errors.New("uci: engine has no move")
)

const (
	// closeTimeout bounds how long Close waits for the engine to exit.
	closeTimeout = 5 * time.Second

	// minMoveTime is the smallest movetime sent for a deadline-bound search.
	minMoveTime = 10 * time.Millisecond
)

// Result is the outcome of one search.
type Result struct {
	BestMove string
	Ponder   string
	// Lines holds one report per principal variation, best first.
	// Lines[0] is the main line.
	Lines []Info
}

// Engine is a running UCI engine. Searches are serialised; an Engine is safe
// for concurrent use.
type Engine struct {
	eng  *protocol.Engine
	opts options
	name string

	// sem is held for the duration of every exchange with the engine.
	sem       chan struct{}
	closeOnce sync.Once
	closed    chan struct{}
}

// Start launches the engine binary at path, sends the configured options and
// waits until the engine is ready.
func Start(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var engOpts []func(*protocol.Engine)
	if o.logger.Core().Enabled(zap.DebugLevel) {
		engOpts = append(engOpts, protocol.Debug, protocol.Logger(zap.NewStdLog(o.logger)))
	}
	eng, err := protocol.New(path, engOpts...)
	if err != nil {
		return nil, fmt.Errorf("uci: starting %s: %w", path, err)
	}

	e := &Engine{
		eng:    eng,
		opts:   o,
		sem:    make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	if err := e.handshake(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) handshake(ctx context.Context) error {
	names := make([]string, 0, len(e.opts.settings))
	for name := range e.opts.settings {
		names = append(names, name)
	}
	sort.Strings(names)

	cmds := []protocol.Cmd{protocol.CmdUCI}
	for _, name := range names {
		cmds = append(cmds, protocol.CmdSetOption{Name: name, Value: e.opts.settings[name]})
	}
	cmds = append(cmds, protocol.CmdIsReady, protocol.CmdUCINewGame)

	err := e.do(ctx, func() error {
		if err := e.eng.Run(cmds...); err != nil {
			return err
		}
		e.name = e.eng.ID()["name"]
		return nil
	})
	if err != nil {
		return fmt.Errorf("uci: handshake: %w", err)
	}
	e.opts.logger.Info("engine ready", zap.String("name", e.name), zap.Int("multipv", e.opts.multiPV))
	return nil
}

// Name returns the engine's self-reported name.
func (e *Engine) Name() string {
	return e.name
}

func (e *Engine) acquire(ctx context.Context) error {
	select {
	case e.sem <- struct{}{}:
	case <-e.closed:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-e.closed:
		<-e.sem
		return ErrEngineClosed
	default:
		return nil
	}
}

// do runs fn with exclusive use of the engine. A library call cannot be
// interrupted: when ctx ends first, do returns ctx's error and fn keeps the
// engine until it completes.
func (e *Engine) do(ctx context.Context, fn func() error) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		defer func() { <-e.sem }()
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		e.opts.logger.Debug("abandoning engine call", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// NewGame tells the engine the next search is unrelated to the previous one.
func (e *Engine) NewGame(ctx context.Context) error {
	return e.do(ctx, func() error {
		return e.eng.Run(protocol.CmdUCINewGame, protocol.CmdIsReady)
	})
}

// Analyze searches the position given as FEN to depth plies. With a deadline
// on ctx the search is also limited by movetime so the engine answers in
// time; a search cut short by ctx finishes in the background and delays the
// next one.
func (e *Engine) Analyze(ctx context.Context, fen string, depth int) (Result, error) {
	setup, err := chess.FEN(fen)
	if err != nil {
		return Result{}, fmt.Errorf("uci: %w", err)
	}
	pos := chess.NewGame(setup).Position()

	var moveTime time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		moveTime = max(time.Until(deadline)*9/10/time.Duration(e.opts.multiPV), minMoveTime)
	}

	var res Result
	err = e.do(ctx, func() error {
		var err error
		res, err = e.search(pos, depth, moveTime)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// search runs one engine search per principal variation. Later searches are
// restricted with searchmoves to the moves not yet reported, which yields the
// same lines as the engine's MultiPV mode with one final report each.
func (e *Engine) search(pos *chess.Position, depth int, moveTime time.Duration) (Result, error) {
	legal := pos.ValidMoves()
	if len(legal) == 0 {
		return Result{}, ErrNoBestMove
	}

	var res Result
	reported := map[string]bool{}
	for k := 1; k <= e.opts.multiPV; k++ {
		cmdGo := protocol.CmdGo{Depth: depth, MoveTime: moveTime}
		if k > 1 {
			for _, m := range legal {
				if !reported[m.String()] {
					cmdGo.SearchMoves = append(cmdGo.SearchMoves, m)
				}
			}
			if len(cmdGo.SearchMoves) == 0 {
				break
			}
		}

		start := time.Now()
		if err := e.eng.Run(protocol.CmdPosition{Position: pos}, cmdGo); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrEngineClosed, err)
		}
		sr := e.eng.SearchResults()
		if sr.BestMove == nil {
			if k == 1 {
				return Result{}, ErrNoBestMove
			}
			break
		}
		best := sr.BestMove.String()
		if reported[best] {
			break
		}
		reported[best] = true

		if k == 1 {
			res.BestMove = best
			if sr.Ponder != nil {
				res.Ponder = sr.Ponder.String()
			}
		}
		line := lineInfo(k, sr)
		res.Lines = append(res.Lines, line)
		e.opts.logger.Debug("search finished",
			zap.Int("multipv", k),
			zap.String("best", best),
			zap.Int("depth", line.Depth),
			zap.Stringer("score", line.Score),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return res, nil
}

// Close stops the engine process. Searches started afterwards fail with
// ErrEngineClosed.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closed)
		done := make(chan error, 1)
		go func() { done <- e.eng.Close() }()
		select {
		case err = <-done:
		case <-time.After(closeTimeout):
			err = fmt.Errorf("uci: engine did not exit within %v", closeTimeout)
		}
	})
	return err
}
