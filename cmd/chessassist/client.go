package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/stats"
	"github.com/discochess/chessassist/internal/stats/zapstats"
	"github.com/discochess/chessassist/internal/uci"
	"github.com/discochess/chessassist/internal/vision"
)

const apiKeyEnv = "ANTHROPIC_API_KEY"

// clientConfig says which parts of the assistant a command needs.
type clientConfig struct {
	engine       bool
	vision       bool
	explanations bool
	multiPV      int
}

// newClient assembles a client from the global flags. A missing engine is
// tolerated when a book is configured, so book-only lookups still work.
func newClient(ctx context.Context, cc clientConfig) (*chessassist.Client, error) {
	var collector stats.Collector = stats.NewNoop()
	if verbose {
		collector = zapstats.New(logger)
	}
	opts := []chessassist.Option{
		chessassist.WithDepth(depth),
		chessassist.WithExplanations(cc.explanations),
		chessassist.WithStats(collector),
		chessassist.WithLogger(logger),
	}

	if cc.engine {
		eng, err := startEngine(ctx, cc.multiPV)
		switch {
		case err == nil:
			opts = append(opts, chessassist.WithEngine(eng))
		case errors.Is(err, uci.ErrEngineNotFound) && bookLocation != "":
			logger.Warn("no engine found; answering from the book only", zap.Error(err))
		default:
			return nil, err
		}
	}

	if cc.vision || cc.explanations {
		key := os.Getenv(apiKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("%s is not set", apiKeyEnv)
		}
		opts = append(opts, chessassist.WithVision(vision.New(key, vision.WithLogger(logger))))
	}

	if bookLocation != "" {
		bookOpt, err := chessassist.WithBookLocation(ctx, bookLocation, 0, collector)
		if err != nil {
			return nil, fmt.Errorf("opening book %s: %w", bookLocation, err)
		}
		opts = append(opts, bookOpt)
	}

	return chessassist.New(opts...)
}

func startEngine(ctx context.Context, multiPV int) (*uci.Engine, error) {
	path, err := uci.Locate(enginePath)
	if err != nil {
		return nil, err
	}
	opts := []uci.Option{uci.WithLogger(logger)}
	if multiPV > 1 {
		opts = append(opts, uci.WithMultiPV(multiPV))
	}
	eng, err := uci.Start(ctx, path, opts...)
	if err != nil {
		return nil, fmt.Errorf("starting engine %s: %w", path, err)
	}
	logger.Debug("engine started", zap.String("path", path), zap.String("name", eng.Name()))
	return eng, nil
}
