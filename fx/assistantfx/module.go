// Package assistantfx provides fx modules for the chess assistant: the
// client, its engine and vision model, and the HTTP service.
package assistantfx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/server"
	"github.com/discochess/chessassist/internal/stats"
	"github.com/discochess/chessassist/internal/stats/promstats"
	"github.com/discochess/chessassist/internal/uci"
	"github.com/discochess/chessassist/internal/vision"
)

// Config holds configuration for the assistant.
type Config struct {
	// EnginePath is the UCI engine binary. Empty means search $STOCKFISH_PATH
	// and the usual install locations.
	EnginePath string

	// Depth is the search depth. Default is chessassist.DefaultDepth.
	Depth int

	// MultiPV is the number of lines the engine reports. Default is 1.
	MultiPV int

	// EngineOptions are passed to the engine with setoption, e.g. Threads.
	EngineOptions map[string]string

	// BookLocation is a directory or s3:// or gs:// URL of an opening book.
	// Empty disables the book.
	BookLocation string

	// BookCacheShards is the number of book shards kept in memory.
	BookCacheShards int

	// APIKey authenticates with the vision model. Empty falls back to
	// $ANTHROPIC_API_KEY; with neither, image analysis is unavailable.
	APIKey string

	// Explanations asks the vision model to explain each recommendation.
	Explanations bool

	// CacheSize and CacheTTL configure the analysis cache.
	// Defaults are chessassist.DefaultCacheSize and DefaultCacheTTL.
	CacheSize int
	CacheTTL  time.Duration

	// Addr is the listen address of the HTTP service. Default is ":8080".
	Addr string

	// AllowedOrigins restricts CORS and WebSocket origins. Empty allows all.
	AllowedOrigins []string
}

// APIKeyEnv names the environment variable holding the vision API key.
const APIKeyEnv = "ANTHROPIC_API_KEY"

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = ":8080"

// Module provides a *chessassist.Client and a *server.Server. An engine and
// a vision model are used when provided, e.g. by EngineModule and
// VisionModule. Requires a Config and a *zap.Logger.
var Module = fx.Module("chessassist",
	fx.Provide(
		newStatsCollector,
		newClient,
		newServer,
	),
)

// EngineModule starts the UCI engine named by Config.EnginePath.
var EngineModule = fx.Module("chessassist.engine",
	fx.Provide(newEngine),
)

// VisionModule provides the vision model when an API key is configured.
var VisionModule = fx.Module("chessassist.vision",
	fx.Provide(newVision),
)

// ServerModule serves the HTTP service on Config.Addr for the lifetime of the
// application.
var ServerModule = fx.Module("chessassist.http",
	fx.Invoke(runServer),
)

func newStatsCollector() stats.Collector {
	return promstats.New(prometheus.DefaultRegisterer)
}

// EngineParams holds dependencies for starting the engine.
type EngineParams struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Lifecycle fx.Lifecycle
}

// EngineResult holds the provided engine.
type EngineResult struct {
	fx.Out

	Engine chessassist.Engine
}

func newEngine(p EngineParams) (EngineResult, error) {
	path, err := uci.Locate(p.Config.EnginePath)
	if err != nil {
		return EngineResult{}, err
	}
	opts := []uci.Option{uci.WithLogger(p.Logger)}
	if p.Config.MultiPV > 1 {
		opts = append(opts, uci.WithMultiPV(p.Config.MultiPV))
	}
	for name, value := range p.Config.EngineOptions {
		opts = append(opts, uci.WithOption(name, value))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	eng, err := uci.Start(ctx, path, opts...)
	if err != nil {
		return EngineResult{}, fmt.Errorf("starting engine %s: %w", path, err)
	}
	p.Logger.Info("engine started", zap.String("path", path), zap.String("name", eng.Name()))
	return EngineResult{Engine: eng}, nil
}

// VisionParams holds dependencies for the vision model.
type VisionParams struct {
	fx.In

	Config Config
	Logger *zap.Logger
}

// VisionResult holds the provided vision model, if any.
type VisionResult struct {
	fx.Out

	Vision chessassist.Vision
}

func newVision(p VisionParams) VisionResult {
	key := p.Config.APIKey
	if key == "" {
		key = os.Getenv(APIKeyEnv)
	}
	if key == "" {
		p.Logger.Warn("no vision API key; image analysis disabled", zap.String("env", APIKeyEnv))
		return VisionResult{}
	}
	return VisionResult{Vision: vision.New(key, vision.WithLogger(p.Logger))}
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle

	Engine chessassist.Engine `optional:"true"`
	Vision chessassist.Vision `optional:"true"`
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *chessassist.Client
}

func newClient(p Params) (Result, error) {
	cacheSize, cacheTTL := p.Config.CacheSize, p.Config.CacheTTL
	if cacheSize <= 0 {
		cacheSize = chessassist.DefaultCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = chessassist.DefaultCacheTTL
	}

	opts := []chessassist.Option{
		chessassist.WithDepth(p.Config.Depth),
		chessassist.WithExplanations(p.Config.Explanations),
		chessassist.WithCache(cacheSize, cacheTTL),
		chessassist.WithStats(p.Collector),
		chessassist.WithLogger(p.Logger),
	}
	if p.Engine != nil {
		opts = append(opts, chessassist.WithEngine(p.Engine))
	}
	if p.Vision != nil {
		opts = append(opts, chessassist.WithVision(p.Vision))
	}
	if p.Config.BookLocation != "" {
		bookOpt, err := chessassist.WithBookLocation(context.Background(), p.Config.BookLocation, p.Config.BookCacheShards, p.Collector)
		if err != nil {
			return Result{}, fmt.Errorf("opening book %s: %w", p.Config.BookLocation, err)
		}
		opts = append(opts, bookOpt)
	}

	client, err := chessassist.New(opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Result{Client: client}, nil
}

// ServerParams holds dependencies for the HTTP handler.
type ServerParams struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Client    *chessassist.Client
}

func newServer(p ServerParams) *server.Server {
	opts := []server.Option{
		server.WithLogger(p.Logger),
		server.WithStats(p.Collector),
	}
	if len(p.Config.AllowedOrigins) > 0 {
		opts = append(opts, server.WithAllowedOrigins(p.Config.AllowedOrigins...))
	}
	return server.New(p.Client, opts...)
}

// RunParams holds dependencies for serving HTTP.
type RunParams struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Server    *server.Server
	Lifecycle fx.Lifecycle
}

func runServer(p RunParams) {
	addr := p.Config.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	hs := &http.Server{
		Addr:              addr,
		Handler:           p.Server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger := p.Logger.Named("http")

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", hs.Addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", hs.Addr, err)
			}
			logger.Info("listening", zap.Stringer("addr", ln.Addr()))
			go func() {
				if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return hs.Shutdown(ctx)
		},
	})
}
