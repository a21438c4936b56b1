package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/discochess/chessassist/fx/assistantfx"
	"github.com/discochess/chessassist/internal/uci"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	Long: `Serve the JSON API, a WebSocket stream of analyses and Prometheus
metrics.

Routes:
  POST /api/analyze         {"fen": "..."}
  POST /api/analyze/image   multipart form: image, color
  POST /api/moves           {"fen": "..."}
  POST /api/apply           {"fen": "...", "move": "..."}
  GET  /ws                  send {"fen": "..."}, receive analyses
  GET  /healthz
  GET  /metrics

Example:
  chessassist serve --addr :8080 --book ./book`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	addr           string
	allowedOrigins []string
	serveExplain   bool
	serveMultiPV   int
	engineThreads  string
	engineHash     string
)

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", assistantfx.DefaultAddr, "listen address")
	serveCmd.Flags().StringSliceVar(&allowedOrigins, "origin", nil, "allowed CORS and WebSocket origins (default all)")
	serveCmd.Flags().BoolVar(&serveExplain, "explain", false, "explain every recommendation with the vision model")
	serveCmd.Flags().IntVar(&serveMultiPV, "multipv", 1, "number of engine lines to report")
	serveCmd.Flags().StringVar(&engineThreads, "threads", "", "engine Threads option")
	serveCmd.Flags().StringVar(&engineHash, "hash", "", "engine Hash option in MB")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := assistantfx.Config{
		EnginePath:     enginePath,
		Depth:          depth,
		MultiPV:        serveMultiPV,
		EngineOptions:  map[string]string{},
		BookLocation:   bookLocation,
		APIKey:         os.Getenv(assistantfx.APIKeyEnv),
		Explanations:   serveExplain,
		Addr:           addr,
		AllowedOrigins: allowedOrigins,
	}
	if engineThreads != "" {
		cfg.EngineOptions["Threads"] = engineThreads
	}
	if engineHash != "" {
		cfg.EngineOptions["Hash"] = engineHash
	}

	opts := []fx.Option{
		fx.Supply(cfg),
		fx.Supply(logger),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		assistantfx.Module,
		assistantfx.VisionModule,
		assistantfx.ServerModule,
	}
	if _, err := uci.Locate(enginePath); err == nil {
		opts = append(opts, assistantfx.EngineModule)
	} else if errors.Is(err, uci.ErrEngineNotFound) && bookLocation != "" {
		logger.Warn("no engine found; serving from the book only", zap.Error(err))
	} else {
		return err
	}

	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return err
	}
	startCtx, cancel := context.WithTimeout(cmd.Context(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	<-cmd.Context().Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return app.Stop(stopCtx)
}
