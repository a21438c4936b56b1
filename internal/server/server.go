// Package server exposes the assistant over HTTP: a JSON API, a WebSocket
// stream of analyses and Prometheus metrics.
package server

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/stats"
)

// DefaultMaxImageBytes bounds uploaded screenshots.
const DefaultMaxImageBytes = 10 << 20

// Analyzer recommends moves. *chessassist.Client implements it.
type Analyzer interface {
	Analyze(ctx context.Context, fen string) (*chessassist.Analysis, error)
	AnalyzeImage(ctx context.Context, img []byte, mediaType string, playingAs chessassist.Color) (*chessassist.Analysis, error)
}

var _ Analyzer = (*chessassist.Client)(nil)

// Server routes requests to an Analyzer.
type Server struct {
	analyzer      Analyzer
	router        *mux.Router
	handler       http.Handler
	upgrader      websocket.Upgrader
	gatherer      prometheus.Gatherer
	origins       []string
	maxImageBytes int64
	sessions      atomic.Int64
	stats         stats.Collector
	logger        *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for requests and sockets.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.Named("server")
		}
	}
}

// WithStats sets the collector for request metrics.
func WithStats(c stats.Collector) Option {
	return func(s *Server) { s.stats = stats.OrNoop(c) }
}

// WithGatherer sets the registry served on /metrics. The default is the
// Prometheus default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithAllowedOrigins sets the origins allowed by CORS and the WebSocket
// handshake. By default every origin is allowed.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithMaxImageBytes bounds uploaded screenshots.
func WithMaxImageBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxImageBytes = n
		}
	}
}

// New returns a server for a.
func New(a Analyzer, opts ...Option) *Server {
	s := &Server{
		analyzer:      a,
		router:        mux.NewRouter(),
		gatherer:      prometheus.DefaultGatherer,
		origins:       []string{"*"},
		maxImageBytes: DefaultMaxImageBytes,
		stats:         stats.NewNoop(),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/analyze/image", s.handleAnalyzeImage).Methods(http.MethodPost)
	api.HandleFunc("/moves", s.handleMoves).Methods(http.MethodPost)
	api.HandleFunc("/apply", s.handleApply).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", s.handleSocket).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})

	var h http.Handler = s.router
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	h = handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	panicLog, err := zap.NewStdLogAt(s.logger, zap.ErrorLevel)
	if err != nil {
		panicLog = zap.NewStdLog(s.logger)
	}
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(panicLog))(h)
	s.handler = h
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.stats.IncCounter(stats.MetricRequests, 1)
	s.logger.Info("request",
		zap.String("method", p.Request.Method),
		zap.String("path", p.URL.Path),
		zap.Int("status", p.StatusCode),
		zap.Int("bytes", p.Size),
		zap.Duration("elapsed", time.Since(p.TimeStamp)),
		zap.String("remote", p.Request.RemoteAddr),
	)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
