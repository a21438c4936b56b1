package chessassist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/chessassist/internal/book"
	"github.com/discochess/chessassist/internal/codec"
	"github.com/discochess/chessassist/internal/stats"
	"github.com/discochess/chessassist/internal/store/cachedstore"
	"github.com/discochess/chessassist/internal/store/cachedstore/memory"
)

const (
	// DefaultDepth is the engine search depth used when none is configured.
	DefaultDepth = 15

	// DefaultCacheSize and DefaultCacheTTL bound the analysis cache.
	DefaultCacheSize = 256
	DefaultCacheTTL  = 30 * time.Minute
)

// Option configures a Client.
type Option interface {
	apply(*options)
}

type options struct {
	engine    Engine
	vision    Vision
	book      Book
	depth     int
	explain   bool
	cacheSize int
	cacheTTL  time.Duration
	stats     stats.Collector
	logger    *zap.Logger
}

func defaultOptions() options {
	return options{
		depth:     DefaultDepth,
		cacheSize: DefaultCacheSize,
		cacheTTL:  DefaultCacheTTL,
		stats:     stats.NewNoop(),
		logger:    zap.NewNop(),
	}
}

type optionFunc func(*options)

var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithEngine sets the engine used for positions the book does not cover.
// The client closes it on Close.
func WithEngine(e Engine) Option {
	return optionFunc(func(o *options) {
		o.engine = e
	})
}

// WithVision sets the model used to read board images and explain moves.
func WithVision(v Vision) Option {
	return optionFunc(func(o *options) {
		o.vision = v
	})
}

// WithBook sets an evaluation book consulted before the engine. The client
// closes it on Close.
func WithBook(b Book) Option {
	return optionFunc(func(o *options) {
		o.book = b
	})
}

// WithDepth sets the engine search depth. Default is 15.
func WithDepth(depth int) Option {
	return optionFunc(func(o *options) {
		if depth > 0 {
			o.depth = depth
		}
	})
}

// WithExplanations asks the vision model for a short explanation of every
// recommended move.
func WithExplanations(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.explain = enabled
	})
}

// WithCache sets the size and lifetime of the analysis cache. A size of
// zero disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return optionFunc(func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = stats.OrNoop(c)
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithBookLocation opens the book at location, a directory or an
// "s3://bucket/prefix" or "gs://bucket/prefix" URL, with an LRU cache of
// cacheShards shards in front of it.
func WithBookLocation(ctx context.Context, location string, cacheShards int, collector stats.Collector) (Option, error) {
	st, err := book.OpenStore(ctx, location, codec.Zstd{}, false)
	if err != nil {
		return nil, fmt.Errorf("opening book store: %w", err)
	}
	if cacheShards <= 0 {
		cacheShards = memory.DefaultCapacity
	}
	backend, err := memory.New(cacheShards, collector)
	if err != nil {
		st.Close()
		return nil, err
	}
	b, err := book.Open(ctx, cachedstore.New(st, backend), book.WithStats(collector))
	if err != nil {
		st.Close()
		return nil, err
	}
	return WithBook(b), nil
}
