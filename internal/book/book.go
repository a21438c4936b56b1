// Package book stores pre-computed position evaluations, in the Lichess
// evaluation database format, as sorted and compressed shards.
package book

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/search"
	"github.com/discochess/chessassist/internal/shard"
	"github.com/discochess/chessassist/internal/stats"
	"github.com/discochess/chessassist/internal/store"
)

// ErrNotFound indicates the position is not in the book.
var ErrNotFound = errors.New("book: position not found")

// Book answers lookups against a built book. It is safe for concurrent use.
type Book struct {
	store    store.Store
	manifest Manifest
	strategy shard.Strategy
	shards   map[int]bool
	stats    stats.Collector
	logger   *zap.Logger
}

// Option configures a Book.
type Option func(*Book)

// WithStats sets the metrics collector.
func WithStats(c stats.Collector) Option {
	return func(b *Book) { b.stats = stats.OrNoop(c) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Book) { b.logger = l.Named("book") }
}

// Open reads the manifest of the book in s. The book takes ownership of s
// and closes it on Close.
func Open(ctx context.Context, s store.Store, opts ...Option) (*Book, error) {
	b := &Book{
		store:  s,
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	m, err := readManifest(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("book: %w", err)
	}
	strategy, err := StrategyByName(m.Strategy)
	if err != nil {
		return nil, err
	}
	b.manifest = *m
	b.strategy = strategy
	b.shards = make(map[int]bool, len(m.Shards))
	for _, id := range m.Shards {
		b.shards[id] = true
	}

	b.logger.Debug("book opened",
		zap.Int("totalShards", m.TotalShards),
		zap.String("strategy", strategy.Name()),
		zap.Int64("records", m.RecordCount),
	)
	return b, nil
}

// Manifest returns the book's manifest.
func (b *Book) Manifest() Manifest {
	return b.manifest
}

// Lookup returns the record for pos. Move counters are ignored and an en
// passant square only counts when the capture is legal.
func (b *Book) Lookup(ctx context.Context, pos chess.Position) (*search.Record, error) {
	b.stats.IncCounter(stats.MetricBookLookups, 1)

	rec, err := b.lookup(ctx, pos)
	switch {
	case errors.Is(err, ErrNotFound):
		b.stats.IncCounter(stats.MetricBookMisses, 1)
	case err == nil:
		b.stats.IncCounter(stats.MetricBookHits, 1)
	}
	return rec, err
}

// LookupFEN parses s and looks it up.
func (b *Book) LookupFEN(ctx context.Context, s string) (*search.Record, error) {
	pos, err := fen.Parse(s)
	if err != nil {
		return nil, err
	}
	return b.Lookup(ctx, pos)
}

func (b *Book) lookup(ctx context.Context, pos chess.Position) (*search.Record, error) {
	shardID := b.strategy.ShardID(pos, b.manifest.TotalShards)
	if !b.shards[shardID] {
		return nil, ErrNotFound
	}

	b.stats.IncCounter(stats.MetricShardFetches, 1)
	data, err := b.store.ReadShard(ctx, shardID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("book: fetching shard %d: %w", shardID, err)
	}

	rec, err := search.Search(data, fen.LookupKey(pos))
	if errors.Is(err, search.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("book: shard %d: %w", shardID, err)
	}
	return rec, nil
}

// Close closes the underlying store.
func (b *Book) Close() error {
	return b.store.Close()
}
