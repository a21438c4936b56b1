package book

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/codec"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/search"
	"github.com/discochess/chessassist/internal/shard"
	"github.com/discochess/chessassist/internal/shard/materialshard"
	"github.com/discochess/chessassist/internal/store"
)

const (
	// DefaultTotalShards is the number of shards a book is split into.
	DefaultTotalShards = 32768

	// DefaultSourceURL is the Lichess evaluation database.
	DefaultSourceURL = "https://database.lichess.org/lichess_db_eval.jsonl.zst"

	maxLineBytes   = 10 << 20
	progressPeriod = 100_000
)

// Builder turns a JSONL evaluation dump into a book.
type Builder struct {
	totalShards int
	strategy    shard.Strategy
	codec       codec.Codec
	workers     int
	maxMemoryMB int
	tempDir     string
	source      string
	progress    ProgressFunc
	logger      *zap.Logger
}

// BuildOption configures a Builder.
type BuildOption func(*Builder)

// WithTotalShards sets the number of shards.
func WithTotalShards(n int) BuildOption {
	return func(b *Builder) { b.totalShards = n }
}

// WithStrategy sets the sharding strategy.
func WithStrategy(s shard.Strategy) BuildOption {
	return func(b *Builder) { b.strategy = s }
}

// WithCodec records the compression used by the destination store.
func WithCodec(c codec.Codec) BuildOption {
	return func(b *Builder) { b.codec = c }
}

// WithWorkers sets how many shards are written at once.
func WithWorkers(n int) BuildOption {
	return func(b *Builder) { b.workers = max(n, 1) }
}

// WithMaxMemoryMB bounds the records held in memory before spilling.
func WithMaxMemoryMB(mb int) BuildOption {
	return func(b *Builder) { b.maxMemoryMB = mb }
}

// WithTempDir sets where spilled records go. By default a fresh directory
// under os.TempDir is used and removed afterwards.
func WithTempDir(dir string) BuildOption {
	return func(b *Builder) { b.tempDir = dir }
}

// WithSource records where the input came from in the manifest.
func WithSource(s string) BuildOption {
	return func(b *Builder) { b.source = s }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) BuildOption {
	return func(b *Builder) { b.progress = fn }
}

// WithBuildLogger sets the logger.
func WithBuildLogger(l *zap.Logger) BuildOption {
	return func(b *Builder) { b.logger = l.Named("builder") }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuildOption) *Builder {
	b := &Builder{
		totalShards: DefaultTotalShards,
		strategy:    materialshard.New(),
		codec:       codec.Zstd{},
		workers:     4,
		maxMemoryMB: 2048,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildFile builds a book from a local dump, decompressing it first when
// the name ends in .zst.
func (b *Builder) BuildFile(ctx context.Context, path string, dst store.Writer) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".zst" {
		zr, err := codec.Zstd{}.Reader(f)
		if err != nil {
			return nil, fmt.Errorf("opening source: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	if b.source == "" {
		b.source = filepath.Base(path)
	}
	return b.Build(ctx, r, dst)
}

// Build reads JSONL evaluation records from r and writes them to dst as a
// book. Records whose FEN does not describe a legal position are skipped.
// Every stored FEN is rewritten to its lookup key.
func (b *Builder) Build(ctx context.Context, r io.Reader, dst store.Writer) (*Manifest, error) {
	start := time.Now()

	tempDir := b.tempDir
	if tempDir == "" {
		dir, err := os.MkdirTemp("", "chessassist-book-")
		if err != nil {
			return nil, fmt.Errorf("creating temp directory: %w", err)
		}
		defer os.RemoveAll(dir)
		tempDir = dir
	} else if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	collectors := make([]*collector, b.totalShards)
	for i := range collectors {
		collectors[i] = &collector{shardID: i, spillDir: tempDir}
	}
	mem := &budget{max: int64(b.maxMemoryMB) << 20, collectors: collectors}

	p := Progress{Phase: PhaseRead, StartTime: start, ShardsTotal: b.totalShards}
	b.report(p)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), maxLineBytes)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		p.RecordsRead++

		rec, pos, err := canonicalize(line)
		if err != nil {
			p.RecordsSkipped++
			b.logger.Debug("skipping record", zap.Int64("line", p.RecordsRead), zap.Error(err))
			continue
		}
		id := b.strategy.ShardID(pos, b.totalShards)
		if err := mem.charge(collectors[id].add(rec)); err != nil {
			return nil, fmt.Errorf("spilling shard records: %w", err)
		}

		if p.RecordsRead%progressPeriod == 0 {
			b.report(p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	b.report(p)

	p.Phase = PhaseWrite
	var (
		mu     sync.Mutex
		shards []int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, c := range collectors {
		if c.count() == 0 {
			continue
		}
		g.Go(func() error {
			n, err := b.writeShard(gctx, c, dst)
			if err != nil {
				return fmt.Errorf("writing shard %d: %w", c.shardID, err)
			}
			mu.Lock()
			defer mu.Unlock()
			shards = append(shards, c.shardID)
			p.RecordsWritten += int64(n)
			p.ShardsWritten++
			b.report(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.Sort(shards)

	m := &Manifest{
		Version:     ManifestVersion,
		TotalShards: b.totalShards,
		Strategy:    b.strategy.Name(),
		Compression: b.codec.Name(),
		RecordCount: p.RecordsWritten,
		Skipped:     p.RecordsSkipped,
		ShardCount:  len(shards),
		Shards:      shards,
		BuiltAt:     time.Now().UTC(),
		Source:      b.source,
	}
	if err := writeManifest(ctx, dst, m); err != nil {
		return nil, err
	}

	p.Phase = PhaseDone
	b.report(p)
	b.logger.Info("book built",
		zap.Int64("records", m.RecordCount),
		zap.Int64("skipped", m.Skipped),
		zap.Int("shards", m.ShardCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return m, nil
}

// writeShard sorts a shard's records, drops duplicate keys and stores it.
// The first record seen for a key wins.
func (b *Builder) writeShard(ctx context.Context, c *collector, dst store.Writer) (int, error) {
	records, err := c.all()
	if err != nil {
		return 0, err
	}
	search.Sort(records)
	records = slices.CompactFunc(records, func(x, y []byte) bool {
		return search.ExtractFEN(x) == search.ExtractFEN(y)
	})

	var buf bytes.Buffer
	for _, r := range records {
		buf.Write(r)
		buf.WriteByte('\n')
	}
	if err := dst.WriteShard(ctx, c.shardID, buf.Bytes()); err != nil {
		return 0, err
	}
	return len(records), nil
}

// canonicalize validates a record's position and re-encodes the record with
// the position's lookup key as its FEN.
func canonicalize(line []byte) ([]byte, chess.Position, error) {
	var rec search.Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, chess.Position{}, fmt.Errorf("decoding record: %w", err)
	}
	pos, err := fen.Parse(rec.FEN)
	if err != nil {
		return nil, chess.Position{}, err
	}
	if err := chess.Validate(pos); err != nil {
		return nil, chess.Position{}, fmt.Errorf("%q: %w", rec.FEN, err)
	}
	rec.FEN = fen.LookupKey(pos)
	out, err := json.Marshal(rec)
	if err != nil {
		return nil, chess.Position{}, fmt.Errorf("encoding record: %w", err)
	}
	return out, pos, nil
}

func (b *Builder) report(p Progress) {
	if b.progress != nil {
		b.progress(p)
	}
}
