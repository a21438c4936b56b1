package book

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/discochess/chessassist/internal/store"
)

// Publish copies the book in src to dst, shards first and the manifest
// last, so readers of dst never see a manifest naming missing shards.
func Publish(ctx context.Context, src store.Store, dst store.Writer, workers int, progress ProgressFunc) (*Manifest, error) {
	m, err := readManifest(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("book: %w", err)
	}

	var mu sync.Mutex
	p := Progress{Phase: PhaseWrite, ShardsTotal: len(m.Shards), RecordsWritten: m.RecordCount, StartTime: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, id := range m.Shards {
		g.Go(func() error {
			data, err := src.ReadShard(gctx, id)
			if err != nil {
				return fmt.Errorf("book: reading shard %d: %w", id, err)
			}
			if err := dst.WriteShard(gctx, id, data); err != nil {
				return fmt.Errorf("book: writing shard %d: %w", id, err)
			}
			if progress != nil {
				mu.Lock()
				p.ShardsWritten++
				progress(p)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := writeManifest(ctx, dst, m); err != nil {
		return nil, fmt.Errorf("book: %w", err)
	}
	if progress != nil {
		p.Phase = PhaseDone
		progress(p)
	}
	return m, nil
}
