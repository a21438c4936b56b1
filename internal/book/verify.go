package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/search"
)

// ShardError reports a damaged shard found by Verify.
type ShardError struct {
	Shard int
	Err   error
}

func (e *ShardError) Error() string {
	return fmt.Sprintf("shard %d: %v", e.Shard, e.Err)
}

func (e *ShardError) Unwrap() error { return e.Err }

// Verify reads every shard listed in the manifest and checks that its
// records are sorted without duplicates, keyed by valid positions, and
// routed to the shard they are stored in. With quick set only the first and
// last record of each shard are checked. If fn is not nil it is called after
// each shard with that shard's error, if any. The returned error joins one
// *ShardError per damaged shard.
func (b *Book) Verify(ctx context.Context, quick bool, fn func(shard int, err error)) error {
	var errs []error
	for _, id := range b.manifest.Shards {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.verifyShard(ctx, id, quick)
		if err != nil {
			err = &ShardError{Shard: id, Err: err}
			errs = append(errs, err)
		}
		if fn != nil {
			fn(id, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Book) verifyShard(ctx context.Context, id int, quick bool) error {
	data, err := b.store.ReadShard(ctx, id)
	if err != nil {
		return err
	}
	lines := search.SplitLines(data)
	if len(lines) == 0 {
		return errors.New("empty shard")
	}

	check := make([]int, 0, len(lines))
	if quick {
		check = append(check, 0)
		if len(lines) > 1 {
			check = append(check, len(lines)-1)
		}
	} else {
		for i := range lines {
			check = append(check, i)
		}
	}

	keys := make([]string, len(check))
	for j, i := range check {
		keys[j] = search.ExtractFEN(lines[i])
		if keys[j] == "" {
			return fmt.Errorf("line %d: invalid JSON or missing FEN", i+1)
		}
		if j > 0 && keys[j] <= keys[j-1] {
			return fmt.Errorf("line %d: %q is not after %q", i+1, keys[j], keys[j-1])
		}
	}
	for j, i := range check {
		pos, err := fen.Parse(keys[j])
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if got := b.strategy.ShardID(pos, b.manifest.TotalShards); got != id {
			return fmt.Errorf("line %d: %q belongs in shard %d", i+1, keys[j], got)
		}
	}
	return nil
}
