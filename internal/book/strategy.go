package book

import (
	"errors"
	"fmt"

	"github.com/discochess/chessassist/internal/shard"
	"github.com/discochess/chessassist/internal/shard/fnvshard"
	"github.com/discochess/chessassist/internal/shard/materialshard"
)

// ErrUnknownStrategy is returned for shard strategy names this build does
// not know.
var ErrUnknownStrategy = errors.New("book: unknown shard strategy")

// StrategyByName returns the shard strategy recorded in a manifest.
func StrategyByName(name string) (shard.Strategy, error) {
	switch name {
	case materialshard.New().Name(), "":
		return materialshard.New(), nil
	case fnvshard.New().Name():
		return fnvshard.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
