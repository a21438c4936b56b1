// Package diskstore keeps a book in a local directory.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/discochess/chessassist/internal/codec"
	"github.com/discochess/chessassist/internal/store"
)

var _ store.Writer = (*Store)(nil)

// Store is a directory-backed book store.
type Store struct {
	root  string
	codec codec.Codec
}

// New opens an existing book directory.
func New(root string, c codec.Codec) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Store{root: root, codec: c}, nil
}

// Create opens root for writing, creating it if needed.
func Create(root string, c codec.Codec) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "shards"), 0o755); err != nil {
		return nil, fmt.Errorf("creating book directory: %w", err)
	}
	return New(root, c)
}

// Root returns the book directory.
func (s *Store) Root() string {
	return s.root
}

// ReadShard reads and decompresses a shard.
func (s *Store) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	raw, err := s.read(ctx, store.ShardName(shardID, s.codec.Extension()))
	if err != nil {
		return nil, err
	}
	return codec.Decode(s.codec, raw)
}

// ReadObject reads a metadata object.
func (s *Store) ReadObject(ctx context.Context, name string) ([]byte, error) {
	return s.read(ctx, name)
}

// WriteShard compresses and writes a shard.
func (s *Store) WriteShard(ctx context.Context, shardID int, data []byte) error {
	enc, err := codec.Encode(s.codec, data)
	if err != nil {
		return err
	}
	return s.write(ctx, store.ShardName(shardID, s.codec.Extension()), enc)
}

// WriteObject writes a metadata object.
func (s *Store) WriteObject(ctx context.Context, name string, data []byte) error {
	return s.write(ctx, name, data)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(name string) (string, error) {
	p := filepath.FromSlash(name)
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("diskstore: object name %q escapes the book directory", name)
	}
	return filepath.Join(s.root, p), nil
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// write replaces the file atomically so readers never see a partial shard.
func (s *Store) write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s: %w", name, err)
	}
	return nil
}
