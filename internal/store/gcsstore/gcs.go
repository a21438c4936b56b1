// Package gcsstore keeps a book in a Google Cloud Storage bucket.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/discochess/chessassist/internal/codec"
	"github.com/discochess/chessassist/internal/store"
)

var _ store.Writer = (*Store)(nil)

// bucket is the part of a bucket handle the store needs.
type bucket interface {
	NewReader(ctx context.Context, key string) (io.ReadCloser, error)
	NewWriter(ctx context.Context, key string) io.WriteCloser
}

type gcsBucket struct {
	h *storage.BucketHandle
}

func (b gcsBucket) NewReader(ctx context.Context, key string) (io.ReadCloser, error) {
	return b.h.Object(key).NewReader(ctx)
}

func (b gcsBucket) NewWriter(ctx context.Context, key string) io.WriteCloser {
	return b.h.Object(key).NewWriter(ctx)
}

// Store is a GCS book store.
type Store struct {
	client *storage.Client
	bucket bucket
	name   string
	prefix string
	codec  codec.Codec
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix places every object under prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.Trim(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// New creates a store for an existing bucket using application default
// credentials.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	s := &Store{
		client: client,
		bucket: gcsBucket{client.Bucket(bucketName)},
		name:   bucketName,
		codec:  c,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ReadShard downloads and decompresses a shard.
func (s *Store) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	raw, err := s.read(ctx, store.ShardName(shardID, s.codec.Extension()))
	if err != nil {
		return nil, err
	}
	return codec.Decode(s.codec, raw)
}

// ReadObject downloads a metadata object.
func (s *Store) ReadObject(ctx context.Context, name string) ([]byte, error) {
	return s.read(ctx, name)
}

// WriteShard compresses and uploads a shard.
func (s *Store) WriteShard(ctx context.Context, shardID int, data []byte) error {
	enc, err := codec.Encode(s.codec, data)
	if err != nil {
		return err
	}
	return s.write(ctx, store.ShardName(shardID, s.codec.Extension()), enc)
}

// WriteObject uploads a metadata object.
func (s *Store) WriteObject(ctx context.Context, name string, data []byte) error {
	return s.write(ctx, name, data)
}

// Close releases the GCS client.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := s.bucket.NewReader(ctx, s.key(name))
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s: %w", s.name, s.key(name), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s: %w", s.name, s.key(name), err)
	}
	return data, nil
}

// write uploads data; the object only becomes visible once Close succeeds.
func (s *Store) write(ctx context.Context, name string, data []byte) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.bucket.NewWriter(ctx, s.key(name))
	if _, err := w.Write(data); err != nil {
		cancel()
		w.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", s.name, s.key(name), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing gs://%s/%s: %w", s.name, s.key(name), err)
	}
	return nil
}
