// Package s3store keeps a book in an S3 (or S3-compatible) bucket.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/chessassist/internal/codec"
	"github.com/discochess/chessassist/internal/store"
)

var _ store.Writer = (*Store)(nil)

// API is the subset of *s3.Client the store uses.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ API = (*s3.Client)(nil)

// Store is an S3 book store.
type Store struct {
	client API
	bucket string
	prefix string
	codec  codec.Codec

	region   string
	endpoint string
}

// Option configures a Store.
type Option func(*Store) error

// WithPrefix places every key under prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		s.prefix = strings.Trim(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Store) error {
		s.region = region
		return nil
	}
}

// WithEndpoint targets an S3-compatible service such as MinIO, using
// path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(s *Store) error {
		s.endpoint = endpoint
		return nil
	}
}

// WithClient uses client instead of one built from the default AWS
// configuration.
func WithClient(client API) Option {
	return func(s *Store) error {
		if client == nil {
			return errors.New("s3store: nil client")
		}
		s.client = client
		return nil
	}
}

// New creates a store for an existing bucket.
func New(ctx context.Context, bucket string, c codec.Codec, opts ...Option) (*Store, error) {
	s := &Store{bucket: bucket, codec: c}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.client != nil {
		return s, nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if s.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(s.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.endpoint != "" {
			o.BaseEndpoint = aws.String(s.endpoint)
			o.UsePathStyle = true
		}
	})
	return s, nil
}

// ReadShard downloads and decompresses a shard.
func (s *Store) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	raw, err := s.get(ctx, store.ShardName(shardID, s.codec.Extension()))
	if err != nil {
		return nil, err
	}
	return codec.Decode(s.codec, raw)
}

// ReadObject downloads a metadata object.
func (s *Store) ReadObject(ctx context.Context, name string) ([]byte, error) {
	return s.get(ctx, name)
}

// WriteShard compresses and uploads a shard.
func (s *Store) WriteShard(ctx context.Context, shardID int, data []byte) error {
	enc, err := codec.Encode(s.codec, data)
	if err != nil {
		return err
	}
	return s.put(ctx, store.ShardName(shardID, s.codec.Extension()), enc, "application/octet-stream")
}

// WriteObject uploads a metadata object.
func (s *Store) WriteObject(ctx context.Context, name string, data []byte) error {
	return s.put(ctx, name, data, "application/json")
}

// Close is a no-op; the S3 client holds no resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading s3://%s/%s: %w", s.bucket, s.key(name), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", s.bucket, s.key(name), err)
	}
	return data, nil
}

func (s *Store) put(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("writing s3://%s/%s: %w", s.bucket, s.key(name), err)
	}
	return nil
}
