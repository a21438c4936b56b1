package gcsstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"cloud.google.com/go/storage"

	"github.com/discochess/chessassist/internal/codec"
	"github.com/discochess/chessassist/internal/store"
)

// fakeBucket keeps objects in memory and commits writes on Close, like GCS.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *fakeBucket) NewReader(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBucket) NewWriter(ctx context.Context, key string) io.WriteCloser {
	return &fakeWriter{bucket: b, key: key}
}

type fakeWriter struct {
	bytes.Buffer
	bucket *fakeBucket
	key    string
}

func (w *fakeWriter) Close() error {
	w.bucket.mu.Lock()
	defer w.bucket.mu.Unlock()
	w.bucket.objects[w.key] = w.Bytes()
	return nil
}

func newTestStore(prefix string) (*Store, *fakeBucket) {
	b := &fakeBucket{objects: map[string][]byte{}}
	s := &Store{bucket: b, name: "books", codec: codec.Zstd{}}
	WithPrefix(prefix)(s)
	return s, b
}

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			WithPrefix(tt.input)(s)
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s, b := newTestStore("data/v1")
	ctx := context.Background()

	data := []byte(`{"fen":"8/8/8/8/8/8/8/K6k w - -","evals":[]}` + "\n")
	if err := s.WriteShard(ctx, 42, data); err != nil {
		t.Fatalf("WriteShard() error = %v", err)
	}
	if _, ok := b.objects["data/v1/shards/00042.zst"]; !ok {
		t.Fatal("shard not stored under data/v1/shards/00042.zst")
	}
	got, err := s.ReadShard(ctx, 42)
	if err != nil {
		t.Fatalf("ReadShard() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("ReadShard() = %q, want %q", got, data)
	}

	if err := s.WriteObject(ctx, store.ManifestName, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if obj, err := s.ReadObject(ctx, store.ManifestName); err != nil || string(obj) != "{}" {
		t.Errorf("ReadObject() = %q, %v", obj, err)
	}
}

func TestStore_NotFound(t *testing.T) {
	s, _ := newTestStore("")
	if _, err := s.ReadShard(context.Background(), 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ReadShard() error = %v, want ErrNotFound", err)
	}
}

func TestStore_CloseWithoutClient(t *testing.T) {
	s, _ := newTestStore("")
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
