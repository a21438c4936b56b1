package cachedstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/discochess/chessassist/internal/store"
)

type fakeBackend struct {
	mu     sync.Mutex
	data   map[int][]byte
	hits   int64
	misses int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[int][]byte)}
}

func (b *fakeBackend) Get(shardID int) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if data, ok := b.data[shardID]; ok {
		b.hits++
		return data, true
	}
	b.misses++
	return nil, false
}

func (b *fakeBackend) Set(shardID int, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[shardID] = data
}

func (b *fakeBackend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Hits: b.hits, Misses: b.misses, Size: len(b.data)}
}

// slowStore counts reads and optionally blocks until release is closed.
type slowStore struct {
	data    map[int][]byte
	reads   atomic.Int32
	release chan struct{}
}

func (s *slowStore) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	s.reads.Add(1)
	if s.release != nil {
		<-s.release
	}
	if data, ok := s.data[shardID]; ok {
		return data, nil
	}
	return nil, store.ErrNotFound
}

func (s *slowStore) ReadObject(ctx context.Context, name string) ([]byte, error) {
	if name == store.ManifestName {
		return []byte("{}"), nil
	}
	return nil, store.ErrNotFound
}

func (s *slowStore) Close() error { return nil }

func TestStore_HitAndMiss(t *testing.T) {
	backend := newFakeBackend()
	under := &slowStore{data: map[int][]byte{1: []byte("underlying")}}
	backend.Set(2, []byte("cached"))
	s := New(under, backend)
	ctx := context.Background()

	if data, err := s.ReadShard(ctx, 2); err != nil || string(data) != "cached" {
		t.Errorf("ReadShard(2) = %q, %v", data, err)
	}
	for range 2 {
		if data, err := s.ReadShard(ctx, 1); err != nil || string(data) != "underlying" {
			t.Errorf("ReadShard(1) = %q, %v", data, err)
		}
	}
	if n := under.reads.Load(); n != 1 {
		t.Errorf("underlying reads = %d, want 1", n)
	}
	if st := s.Stats(); st.Hits != 2 || st.Misses != 1 {
		t.Errorf("Stats() = %+v, want 2 hits and 1 miss", st)
	}
}

func TestStore_NotFoundIsNotCached(t *testing.T) {
	backend := newFakeBackend()
	under := &slowStore{data: map[int][]byte{}}
	s := New(under, backend)

	for range 2 {
		if _, err := s.ReadShard(context.Background(), 999); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("ReadShard() error = %v, want ErrNotFound", err)
		}
	}
	if n := under.reads.Load(); n != 2 {
		t.Errorf("underlying reads = %d, want 2", n)
	}
}

func TestStore_ConcurrentMissesShareOneRead(t *testing.T) {
	under := &slowStore{data: map[int][]byte{5: []byte("five")}, release: make(chan struct{})}
	s := New(under, newFakeBackend())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if data, err := s.ReadShard(context.Background(), 5); err != nil || string(data) != "five" {
				t.Errorf("ReadShard() = %q, %v", data, err)
			}
		}()
	}
	// Give the readers time to pile up behind the first one.
	time.Sleep(50 * time.Millisecond)
	close(under.release)
	wg.Wait()

	if n := under.reads.Load(); n != 1 {
		t.Errorf("underlying reads = %d, want 1", n)
	}
}

func TestStore_ReadObjectPassesThrough(t *testing.T) {
	s := New(&slowStore{}, newFakeBackend())
	if data, err := s.ReadObject(context.Background(), store.ManifestName); err != nil || string(data) != "{}" {
		t.Errorf("ReadObject() = %q, %v", data, err)
	}
}

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		name   string
		hits   int64
		misses int64
		want   float64
	}{
		{"no requests", 0, 0, 0},
		{"all hits", 10, 0, 100},
		{"all misses", 0, 10, 0},
		{"three quarters", 3, 1, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Stats{Hits: tt.hits, Misses: tt.misses}).HitRate(); got != tt.want {
				t.Errorf("HitRate() = %v, want %v", got, tt.want)
			}
		})
	}
}
