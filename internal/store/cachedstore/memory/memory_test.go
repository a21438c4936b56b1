package memory

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/discochess/chessassist/internal/stats"
	"github.com/discochess/chessassist/internal/stats/promstats"
	"github.com/discochess/chessassist/internal/store/cachedstore"
)

func TestBackend_GetSet(t *testing.T) {
	b, err := New(10, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := b.Get(1); ok {
		t.Error("Get() found a shard in an empty cache")
	}
	b.Set(1, []byte("hello"))
	if data, ok := b.Get(1); !ok || string(data) != "hello" {
		t.Errorf("Get() = %q, %v", data, ok)
	}
}

func TestBackend_Eviction(t *testing.T) {
	b, err := New(2, nil)
	if err != nil {
		t.Fatal(err)
	}
	b.Set(1, []byte("one"))
	b.Set(2, []byte("two"))
	b.Get(1) // 2 is now the least recently used
	b.Set(3, []byte("three"))

	if _, ok := b.Get(2); ok {
		t.Error("shard 2 survived eviction")
	}
	for _, id := range []int{1, 3} {
		if _, ok := b.Get(id); !ok {
			t.Errorf("shard %d was evicted", id)
		}
	}

	want := cachedstore.Stats{Hits: 3, Misses: 1, Evictions: 1, Size: 2}
	if got := b.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := New(n, nil); err == nil {
			t.Errorf("New(%d) succeeded", n)
		}
	}
}

func TestBackend_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	b, err := New(4, promstats.New(reg))
	if err != nil {
		t.Fatal(err)
	}
	b.Set(1, []byte("x"))
	b.Get(1)
	b.Get(2)

	if got, err := testutil.GatherAndCount(reg, stats.MetricCacheHits, stats.MetricCacheMisses, stats.MetricCacheSize); err != nil || got != 3 {
		t.Errorf("GatherAndCount() = %d, %v; want 3 series", got, err)
	}
}
