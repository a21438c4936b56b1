package book

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/codec"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/shard/fnvshard"
	"github.com/discochess/chessassist/internal/stats"
	"github.com/discochess/chessassist/internal/store"
	"github.com/discochess/chessassist/internal/store/diskstore"
	"github.com/discochess/chessassist/internal/store/memstore"
)

const (
	afterE4    = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	afterE4Key = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -"
)

// dump is a small evaluation file: two good records, a duplicate, a
// position without kings and a line that is not JSON.
var dump = strings.Join([]string{
	`{"fen":"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -","evals":[{"pvs":[{"cp":18,"line":"e2e4 e7e5 g1f3"}],"knodes":1000,"depth":30},{"pvs":[{"cp":25,"line":"d2d4"}],"knodes":50,"depth":12}]}`,
	``,
	`{"fen":"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3","evals":[{"pvs":[{"cp":-30,"line":"c7c5"},{"mate":-12,"line":"e7e5"}],"knodes":800,"depth":28}]}`,
	`{"fen":"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -","evals":[{"pvs":[{"cp":99,"line":"a2a3"}],"knodes":1,"depth":1}]}`,
	`{"fen":"8/8/8/8/8/8/8/8 w - -","evals":[]}`,
	`not json`,
}, "\n")

func buildTestBook(t *testing.T, opts ...BuildOption) (*memstore.Store, *Manifest) {
	t.Helper()
	dst := memstore.New()
	opts = append([]BuildOption{WithTotalShards(16), WithWorkers(2)}, opts...)
	m, err := NewBuilder(opts...).Build(context.Background(), strings.NewReader(dump), dst)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return dst, m
}

func TestBuilder_Build(t *testing.T) {
	dst, m := buildTestBook(t, WithSource("test.jsonl"))

	if m.RecordCount != 2 || m.Skipped != 2 {
		t.Errorf("RecordCount = %d, Skipped = %d; want 2 and 2", m.RecordCount, m.Skipped)
	}
	if m.ShardCount != len(m.Shards) || m.ShardCount != dst.Len() {
		t.Errorf("ShardCount = %d, Shards = %v, stored = %d", m.ShardCount, m.Shards, dst.Len())
	}
	if m.Strategy != "material" || m.Compression != "zstd" || m.Source != "test.jsonl" || m.TotalShards != 16 {
		t.Errorf("manifest = %+v", m)
	}

	// The stored record carries the lookup key, without the unusable e3.
	pos, _ := fen.Parse(afterE4)
	id := NewBuilder().strategy.ShardID(pos, 16)
	data, err := dst.ReadShard(context.Background(), id)
	if err != nil {
		t.Fatalf("ReadShard(%d) error = %v", id, err)
	}
	if !bytes.Contains(data, []byte(`"fen":"`+afterE4Key+`"`)) {
		t.Errorf("shard %d = %s, want the canonical FEN", id, data)
	}
}

func TestBuilder_Spill(t *testing.T) {
	dir := t.TempDir()
	_, spilled := buildTestBook(t, WithMaxMemoryMB(0), WithTempDir(dir))
	_, inMemory := buildTestBook(t)

	opts := cmp.Options{cmpIgnoreTime}
	if diff := cmp.Diff(inMemory, spilled, opts); diff != "" {
		t.Errorf("spilled build differs (-memory +spilled):\n%s", diff)
	}
}

var cmpIgnoreTime = cmp.FilterPath(func(p cmp.Path) bool {
	return p.Last().String() == ".BuiltAt"
}, cmp.Ignore())

func TestBuilder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewBuilder().Build(ctx, strings.NewReader(dump), memstore.New()); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestBuilder_BuildFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evals.jsonl.zst")
	enc, err := codec.Encode(codec.Zstd{}, []byte(dump))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, enc, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewBuilder(WithTotalShards(4)).BuildFile(context.Background(), src, memstore.New())
	if err != nil {
		t.Fatalf("BuildFile() error = %v", err)
	}
	if m.RecordCount != 2 || m.Source != "evals.jsonl.zst" {
		t.Errorf("manifest = %+v", m)
	}
}

type countingStats struct {
	stats.Noop
	mu     sync.Mutex
	counts map[string]int64
}

func (c *countingStats) IncCounter(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name] += delta
}

func TestBook_Lookup(t *testing.T) {
	dst, _ := buildTestBook(t)
	st := &countingStats{counts: map[string]int64{}}
	b, err := Open(context.Background(), dst, WithStats(st))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()
	ctx := context.Background()

	rec, err := b.Lookup(ctx, chess.StartingPosition())
	if err != nil {
		t.Fatalf("Lookup(start) error = %v", err)
	}
	best, ok := rec.Best()
	if !ok || best.Depth != 30 || *best.PVs[0].CP != 18 {
		t.Errorf("Best() = %+v, %v; want the first depth-30 record", best, ok)
	}
	if got := best.PVs[0].Moves(); !cmp.Equal(got, []string{"e2e4", "e7e5", "g1f3"}) {
		t.Errorf("Moves() = %v", got)
	}

	rec, err = b.LookupFEN(ctx, afterE4)
	if err != nil {
		t.Fatalf("LookupFEN(after e4) error = %v", err)
	}
	if rec.FEN != afterE4Key || *rec.Evals[0].PVs[1].Mate != -12 {
		t.Errorf("record = %+v", rec)
	}

	if _, err := b.LookupFEN(ctx, "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq - 0 1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LookupFEN(after d4) error = %v, want ErrNotFound", err)
	}
	if _, err := b.LookupFEN(ctx, "not a fen"); !errors.Is(err, fen.ErrInvalidFEN) {
		t.Errorf("LookupFEN(garbage) error = %v, want ErrInvalidFEN", err)
	}

	want := map[string]int64{
		stats.MetricBookLookups: 3,
		stats.MetricBookHits:    2,
		stats.MetricBookMisses:  1,
	}
	for name, n := range want {
		if st.counts[name] != n {
			t.Errorf("%s = %d, want %d", name, st.counts[name], n)
		}
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, memstore.New()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Open(empty) error = %v, want store.ErrNotFound", err)
	}

	s := memstore.New()
	s.WriteObject(ctx, store.ManifestName, []byte(`{"version":9,"total_shards":4}`))
	if _, err := Open(ctx, s); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Open(v9) error = %v, want ErrUnsupportedVersion", err)
	}

	s.WriteObject(ctx, store.ManifestName, []byte(`{"version":1,"total_shards":4,"strategy":"crc"}`))
	if _, err := Open(ctx, s); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Open(crc) error = %v, want ErrUnknownStrategy", err)
	}
}

func TestPublish(t *testing.T) {
	src, m := buildTestBook(t, WithStrategy(fnvshard.New()))
	dir := t.TempDir()
	dst, err := diskstore.Create(dir, codec.Zstd{})
	if err != nil {
		t.Fatal(err)
	}

	var last Progress
	got, err := Publish(context.Background(), src, dst, 3, func(p Progress) { last = p })
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if diff := cmp.Diff(m, got, cmpIgnoreTime); diff != "" {
		t.Errorf("published manifest differs (-built +published):\n%s", diff)
	}
	if last.Phase != PhaseDone || last.ShardsWritten != len(m.Shards) {
		t.Errorf("last progress = %+v", last)
	}

	b, err := Open(context.Background(), dst)
	if err != nil {
		t.Fatalf("Open(published) error = %v", err)
	}
	defer b.Close()
	if _, err := b.Lookup(context.Background(), chess.StartingPosition()); err != nil {
		t.Errorf("Lookup() in published book error = %v", err)
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in                     string
		scheme, bucket, prefix string
		wantErr                bool
	}{
		{in: "./data"},
		{in: "/var/books/eval"},
		{in: "s3://books", scheme: "s3", bucket: "books"},
		{in: "s3://books/eval/v1/", scheme: "s3", bucket: "books", prefix: "eval/v1"},
		{in: "gs://lichess-evals/shards", scheme: "gs", bucket: "lichess-evals", prefix: "shards"},
		{in: "gs:///nobucket", wantErr: true},
		{in: "ftp://host/x", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			scheme, bucket, prefix, err := parseLocation(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLocation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if scheme != tt.scheme || bucket != tt.bucket || prefix != tt.prefix {
				t.Errorf("parseLocation() = %q, %q, %q", scheme, bucket, prefix)
			}
		})
	}
}

func TestOpenStore_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "book")
	if _, err := OpenStore(context.Background(), dir, codec.Zstd{}, false); err == nil {
		t.Error("OpenStore() of a missing directory succeeded")
	}
	s, err := OpenStore(context.Background(), dir, codec.Zstd{}, true)
	if err != nil {
		t.Fatalf("OpenStore(create) error = %v", err)
	}
	if _, ok := s.(*diskstore.Store); !ok {
		t.Errorf("OpenStore() = %T, want *diskstore.Store", s)
	}
}

func TestDownloader_Resume(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789"), 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "evals.jsonl.zst", time.Time{}, bytes.NewReader(content))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "evals.jsonl.zst")
	if err := os.WriteFile(path, content[:1234], 0o644); err != nil {
		t.Fatal(err)
	}

	var last Progress
	d := NewDownloader(WithHTTPClient(srv.Client()))
	if err := d.DownloadToFile(context.Background(), srv.URL, path, func(p Progress) { last = p }); err != nil {
		t.Fatalf("DownloadToFile() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("downloaded %d bytes, want %d", len(got), len(content))
	}
	if last.BytesDownloaded != int64(len(content)) || last.BytesTotal != int64(len(content)) {
		t.Errorf("last progress = %+v", last)
	}

	// A complete file is left alone.
	if err := d.DownloadToFile(context.Background(), srv.URL, path, nil); err != nil {
		t.Errorf("DownloadToFile(complete) error = %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KB"},
		{5 << 30, "5.0 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3*time.Minute + 20*time.Second, "3m 20s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
