package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/discochess/chessassist/internal/store"
)

// ManifestVersion is the manifest format written by this package.
const ManifestVersion = 1

// ErrUnsupportedVersion is returned for manifests written by a newer format.
var ErrUnsupportedVersion = errors.New("book: unsupported manifest version")

// Manifest describes a built book.
type Manifest struct {
	Version     int       `json:"version"`
	TotalShards int       `json:"total_shards"`
	Strategy    string    `json:"strategy"`
	Compression string    `json:"compression"`
	RecordCount int64     `json:"record_count"`
	Skipped     int64     `json:"skipped,omitempty"`
	ShardCount  int       `json:"shard_count"`
	Shards      []int     `json:"shards"`
	BuiltAt     time.Time `json:"built_at"`
	Source      string    `json:"source,omitempty"`
}

func readManifest(ctx context.Context, s store.Store) (*Manifest, error) {
	data, err := s.ReadObject(ctx, store.ManifestName)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version > ManifestVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}
	if m.TotalShards <= 0 {
		return nil, fmt.Errorf("parsing manifest: total_shards must be positive, got %d", m.TotalShards)
	}
	return &m, nil
}

func writeManifest(ctx context.Context, w store.Writer, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := w.WriteObject(ctx, store.ManifestName, data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
