package book

import (
	"context"
	"fmt"
	"strings"

	"github.com/discochess/chessassist/internal/codec"
	"github.com/discochess/chessassist/internal/store"
	"github.com/discochess/chessassist/internal/store/diskstore"
	"github.com/discochess/chessassist/internal/store/gcsstore"
	"github.com/discochess/chessassist/internal/store/s3store"
)

// OpenStore opens the store named by location: "s3://bucket/prefix",
// "gs://bucket/prefix" or a local directory. With create set, a missing
// local directory is created; remote buckets must already exist.
func OpenStore(ctx context.Context, location string, c codec.Codec, create bool) (store.Writer, error) {
	scheme, bucket, prefix, err := parseLocation(location)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case "s3":
		return s3store.New(ctx, bucket, c, s3store.WithPrefix(prefix))
	case "gs":
		return gcsstore.New(ctx, bucket, c, gcsstore.WithPrefix(prefix))
	}
	if create {
		return diskstore.Create(location, c)
	}
	return diskstore.New(location, c)
}

// parseLocation splits "scheme://bucket/prefix". Plain paths have an empty
// scheme.
func parseLocation(location string) (scheme, bucket, prefix string, err error) {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		if location == "" {
			return "", "", "", fmt.Errorf("book: empty location")
		}
		return "", "", "", nil
	}
	if scheme != "s3" && scheme != "gs" {
		return "", "", "", fmt.Errorf("book: unsupported location scheme %q", scheme)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", "", fmt.Errorf("book: location %q has no bucket", location)
	}
	return scheme, bucket, strings.Trim(prefix, "/"), nil
}
