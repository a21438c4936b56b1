package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/book"
	"github.com/discochess/chessassist/internal/codec"
	"github.com/discochess/chessassist/internal/notation"
	"github.com/discochess/chessassist/internal/search"
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Build, query and publish opening books",
	Long: `An opening book holds pre-computed evaluations from the Lichess
evaluation database, split into sorted, compressed shards. Books live in a
directory, an S3 bucket (s3://bucket/prefix) or a GCS bucket
(gs://bucket/prefix).`,
}

var bookBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a book from the Lichess evaluation database",
	Long: `Download and process the Lichess evaluation database.

This command will:
1. Download the evaluation data from Lichess (or use a local file)
2. Check every position and drop records that are not legal positions
3. Distribute positions to shards using the configured strategy
4. Sort positions within each shard by FEN and compress with zstd

Examples:
  # Build from the default Lichess source
  chessassist book build --output ./book

  # Build from a local file
  chessassist book build --source ./lichess_db_eval.jsonl.zst --output ./book

  # Build straight into a bucket
  chessassist book build --source ./lichess_db_eval.jsonl.zst --output gs://my-bucket/book`,
	Args: cobra.NoArgs,
	RunE: runBookBuild,
}

var bookLookupCmd = &cobra.Command{
	Use:   "lookup FEN",
	Short: "Look up a position in the book",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookLookup,
}

var bookPublishCmd = &cobra.Command{
	Use:   "publish SOURCE DESTINATION",
	Short: "Copy a book to another location",
	Long: `Copy a book between locations, shards first and the manifest last.

Example:
  chessassist book publish ./book s3://my-bucket/book`,
	Args: cobra.ExactArgs(2),
	RunE: runBookPublish,
}

var bookVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the book",
	Long: `Verify that every shard in the book is valid.

This command checks:
- Each shard can be read and decompressed
- Records are sorted by FEN without duplicates
- Every FEN is a valid position stored in the shard it belongs to`,
	Args: cobra.NoArgs,
	RunE: runBookVerify,
}

var bookInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the book's manifest",
	Args:  cobra.NoArgs,
	RunE:  runBookInfo,
}

var (
	sourceURL    string
	output       string
	downloadDir  string
	totalShards  int
	strategyName string
	workers      int
	maxMemoryMB  int
	pubWorkers   int
	lookupJSON   bool
	showTiming   bool
	verifyQuick  bool
)

func init() {
	bookBuildCmd.Flags().StringVar(&sourceURL, "source", book.DefaultSourceURL, "source URL or local file path")
	bookBuildCmd.Flags().StringVarP(&output, "output", "o", "./book", "output directory, s3:// or gs:// location")
	bookBuildCmd.Flags().StringVar(&downloadDir, "download-dir", os.TempDir(), "where to keep the downloaded source")
	bookBuildCmd.Flags().IntVar(&totalShards, "shards", book.DefaultTotalShards, "number of shards to create")
	bookBuildCmd.Flags().StringVar(&strategyName, "strategy", "material", "sharding strategy: material, fnv32")
	bookBuildCmd.Flags().IntVar(&workers, "workers", 4, "number of parallel workers for compression")
	bookBuildCmd.Flags().IntVar(&maxMemoryMB, "max-memory", 2048, "max memory in MB before spilling to disk")

	bookLookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "output the record as JSON")
	bookLookupCmd.Flags().BoolVar(&showTiming, "timing", false, "show lookup timing")

	bookPublishCmd.Flags().IntVar(&pubWorkers, "workers", 8, "number of parallel uploads")

	bookVerifyCmd.Flags().BoolVar(&verifyQuick, "quick", false, "only check first and last entries in each shard")

	bookCmd.AddCommand(bookBuildCmd, bookLookupCmd, bookPublishCmd, bookVerifyCmd, bookInfoCmd)
	rootCmd.AddCommand(bookCmd)
}

func runBookBuild(cmd *cobra.Command, args []string) error {
	strategy, err := book.StrategyByName(strategyName)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Building opening book\n")
	fmt.Fprintf(out, "  Source:     %s\n", sourceURL)
	fmt.Fprintf(out, "  Output:     %s\n", output)
	fmt.Fprintf(out, "  Shards:     %d\n", totalShards)
	fmt.Fprintf(out, "  Strategy:   %s\n", strategy.Name())
	fmt.Fprintf(out, "  Workers:    %d\n", workers)
	fmt.Fprintf(out, "  Max Memory: %d MB\n", maxMemoryMB)
	fmt.Fprintln(out)

	progress := book.PrintProgress(cmd.ErrOrStderr())
	sourcePath := sourceURL
	if strings.HasPrefix(sourceURL, "http://") || strings.HasPrefix(sourceURL, "https://") {
		sourcePath = filepath.Join(downloadDir, path.Base(sourceURL))
		if err := book.NewDownloader().DownloadToFile(ctx, sourceURL, sourcePath, progress); err != nil {
			return err
		}
	}

	dst, err := book.OpenStore(ctx, output, codec.Zstd{}, true)
	if err != nil {
		return err
	}
	defer dst.Close()

	b := book.NewBuilder(
		book.WithTotalShards(totalShards),
		book.WithStrategy(strategy),
		book.WithWorkers(workers),
		book.WithMaxMemoryMB(maxMemoryMB),
		book.WithSource(sourceURL),
		book.WithProgress(progress),
		book.WithBuildLogger(logger),
	)
	m, err := b.BuildFile(ctx, sourcePath, dst)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d (%d skipped)\n", m.RecordCount, m.Skipped)
	fmt.Fprintf(out, "Shards:  %d of %d used\n", m.ShardCount, m.TotalShards)
	return nil
}

// openBook opens the book named by --book without a shard cache.
func openBook(ctx context.Context) (*book.Book, error) {
	if bookLocation == "" {
		return nil, errors.New("no book given; use --book")
	}
	st, err := book.OpenStore(ctx, bookLocation, codec.Zstd{}, false)
	if err != nil {
		return nil, err
	}
	b, err := book.Open(ctx, st, book.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, err
	}
	return b, nil
}

func runBookLookup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pos, err := chessassist.ParsePosition(args[0])
	if err != nil {
		return err
	}
	b, err := openBook(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	start := time.Now()
	rec, err := b.Lookup(ctx, pos)
	elapsed := time.Since(start)
	if errors.Is(err, book.ErrNotFound) {
		return fmt.Errorf("position not found in the book")
	}
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if lookupJSON {
		return json.NewEncoder(out).Encode(rec)
	}
	best, ok := rec.Best()
	fmt.Fprintf(out, "FEN:   %s\n", rec.FEN)
	if ok {
		fmt.Fprintf(out, "Depth: %d (%d knodes)\n", best.Depth, best.Knodes)
		for i, pv := range best.PVs {
			sans, _ := notation.SANLine(pos, pv.Moves())
			fmt.Fprintf(out, "PV %d:  %s %s\n", i+1, pvScore(pv), strings.Join(sans, " "))
		}
	}
	if showTiming {
		fmt.Fprintf(out, "Time:  %s\n", elapsed)
	}
	return nil
}

// pvScore renders a book line's score from White's side.
func pvScore(pv search.PV) string {
	switch {
	case pv.Mate != nil:
		return fmt.Sprintf("#%d", *pv.Mate)
	case pv.CP != nil:
		return fmt.Sprintf("%+.2f", float64(*pv.CP)/100)
	}
	return "?"
}

func runBookPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	src, err := book.OpenStore(ctx, args[0], codec.Zstd{}, false)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := book.OpenStore(ctx, args[1], codec.Zstd{}, true)
	if err != nil {
		return err
	}
	defer dst.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "[Publish] %s -> %s\n", args[0], args[1])
	m, err := book.Publish(ctx, src, dst, pubWorkers, book.PrintProgress(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[Publish] Done: %d shards, %d records\n", m.ShardCount, m.RecordCount)
	return nil
}

func runBookVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBook(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	out := cmd.OutOrStdout()
	m := b.Manifest()
	fmt.Fprintf(out, "Verifying %d shards...\n", len(m.Shards))

	var n, failed int
	err = b.Verify(ctx, verifyQuick, func(id int, err error) {
		n++
		if verbose {
			fmt.Fprintf(out, "  [%d/%d] shard %05d\n", n, len(m.Shards), id)
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "  ERROR: %v\n", err)
		}
	})
	if failed > 0 {
		return fmt.Errorf("%d shards failed verification", failed)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "All shards verified successfully.")
	return nil
}

func runBookInfo(cmd *cobra.Command, args []string) error {
	b, err := openBook(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	m := b.Manifest()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Location:    %s\n", bookLocation)
	fmt.Fprintf(out, "Version:     %d\n", m.Version)
	fmt.Fprintf(out, "Source:      %s\n", m.Source)
	fmt.Fprintf(out, "Built:       %s\n", m.BuiltAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Strategy:    %s\n", m.Strategy)
	fmt.Fprintf(out, "Compression: %s\n", m.Compression)
	fmt.Fprintf(out, "Shards:      %d of %d used\n", m.ShardCount, m.TotalShards)
	fmt.Fprintf(out, "Records:     %d (%d skipped)\n", m.RecordCount, m.Skipped)
	return nil
}
