package book

import (
	"fmt"
	"io"
	"time"
)

// Build phases reported through ProgressFunc.
const (
	PhaseDownload = "download"
	PhaseRead     = "read"
	PhaseWrite    = "write"
	PhaseDone     = "done"
)

// Progress describes how far a build, download or publish has got.
type Progress struct {
	Phase           string
	BytesDownloaded int64
	BytesTotal      int64
	RecordsRead     int64
	RecordsSkipped  int64
	RecordsWritten  int64
	ShardsWritten   int
	ShardsTotal     int
	StartTime       time.Time
}

// ProgressFunc is called periodically with progress updates. It may be
// called from several goroutines, but never concurrently.
type ProgressFunc func(Progress)

// PrintProgress returns a ProgressFunc that writes one-line status updates
// to w.
func PrintProgress(w io.Writer) ProgressFunc {
	return func(p Progress) {
		switch p.Phase {
		case PhaseDownload:
			pct := float64(0)
			if p.BytesTotal > 0 {
				pct = float64(p.BytesDownloaded) / float64(p.BytesTotal) * 100
			}
			fmt.Fprintf(w, "\r[download] %s / %s (%.1f%%)",
				FormatBytes(p.BytesDownloaded), FormatBytes(p.BytesTotal), pct)
		case PhaseRead:
			fmt.Fprintf(w, "\r[read] %d records, %d skipped", p.RecordsRead, p.RecordsSkipped)
		case PhaseWrite:
			fmt.Fprintf(w, "\r[write] %d / %d shards, %d records",
				p.ShardsWritten, p.ShardsTotal, p.RecordsWritten)
		case PhaseDone:
			fmt.Fprintf(w, "\n[done] %d records in %d shards (%s)\n",
				p.RecordsWritten, p.ShardsWritten, FormatDuration(time.Since(p.StartTime)))
		}
	}
}

// FormatBytes formats a byte count like "1.5 MB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats d coarsely, like "3m 20s".
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
