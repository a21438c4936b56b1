package book

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Downloader fetches evaluation dumps over HTTP, resuming partial files.
type Downloader struct {
	client *http.Client
}

// DownloadOption configures a Downloader.
type DownloadOption func(*Downloader)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) DownloadOption {
	return func(d *Downloader) { d.client = c }
}

// NewDownloader creates a Downloader. The default client has no overall
// timeout, since dumps run to tens of gigabytes, but bounds each handshake.
func NewDownloader(opts ...DownloadOption) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadToFile downloads url into path. If path already holds a prefix of
// the content, only the rest is requested.
func (d *Downloader) DownloadToFile(ctx context.Context, url, path string, progress ProgressFunc) error {
	var have int64
	if info, err := os.Stat(path); err == nil {
		have = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if have > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", have))
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	flags := os.O_WRONLY | os.O_CREATE
	total := resp.ContentLength
	switch resp.StatusCode {
	case http.StatusPartialContent:
		flags |= os.O_APPEND
		var start, end int64
		if _, err := fmt.Sscanf(resp.Header.Get("Content-Range"), "bytes %d-%d/%d", &start, &end, &total); err != nil {
			total = have + resp.ContentLength
		}
	case http.StatusOK:
		flags |= os.O_TRUNC
		have = 0
	case http.StatusRequestedRangeNotSatisfiable:
		// The file is already complete.
		return nil
	default:
		return fmt.Errorf("downloading: unexpected status %s", resp.Status)
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	p := Progress{Phase: PhaseDownload, BytesDownloaded: have, BytesTotal: total, StartTime: time.Now()}
	buf := make([]byte, 32<<10)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing file: %w", werr)
			}
			p.BytesDownloaded += int64(n)
			if progress != nil {
				progress(p)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
	}
	return f.Close()
}
