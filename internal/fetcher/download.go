// Package fetcher downloads geometry archives over HTTP or FTP. Census
// TIGER files are served from both www2.census.gov (HTTP) and the ftp2
// mirror, so the scheme selects the transport.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Downloader fetches remote files to local paths with per-host politeness.
type Downloader struct {
	client  *http.Client
	limiter *rate.Limiter
	retries int
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = c }
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(r rate.Limit, burst int) DownloaderOption {
	return func(d *Downloader) { d.limiter = rate.NewLimiter(r, burst) }
}

// NewDownloader creates a Downloader with a 5-minute timeout and a polite
// default rate against the Census servers.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client:  &http.Client{Timeout: 5 * time.Minute},
		limiter: rate.NewLimiter(2, 2),
		retries: 3,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches rawURL to dest, dispatching on the URL scheme.
func (d *Downloader) Download(ctx context.Context, rawURL, dest string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrap(err, "fetcher: parse url")
	}

	log := zap.L().With(zap.String("component", "fetcher"), zap.String("url", rawURL))
	log.Info("downloading")

	switch u.Scheme {
	case "http", "https":
		return d.downloadHTTP(ctx, rawURL, dest)
	case "ftp":
		return downloadFTP(ctx, u, dest)
	default:
		return eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

func (d *Downloader) downloadHTTP(ctx context.Context, rawURL, dest string) error {
	var lastErr error
	for attempt := 0; attempt < d.retries; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "fetcher: rate limiter")
		}

		if err := d.tryHTTP(ctx, rawURL, dest); err != nil {
			lastErr = err
			zap.L().Warn("fetcher: download attempt failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}
		return nil
	}
	return eris.Wrapf(lastErr, "fetcher: download failed after %d attempts", d.retries)
}

func (d *Downloader) tryHTTP(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download returned status %d", resp.StatusCode)
	}

	return writeFile(dest, resp.Body)
}

func writeFile(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, r); err != nil {
		return eris.Wrap(err, "write file")
	}
	return nil
}
