package target

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"gitlab.bluewillows.net/root/linesync/pkg/httputil"
	"gitlab.bluewillows.net/root/linesync/pkg/sshutil"
)

// Fetcher retrieves the raw body behind a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, u *url.URL) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	return f(ctx, u)
}

// HTTPFetcher fetches http and https sources.
type HTTPFetcher struct {
	Client  *http.Client
	MaxSize int64
}

// Fetch issues a GET and returns the body of a 2xx response.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = httputil.DefaultClient()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, err
	}
	return httputil.ReadBody(resp.Body, f.MaxSize)
}

// FileFetcher reads file:// sources from the local filesystem.
type FileFetcher struct {
	MaxSize int64
}

// Fetch reads the file named by the URL path.
func (f *FileFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(u.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return httputil.ReadBody(file, f.MaxSize)
}

// SFTPFetcher reads sftp:// sources. Config supplies credentials and
// defaults; the URL supplies host, port, user and path.
type SFTPFetcher struct {
	Config  sshutil.Config
	MaxSize int64
	Logger  *slog.Logger
}

// Fetch connects, reads the remote file and disconnects.
func (f *SFTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	cfg, path, err := f.Config.WithURL(u.String())
	if err != nil {
		return nil, err
	}
	limit := f.MaxSize
	if limit <= 0 {
		limit = httputil.DefaultMaxBodySize
	}
	return sshutil.Fetch(ctx, cfg, path, limit, f.Logger)
}
