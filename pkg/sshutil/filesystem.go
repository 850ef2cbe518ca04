package sshutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/sftp"
)

// ErrFileTooLarge is returned when a remote file exceeds the read limit.
var ErrFileTooLarge = errors.New("remote file exceeds size limit")

// Reader reads files over an SFTP session on a connected Client.
type Reader struct {
	client *Client
	logger *slog.Logger
}

// NewReader returns a Reader bound to client.
func NewReader(client *Client, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{client: client, logger: logger}
}

// ReadFile reads at most limit bytes of the remote file at path.
// The SFTP session is opened and closed per call.
func (r *Reader) ReadFile(ctx context.Context, path string, limit int64) ([]byte, error) {
	conn, err := r.client.connection()
	if err != nil {
		return nil, err
	}

	sc, err := sftp.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("creating SFTP client: %w", err)
	}
	defer func() { _ = sc.Close() }()

	// sftp calls do not take a context; closing the session unblocks them.
	stop := context.AfterFunc(ctx, func() { _ = sc.Close() })
	defer stop()

	f, err := sc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w", path, ErrFileTooLarge)
	}

	r.logger.Debug("read remote file",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)
	return data, nil
}

// Fetch connects with cfg, reads path and disconnects.
func Fetch(ctx context.Context, cfg Config, path string, limit int64, logger *slog.Logger) ([]byte, error) {
	client, err := NewClient(cfg, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	return NewReader(client, logger).ReadFile(ctx, path, limit)
}
