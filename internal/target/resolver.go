// Package target resolves the desired CNAME target for each line from its
// published source.
//
// A failed fetch, an empty body or an invalid host all mean "no target": the
// line is skipped for this pass. Resolution never returns an error to the
// caller; the reason is kept on the Resolution for logging and reporting.
package target

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/linesync/pkg/dnsname"
)

// DefaultTimeout bounds a single source fetch.
const DefaultTimeout = 10 * time.Second

// Reasons a line has no target.
var (
	ErrFetch             = errors.New("fetching target source failed")
	ErrEmpty             = errors.New("target source yielded no host")
	ErrInvalidTarget     = errors.New("target is not a valid host name")
	ErrUnsupportedScheme = errors.New("unsupported source scheme")
)

// Resolution is the outcome of resolving one line.
type Resolution struct {
	Line   string
	Source string

	// Target is the normalized host, empty when no target was found.
	Target string

	// Reason explains a missing target.
	Reason error

	Duration time.Duration
}

// Found reports whether a target was resolved.
func (r Resolution) Found() bool {
	return r.Target != ""
}

// Resolver fetches and parses per-line target sources.
type Resolver struct {
	fetchers      map[string]Fetcher
	rule          ParseRule
	commentMarker string
	timeout       time.Duration
	logger        *slog.Logger
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithParseRule sets the parse rule applied to every source.
func WithParseRule(rule ParseRule) Option {
	return func(r *Resolver) {
		if rule != "" {
			r.rule = rule
		}
	}
}

// WithCommentMarker sets the comment marker used by RuleFirstToken.
func WithCommentMarker(marker string) Option {
	return func(r *Resolver) {
		if marker != "" {
			r.commentMarker = marker
		}
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithFetcher registers a fetcher for a URL scheme, replacing any default.
func WithFetcher(scheme string, f Fetcher) Option {
	return func(r *Resolver) {
		r.fetchers[strings.ToLower(scheme)] = f
	}
}

// NewResolver returns a Resolver with http, https and file fetchers.
// sftp sources need WithFetcher("sftp", ...).
func NewResolver(opts ...Option) *Resolver {
	httpFetcher := &HTTPFetcher{}
	r := &Resolver{
		fetchers: map[string]Fetcher{
			"http":  httpFetcher,
			"https": httpFetcher,
			"file":  &FileFetcher{},
		},
		rule:          RuleFirstLine,
		commentMarker: DefaultCommentMarker,
		timeout:       DefaultTimeout,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches source and extracts the target for line.
func (r *Resolver) Resolve(ctx context.Context, line, source string) Resolution {
	start := time.Now()
	res := Resolution{Line: line, Source: source}

	host, err := r.resolve(ctx, source)
	res.Duration = time.Since(start)
	if err != nil {
		res.Reason = err
		r.logger.Warn("no target for line",
			slog.String("line", line),
			slog.String("source", redact(source)),
			slog.String("reason", err.Error()),
		)
		return res
	}

	res.Target = host
	r.logger.Debug("resolved target",
		slog.String("line", line),
		slog.String("target", host),
		slog.Duration("elapsed", res.Duration),
	)
	return res
}

func (r *Resolver) resolve(ctx context.Context, source string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	fetcher, ok := r.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := fetcher.Fetch(fetchCtx, u)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	raw, ok := Extract(string(body), r.rule, r.commentMarker)
	if !ok {
		return "", ErrEmpty
	}

	if err := dnsname.Validate(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	return dnsname.Normalize(raw), nil
}

func redact(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return source
	}
	return u.Redacted()
}
