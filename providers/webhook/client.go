// Package webhook implements the line-aware provider interface on top of a
// small JSON HTTP contract, for DNS backends without a native provider.
//
// Endpoints, relative to the configured URL:
//
//	GET    /ping
//	GET    /zones
//	GET    /recordsets?zone_id=&name=&type=&line=
//	POST   /recordsets
//	PUT    /recordsets/{id}
//	DELETE /recordsets/{id}?zone_id=
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/linesync/pkg/httputil"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// Zone is a zone as returned by GET /zones.
type Zone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RecordSet is the wire form of a record set. Line is omitted for records
// on the backend's default line.
type RecordSet struct {
	ID      string   `json:"id,omitempty"`
	ZoneID  string   `json:"zone_id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Line    *string  `json:"line,omitempty"`
	Records []string `json:"records"`
	TTL     int      `json:"ttl"`
}

// ErrorResponse is the expected error response format from webhooks.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Client is a webhook HTTP client.
type Client struct {
	baseURL    string
	authHeader string
	authToken  string
	httpClient *http.Client
	logger     *slog.Logger
	retries    int
	retryDelay time.Duration
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new webhook client from cfg.
func NewClient(cfg *Config, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		authHeader: cfg.AuthHeader,
		authToken:  cfg.AuthToken,
		httpClient: httputil.DefaultClient(),
		logger:     slog.Default(),
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// isRetryable returns true if the status code indicates a transient failure.
func isRetryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// doRequest sends a JSON request, retrying transient failures of GET, PUT
// and DELETE, and decodes a 2xx response into out when out is non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	reqURL := c.baseURL + path
	c.logger.Debug("making webhook request",
		slog.String("method", method),
		slog.String("url", reqURL),
	)

	// A create is not idempotent: a 502 may hide a committed record.
	retries := c.retries
	if method == http.MethodPost {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying request",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.authHeader != "" && c.authToken != "" {
			req.Header.Set(c.authHeader, c.authToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %w", provider.ErrProviderUnavailable, err)
			continue
		}

		respBody, err := httputil.ReadBody(resp.Body, 0)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response body: %w", err)
			continue
		}

		if isRetryable(resp.StatusCode) {
			lastErr = fmt.Errorf("%w: server returned %d", provider.ErrProviderUnavailable, resp.StatusCode)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return statusError(resp.StatusCode, respBody)
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
		}
		return nil
	}

	if retries > 0 {
		return fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return lastErr
}

func statusError(status int, body []byte) error {
	detail := fmt.Sprintf("unexpected status %d", status)
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		detail = errResp.Error
		if errResp.Message != "" {
			detail += ": " + errResp.Message
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", provider.ErrUnauthorized, detail)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", provider.ErrNotFound, detail)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", provider.ErrConflict, detail)
	case status >= 500:
		return fmt.Errorf("%w: %s", provider.ErrProviderUnavailable, detail)
	default:
		return fmt.Errorf("webhook error: %s", detail)
	}
}

// Ping sends GET /ping and expects a 2xx response.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, "/ping", nil, nil); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// ListZones sends GET /zones.
func (c *Client) ListZones(ctx context.Context) ([]Zone, error) {
	var zones []Zone
	if err := c.doRequest(ctx, http.MethodGet, "/zones", nil, &zones); err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	return zones, nil
}

// ListRecordSets sends GET /recordsets with the non-empty filter fields.
func (c *Client) ListRecordSets(ctx context.Context, zoneID string, filter provider.ListFilter) ([]RecordSet, error) {
	q := url.Values{}
	q.Set("zone_id", zoneID)
	if filter.Name != "" {
		q.Set("name", filter.Name)
	}
	if filter.Type != "" {
		q.Set("type", string(filter.Type))
	}
	if filter.Line != "" {
		q.Set("line", filter.Line)
	}

	var sets []RecordSet
	if err := c.doRequest(ctx, http.MethodGet, "/recordsets?"+q.Encode(), nil, &sets); err != nil {
		return nil, fmt.Errorf("listing record sets: %w", err)
	}

	c.logger.Debug("listed record sets from webhook",
		slog.String("zone_id", zoneID),
		slog.Int("count", len(sets)),
	)
	return sets, nil
}

// CreateRecordSet sends POST /recordsets. The response body, if any, is
// decoded as the created record set.
func (c *Client) CreateRecordSet(ctx context.Context, set RecordSet) (RecordSet, error) {
	var created RecordSet
	if err := c.doRequest(ctx, http.MethodPost, "/recordsets", set, &created); err != nil {
		return RecordSet{}, fmt.Errorf("create failed: %w", err)
	}
	return created, nil
}

// UpdateRecordSet sends PUT /recordsets/{id}.
func (c *Client) UpdateRecordSet(ctx context.Context, id string, set RecordSet) error {
	if err := c.doRequest(ctx, http.MethodPut, "/recordsets/"+url.PathEscape(id), set, nil); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return nil
}

// DeleteRecordSet sends DELETE /recordsets/{id}.
func (c *Client) DeleteRecordSet(ctx context.Context, zoneID, id string) error {
	path := "/recordsets/" + url.PathEscape(id) + "?zone_id=" + url.QueryEscape(zoneID)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}
