// Package huaweicloud implements the line-aware provider interface for
// Huawei Cloud DNS.
package huaweicloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"gitlab.bluewillows.net/root/linesync/pkg/httputil"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// pageSize is the largest page the zone and record set listings accept.
const pageSize = 500

// apiError is the error body returned by the DNS service or the API gateway.
type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

func (e apiError) code() string {
	if e.Code != "" {
		return e.Code
	}
	return e.ErrorCode
}

func (e apiError) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorMsg
}

type metadata struct {
	TotalCount int `json:"total_count"`
}

type zoneResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ZoneType string `json:"zone_type"`
}

type zonesResponse struct {
	Zones    []zoneResult `json:"zones"`
	Metadata metadata     `json:"metadata"`
}

// recordSet mirrors the v2.1 record set representation.
// Line is a pointer so an absent attribute can be told apart from an empty one.
type recordSet struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	TTL     int      `json:"ttl"`
	Records []string `json:"records"`
	ZoneID  string   `json:"zone_id"`
	Line    *string  `json:"line,omitempty"`
	Status  string   `json:"status,omitempty"`
}

type recordSetsResponse struct {
	RecordSets []recordSet `json:"recordsets"`
	Metadata   metadata    `json:"metadata"`
}

type createRecordSetRequest struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Records []string `json:"records"`
	TTL     int      `json:"ttl"`
	Line    string   `json:"line,omitempty"`
}

type updateRecordSetRequest struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Records []string `json:"records"`
	TTL     int      `json:"ttl"`
}

// Client is a Huawei Cloud DNS API client.
type Client struct {
	apiEndpoint string
	projectID   string
	signer      *Signer
	httpClient  *http.Client
	logger      *slog.Logger
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

// WithAPIEndpoint sets a custom API endpoint (useful for testing).
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.apiEndpoint = endpoint
	}
}

// NewClient creates a new Huawei Cloud DNS API client.
func NewClient(cfg *Config, opts ...ClientOption) *Client {
	c := &Client{
		apiEndpoint: cfg.APIEndpoint(),
		projectID:   cfg.ProjectID,
		signer:      NewSigner(cfg.AK, cfg.SK),
		httpClient:  httputil.DefaultClient(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest signs and sends a request and decodes a JSON response into out.
// out may be nil for responses without a useful body.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	reqURL := c.apiEndpoint + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	c.logger.Debug("making API request",
		slog.String("method", method),
		slog.String("path", path),
	)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerProject, c.projectID)

	if err := c.signer.Sign(req, body); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", provider.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp.Body, 0)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}

// statusError maps a failed response onto the provider error sentinels.
func statusError(status int, body []byte) error {
	detail := fmt.Sprintf("status %d", status)
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.code() != "" {
		detail = fmt.Sprintf("%s (code: %s, status %d)", ae.message(), ae.code(), status)
	} else if len(body) > 0 {
		detail = fmt.Sprintf("status %d: %s", status, truncate(string(body), 200))
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", provider.ErrUnauthorized, detail)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", provider.ErrNotFound, detail)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", provider.ErrConflict, detail)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: %s", provider.ErrProviderUnavailable, detail)
	default:
		return fmt.Errorf("API error: %s", detail)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ListZones returns every public zone, following offset pagination.
func (c *Client) ListZones(ctx context.Context) ([]zoneResult, error) {
	var all []zoneResult
	for offset := 0; ; {
		q := url.Values{}
		q.Set("type", "public")
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))

		var resp zonesResponse
		if err := c.doRequest(ctx, http.MethodGet, "/v2/zones", q, nil, &resp); err != nil {
			return nil, fmt.Errorf("listing zones: %w", err)
		}
		all = append(all, resp.Zones...)
		offset += len(resp.Zones)

		if len(resp.Zones) == 0 || offset >= resp.Metadata.TotalCount {
			break
		}
	}

	c.logger.Debug("listed zones", slog.Int("count", len(all)))
	return all, nil
}

// ListRecordSets returns record sets in a zone matching the exact-match filter.
func (c *Client) ListRecordSets(ctx context.Context, zoneID string, filter provider.ListFilter) ([]recordSet, error) {
	var all []recordSet
	path := fmt.Sprintf("/v2.1/zones/%s/recordsets", url.PathEscape(zoneID))

	for offset := 0; ; {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))
		if filter.Name != "" {
			q.Set("name", filter.Name)
			q.Set("search_mode", "equal")
		}
		if filter.Type != "" {
			q.Set("type", string(filter.Type))
		}
		if filter.Line != "" {
			q.Set("line_id", filter.Line)
		}

		var resp recordSetsResponse
		if err := c.doRequest(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
			return nil, fmt.Errorf("listing record sets: %w", err)
		}
		all = append(all, resp.RecordSets...)
		offset += len(resp.RecordSets)

		if len(resp.RecordSets) == 0 || offset >= resp.Metadata.TotalCount {
			break
		}
	}

	c.logger.Debug("listed record sets",
		slog.String("zone_id", zoneID),
		slog.String("name", filter.Name),
		slog.String("line", filter.Line),
		slog.Int("count", len(all)),
	)
	return all, nil
}

// CreateRecordSet creates a record set, line-scoped when req.Line is set.
func (c *Client) CreateRecordSet(ctx context.Context, zoneID string, req provider.CreateRequest) (recordSet, error) {
	body := createRecordSetRequest{
		Name:    req.Name,
		Type:    string(req.Type),
		Records: req.Records,
		TTL:     req.TTL,
		Line:    req.Line,
	}

	var created recordSet
	path := fmt.Sprintf("/v2.1/zones/%s/recordsets", url.PathEscape(zoneID))
	if err := c.doRequest(ctx, http.MethodPost, path, nil, body, &created); err != nil {
		return recordSet{}, fmt.Errorf("creating record set: %w", err)
	}
	return created, nil
}

// UpdateRecordSet replaces the values of an existing record set.
func (c *Client) UpdateRecordSet(ctx context.Context, zoneID, recordID string, req provider.UpdateRequest) error {
	body := updateRecordSetRequest{
		Name:    req.Name,
		Type:    string(req.Type),
		Records: req.Records,
		TTL:     req.TTL,
	}

	path := fmt.Sprintf("/v2.1/zones/%s/recordsets/%s", url.PathEscape(zoneID), url.PathEscape(recordID))
	if err := c.doRequest(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("updating record set: %w", err)
	}
	return nil
}

// DeleteRecordSet deletes a record set by id.
func (c *Client) DeleteRecordSet(ctx context.Context, zoneID, recordID string) error {
	path := fmt.Sprintf("/v2.1/zones/%s/recordsets/%s", url.PathEscape(zoneID), url.PathEscape(recordID))
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("deleting record set: %w", err)
	}
	return nil
}

// Ping verifies credentials with a single-item zone listing.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("type", "public")
	q.Set("limit", "1")
	if err := c.doRequest(ctx, http.MethodGet, "/v2/zones", q, nil, nil); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}
