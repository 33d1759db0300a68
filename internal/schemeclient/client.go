// Package schemeclient is the HTTP client for a scheme service: it loads the
// scheme catalog and submits conversion requests.
package schemeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spboyer/kansan/internal/scheme"
	"github.com/tidwall/gjson"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Client talks to a scheme service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the service at baseURL. No request timeout is
// set; bound requests through the context instead.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoadCatalog fetches GET /schemes. Any failure is a *CatalogLoadError.
func (c *Client) LoadCatalog(ctx context.Context) (*scheme.Catalog, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/schemes", nil)
	if err != nil {
		return nil, &CatalogLoadError{Err: err}
	}
	if !isSuccess(status) {
		return nil, &CatalogLoadError{StatusCode: status, Err: errors.New(messageFrom(status, body))}
	}

	cat, err := parseCatalog(body)
	if err != nil {
		return nil, &CatalogLoadError{StatusCode: status, Err: err}
	}
	c.logger.Debug("Catalog loaded", "schemes", cat.Len())
	return cat, nil
}

// Reload loads the catalog and installs it in h. On failure h keeps the
// catalog it already had.
func (c *Client) Reload(ctx context.Context, h *scheme.Holder) (*scheme.Catalog, error) {
	cat, err := c.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	h.Replace(cat)
	return cat, nil
}

// Convert submits req to POST /convert and returns the service's result
// unchanged. Any failure is a *ConversionError; nothing is retried.
func (c *Client) Convert(ctx context.Context, req scheme.ConversionRequest) (*scheme.ConversionResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &ConversionError{Err: fmt.Errorf("encoding request: %w", err)}
	}

	status, body, err := c.do(ctx, http.MethodPost, "/convert", payload)
	if err != nil {
		return nil, &ConversionError{Err: err}
	}
	if !isSuccess(status) {
		detail := detailFrom(body)
		return nil, &ConversionError{
			StatusCode: status,
			Detail:     detail,
			Err:        errors.New(messageFrom(status, body)),
		}
	}

	if !gjson.ValidBytes(body) || !gjson.GetBytes(body, "total").Exists() {
		return nil, &ConversionError{StatusCode: status, Err: errors.New("malformed conversion response")}
	}
	var result scheme.ConversionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ConversionError{StatusCode: status, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Scheme service request", "method", method, "url", req.URL.String(), "body", string(payload))
	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	c.logger.Debug("Scheme service response", "status", res.StatusCode, "bytes", len(data))
	return res.StatusCode, data, nil
}

func parseCatalog(body []byte) (*scheme.Catalog, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("malformed response: invalid JSON")
	}
	list := gjson.GetBytes(body, "schemes")
	if !list.IsArray() {
		return nil, ErrMissingSchemes
	}

	var (
		schemes []*scheme.Scheme
		errs    []error
	)
	for _, item := range list.Array() {
		s := new(scheme.Scheme)
		if err := s.UnmarshalJSON([]byte(item.Raw)); err != nil {
			errs = append(errs, err)
			continue
		}
		schemes = append(schemes, s)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("malformed response: %w", errors.Join(errs...))
	}

	cat, err := scheme.NewCatalog(schemes...)
	if err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return cat, nil
}

// detailFrom extracts the "detail" message from an error body. FastAPI-style
// validation errors send detail as a list of {msg} objects.
func detailFrom(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case !detail.Exists() || detail.Type == gjson.Null:
		return ""
	case detail.IsArray():
		var msgs []string
		for _, item := range detail.Array() {
			if msg := item.Get("msg"); msg.Exists() {
				msgs = append(msgs, msg.String())
			} else {
				msgs = append(msgs, item.String())
			}
		}
		return strings.Join(msgs, "; ")
	default:
		return detail.String()
	}
}

func messageFrom(status int, body []byte) string {
	if detail := detailFrom(body); detail != "" {
		return detail
	}
	return fmt.Sprintf("status %d %s", status, http.StatusText(status))
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}
