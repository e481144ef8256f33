// Package httpverifier implements ports.Verifier and ports.Activator against the
// certificate HTTP API.
package httpverifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/certscan/pkg/ports"
)

// Default API paths, appended to the base URLs.
const (
	DefaultVerifyPath   = "/certificate/verify"
	DefaultActivatePath = "/qr/activate"
	DefaultTimeout      = 10 * time.Second
)

// ErrNotConfigured is returned when a call is made without a base URL.
var ErrNotConfigured = errors.New("httpverifier: base URL not configured")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	VerifyURL    string
	ActivateURL  string
	VerifyPath   string
	ActivatePath string
	Token        string
	Timeout      time.Duration

	// HTTPClient replaces the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client calls the verify and activate endpoints with bearer authentication.
type Client struct {
	opts   Options
	http   *http.Client
	logger ports.Logger
}

// New creates a client. Empty paths and timeouts take the defaults, and an empty
// ActivateURL falls back to VerifyURL.
func New(opts Options, logger ports.Logger) *Client {
	if opts.VerifyPath == "" {
		opts.VerifyPath = DefaultVerifyPath
	}
	if opts.ActivatePath == "" {
		opts.ActivatePath = DefaultActivatePath
	}
	if opts.ActivateURL == "" {
		opts.ActivateURL = opts.VerifyURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{opts: opts, http: hc, logger: logger.WithComponent("verifier")}
}

// Verify fetches the certificate summary for code.
func (c *Client) Verify(ctx context.Context, code string) (*ports.CertificateSummary, error) {
	body, err := c.get(ctx, c.opts.VerifyURL, c.opts.VerifyPath, code)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", code, err)
	}

	var wire certificateResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("verify %s: decode response: %w", code, err)
	}
	summary := wire.summary()
	if summary.ID == "" {
		summary.ID = code
	}
	return summary, nil
}

// Activate marks the certificate for code as used.
func (c *Client) Activate(ctx context.Context, code string) error {
	if _, err := c.get(ctx, c.opts.ActivateURL, c.opts.ActivatePath, code); err != nil {
		return fmt.Errorf("activate %s: %w", code, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, base, path, code string) ([]byte, error) {
	if base == "" {
		return nil, ErrNotConfigured
	}
	endpoint := endpointURL(base, path, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	c.logger.Debug("GET %s (request %s)", endpoint, requestID)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	c.logger.Debug("Verify responded %d in %d ms", resp.StatusCode, time.Since(start).Milliseconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(truncate(body, 200)))}
	}
	return body, nil
}

// endpointURL joins base, path and the escaped code. Codes may contain slashes
// (URL payloads), so the code is always a single path segment.
func endpointURL(base, path, code string) string {
	base = strings.TrimRight(base, "/")
	path = strings.Trim(path, "/")
	if path != "" {
		base += "/" + path
	}
	return base + "/" + url.PathEscape(code)
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

var (
	_ ports.Verifier  = (*Client)(nil)
	_ ports.Activator = (*Client)(nil)
)
