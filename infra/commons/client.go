// Package commons talks to the Wikimedia Commons action API.
package commons

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies the client as Wikimedia API etiquette asks.
const DefaultUserAgent = "commonswipe/1.0 (https://github.com/CrestNiraj12/commonswipe)"

// Client is a thin HTTP wrapper for the action API.
// It handles query construction, rate limiting and the User-Agent header.
type Client struct {
	endpoint  string
	siteURL   string
	userAgent string
	limiter   *rate.Limiter
	http      *http.Client
}

// ClientOptions tunes transport behavior. Zero values pick defaults.
type ClientOptions struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond caps outgoing calls. Zero or less disables the limit.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// NewClient creates an API client for endpoint, e.g.
// "https://commons.wikimedia.org/w/api.php".
func NewClient(endpoint string, opts ClientOptions) *Client {
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &Client{
		endpoint:  endpoint,
		siteURL:   siteRoot(endpoint),
		userAgent: ua,
		limiter:   limiter,
		http:      hc,
	}
}

// SiteURL is the scheme and host of the endpoint, used to build page links.
func (c *Client) SiteURL() string { return c.siteURL }

// statusError is a non-2xx answer.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("API returned %d: %s", e.Code, body)
}

// Get performs a rate-limited GET with params and returns the raw body.
func (c *Client) Get(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	u := c.endpoint
	if q := params.Encode(); q != "" {
		u += "?" + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{Code: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

func siteRoot(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return strings.TrimRight(endpoint, "/")
	}
	return u.Scheme + "://" + u.Host
}
