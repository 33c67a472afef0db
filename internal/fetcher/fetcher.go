// Package fetcher provides the tuned HTTP clients shared by search
// providers, content extractors, and the crawler.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"web-search-answer-api/internal/useragent"
)

const (
	// maxBodyBytes caps how much of any response body is read. Longer
	// bodies keep their prefix.
	maxBodyBytes = 10 << 20
	// maxDeclaredLength skips bodies whose Content-Length header already
	// exceeds the limit.
	maxDeclaredLength = 25 << 20
	maxRedirects      = 5
	// fetchBudget bounds one page exchange: dial, handshake, headers,
	// and body read combined.
	fetchBudget = 3 * time.Second
)

// Client wraps http.Client with browser-like headers and typed errors.
type Client struct {
	http      *http.Client
	userAgent string
}

// New builds the page-fetching client: aggressive per-stage deadlines, a
// large pool, HTTP/2 where offered. Slow origins are dropped rather than
// waited on since every crawled page is one of many.
func New() *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   500 * time.Millisecond,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxConnsPerHost:       200,
		MaxIdleConns:          40,
		MaxIdleConnsPerHost:   40,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   500 * time.Millisecond,
		ResponseHeaderTimeout: 800 * time.Millisecond,
		ExpectContinueTimeout: 200 * time.Millisecond,
	}
	return newClient(transport)
}

// NewAPI builds the client used for JSON search APIs, which respond slower
// than the page-fetch budgets allow.
func NewAPI() *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          40,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}
	return newClient(transport)
}

func newClient(transport *http.Transport) *Client {
	return &Client{
		http: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: useragent.Default(),
	}
}

// HTTPClient exposes the underlying client for libraries that manage their
// own requests.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Do sends the request with browser-like headers applied when the caller
// has not set them, and classifies transport failures into typed errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", "https://www.google.com/")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

// Get issues a GET for rawURL. The caller owns the response body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// GetBytes fetches rawURL and returns up to maxBodyBytes of the body.
// Non-200 responses come back as *HTTPStatusError.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{Code: resp.StatusCode, URL: rawURL}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(err)
	}
	return body, nil
}

// GetHTML fetches rawURL and returns the body decoded to UTF-8.
func (c *Client) GetHTML(ctx context.Context, rawURL string) (string, error) {
	body, err := c.GetBytes(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return DecodeText(body), nil
}

// FetchCapped is the generic crawl fetch: one bounded exchange returning
// the capped body and its Content-Type. Bodies whose declared length
// exceeds maxDeclaredLength are skipped with a nil body and no error.
func (c *Client) FetchCapped(ctx context.Context, rawURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchBudget)
	defer cancel()

	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if resp.StatusCode != http.StatusOK {
		return nil, contentType, &HTTPStatusError{Code: resp.StatusCode, URL: rawURL}
	}
	if resp.ContentLength > maxDeclaredLength {
		return nil, contentType, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, contentType, classify(err)
	}
	return body, contentType, nil
}
