package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// Client is the HTTP client used by scrapers to fetch product pages.
// Headers are supplied per request; Client itself carries no mutable
// request state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new scraper client. The timeout bounds the whole
// fetch; callers may cancel earlier through the context.
func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				// content negotiation is done explicitly below
				DisableCompression: true,
			},
		},
		userAgent: userAgent,
	}
}

// BrowserHeaders returns the baseline header set for a product page
// fetch. A fresh map is built on every call so concurrent scrapes never
// share header state.
func (c *Client) BrowserHeaders() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", c.userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	return h
}

// Fetch fetches a URL and returns the HTML content. A single attempt is
// made; retry policy belongs to the caller. Network errors and
// non-success statuses are reported as *FetchError.
func (c *Client) Fetch(ctx context.Context, url string, headers http.Header) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if headers == nil {
		headers = c.BrowserHeaders()
	}
	req.Header = headers

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return string(content), nil
}

// decodeBody unwraps the response body according to Content-Encoding.
func decodeBody(resp *http.Response) (io.Reader, error) {
	encoding := strings.ToLower(resp.Header.Get("Content-Encoding"))
	switch {
	case strings.Contains(encoding, "gzip"):
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	case strings.Contains(encoding, "br"):
		return brotli.NewReader(resp.Body), nil
	case strings.Contains(encoding, "deflate"):
		return flate.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
