package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrNoScraper is returned when no registered scraper accepts a URL.
	ErrNoScraper = errors.New("no scraper registered for URL")

	// ErrNoProductData is returned when a page was fetched and parsed but
	// no strategy produced a usable product name.
	ErrNoProductData = errors.New("no product data found")
)

// FetchError reports a failed page fetch: a network error or a
// non-success HTTP status. StatusCode is zero when no response was
// received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
