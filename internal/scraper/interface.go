package scraper

import (
	"context"

	"github.com/siragled/shopwatch/internal/model"
)

// Scraper is a strategy that can decide whether it supports a URL and,
// if so, fetch and parse the product page behind it.
type Scraper interface {
	// CanScrape reports whether this scraper handles the given URL.
	CanScrape(url string) bool

	// Scrape fetches the page and extracts a product. It returns
	// ErrNoProductData when the page yielded no usable product and a
	// *FetchError when the page could not be retrieved.
	Scrape(ctx context.Context, url string) (*model.ScrapedProduct, error)

	// Priority orders scraper selection; higher wins.
	Priority() int

	// Name identifies the scraper in logs.
	Name() string
}

var (
	_ Scraper = (*GenericScraper)(nil)
	_ Scraper = (*AmazonScraper)(nil)
)
