package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/siragled/shopwatch/internal/model"
)

// GenericScraper handles any http/https product page. It tries
// schema.org structured data first and falls back to OpenGraph and
// related meta tags when no usable product name was found.
type GenericScraper struct {
	client *Client
	log    *zap.Logger
}

// NewGenericScraper creates the catch-all scraper.
func NewGenericScraper(client *Client, log *zap.Logger) *GenericScraper {
	return &GenericScraper{
		client: client,
		log:    log.Named("scraper.generic"),
	}
}

func (s *GenericScraper) Name() string { return "generic" }

// Priority is the lowest of all scrapers so vendor scrapers win.
func (s *GenericScraper) Priority() int { return 1 }

// CanScrape accepts any absolute http or https URL.
func (s *GenericScraper) CanScrape(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Scrape fetches the page and runs the layered extraction.
func (s *GenericScraper) Scrape(ctx context.Context, pageURL string) (*model.ScrapedProduct, error) {
	headers := s.client.BrowserHeaders()
	headers.Set("Sec-Fetch-Dest", "document")
	headers.Set("Sec-Fetch-Mode", "navigate")
	headers.Set("Sec-Fetch-Site", "none")

	body, err := s.client.Fetch(ctx, pageURL, headers)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		s.log.Warn("could not parse document", zap.String("url", pageURL), zap.Error(err))
		return nil, ErrNoProductData
	}

	product := &model.ScrapedProduct{AdditionalData: map[string]string{}}

	if !extractStructuredData(doc, product, s.log) {
		s.log.Info("no schema.org product found, falling back to meta tags",
			zap.String("url", pageURL))
	}
	if product.Name == "" {
		extractMetaTags(doc, product)
	}

	if !product.Valid() {
		s.log.Warn("could not extract any product data", zap.String("url", pageURL))
		return nil, ErrNoProductData
	}

	s.log.Info("scraped product",
		zap.String("url", pageURL),
		zap.String("name", product.Name),
		zap.Stringer("price", priceOrZero(product)),
		zap.String("currency", product.Currency))

	return product, nil
}
