package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/siragled/shopwatch/internal/model"
)

// amazonDomains is the fixed allow-list of regional domains the Amazon
// scraper handles.
var amazonDomains = []string{
	"amazon.com",
	"amazon.co.uk",
	"amazon.de",
	"amazon.nl",
}

// AmazonScraper extracts product data from Amazon product pages using
// fixed DOM selectors. It outranks the generic scraper because Amazon's
// structured data is unreliable while its markup ids are stable.
type AmazonScraper struct {
	client *Client
	log    *zap.Logger
}

// NewAmazonScraper creates the Amazon-specific scraper.
func NewAmazonScraper(client *Client, log *zap.Logger) *AmazonScraper {
	return &AmazonScraper{
		client: client,
		log:    log.Named("scraper.amazon"),
	}
}

func (s *AmazonScraper) Name() string { return "amazon" }

func (s *AmazonScraper) Priority() int { return 10 }

// CanScrape accepts only URLs whose host belongs to the Amazon regional
// domain allow-list.
func (s *AmazonScraper) CanScrape(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range amazonDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Scrape fetches the page with browser-like headers and parses the
// known Amazon selectors.
func (s *AmazonScraper) Scrape(ctx context.Context, pageURL string) (*model.ScrapedProduct, error) {
	body, err := s.client.Fetch(ctx, pageURL, s.client.BrowserHeaders())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		s.log.Warn("could not parse document", zap.String("url", pageURL), zap.Error(err))
		return nil, ErrNoProductData
	}

	return s.parsePage(doc, pageURL)
}

func (s *AmazonScraper) parsePage(doc *goquery.Document, pageURL string) (*model.ScrapedProduct, error) {
	product := &model.ScrapedProduct{AdditionalData: map[string]string{}}

	product.Name = strings.TrimSpace(doc.Find("#productTitle").First().Text())
	if product.Name == "" {
		// blocked or degraded page; report absent rather than failing hard
		s.log.Warn("product title selector missing", zap.String("url", pageURL))
		return nil, ErrNoProductData
	}

	brand := doc.Find("#bylineInfo").First().Text()
	brand = strings.ReplaceAll(brand, "Visit the", "")
	brand = strings.ReplaceAll(brand, "Store", "")
	product.Brand = strings.TrimSpace(brand)

	if src, exists := doc.Find("#landingImage").First().Attr("src"); exists {
		product.ImageURL = strings.TrimSpace(src)
	}

	var bullets []string
	doc.Find("#feature-bullets .a-list-item").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			bullets = append(bullets, text)
		}
	})
	product.Description = strings.Join(bullets, "\n")

	availability := strings.ToLower(strings.TrimSpace(doc.Find("#availability").First().Text()))
	product.IsInStock = availability != "" && !strings.Contains(availability, "currently unavailable")
	if availability != "" {
		product.AdditionalData["availability"] = availability
	}

	product.Price = ParsePrice(doc.Find(".a-price .a-offscreen").First().Text())
	product.UsualPrice = ParsePrice(doc.Find(".basisPrice .a-text-price .a-offscreen").First().Text())

	if product.Price != nil && product.UsualPrice != nil && product.Price.LessThan(*product.UsualPrice) {
		product.IsOnSale = true
	} else {
		product.IsOnSale = false
		product.UsualPrice = nil
	}

	s.log.Info("scraped amazon product",
		zap.String("url", pageURL),
		zap.String("name", product.Name),
		zap.Stringer("price", priceOrZero(product)))

	return product, nil
}
