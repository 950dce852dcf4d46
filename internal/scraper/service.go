package scraper

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/siragled/shopwatch/internal/model"
)

// Service selects the scraper for a URL and delegates the fetch and
// parse. Scrapers are held sorted by descending priority; ties keep
// registration order. Every failure mode of a delegated scrape is
// converted into a typed outcome, so Service never panics.
type Service struct {
	scrapers []Scraper
	log      *zap.Logger
}

// NewService creates a scraper service from the given scrapers.
func NewService(log *zap.Logger, scrapers ...Scraper) *Service {
	ordered := make([]Scraper, len(scrapers))
	copy(ordered, scrapers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() > ordered[j].Priority()
	})

	return &Service{
		scrapers: ordered,
		log:      log.Named("scraper"),
	}
}

// Scrape picks the first scraper that accepts the URL and runs it.
// Outcomes: a valid product; ErrNoScraper when the URL is blank or
// unmatched; ErrNoProductData when the page yielded nothing usable; a
// *FetchError when the page could not be retrieved.
func (s *Service) Scrape(ctx context.Context, url string) (*model.ScrapedProduct, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrNoScraper
	}

	for _, scr := range s.scrapers {
		if !scr.CanScrape(url) {
			continue
		}

		s.log.Info("scraping URL",
			zap.String("url", url),
			zap.String("scraper", scr.Name()))

		product, err := s.delegate(ctx, scr, url)
		if err != nil {
			s.log.Warn("scrape failed",
				zap.String("url", url),
				zap.String("scraper", scr.Name()),
				zap.Error(err))
			return nil, err
		}
		return product, nil
	}

	s.log.Warn("no scraper found for URL", zap.String("url", url))
	return nil, ErrNoScraper
}

// delegate runs one scraper and converts a panic inside it into
// ErrNoProductData. Scrapers parse adversarial input; a new markup
// shape must never take the service down.
func (s *Service) delegate(ctx context.Context, scr Scraper, url string) (product *model.ScrapedProduct, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scraper panicked",
				zap.String("url", url),
				zap.String("scraper", scr.Name()),
				zap.Any("panic", r))
			product = nil
			err = fmt.Errorf("%w: scraper %s panicked", ErrNoProductData, scr.Name())
		}
	}()

	return scr.Scrape(ctx, url)
}
