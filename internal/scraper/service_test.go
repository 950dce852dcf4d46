package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siragled/shopwatch/internal/model"
)

type fakeScraper struct {
	name     string
	priority int
	accepts  func(url string) bool
	scrape   func(ctx context.Context, url string) (*model.ScrapedProduct, error)
}

func (f *fakeScraper) Name() string              { return f.name }
func (f *fakeScraper) Priority() int             { return f.priority }
func (f *fakeScraper) CanScrape(url string) bool { return f.accepts(url) }
func (f *fakeScraper) Scrape(ctx context.Context, url string) (*model.ScrapedProduct, error) {
	return f.scrape(ctx, url)
}

func acceptAll(string) bool { return true }

func scrapeNamed(name string) func(context.Context, string) (*model.ScrapedProduct, error) {
	return func(context.Context, string) (*model.ScrapedProduct, error) {
		return &model.ScrapedProduct{Name: name}, nil
	}
}

func TestServiceSelectsHighestPriority(t *testing.T) {
	low := &fakeScraper{name: "low", priority: 1, accepts: acceptAll, scrape: scrapeNamed("from low")}
	high := &fakeScraper{name: "high", priority: 10, accepts: acceptAll, scrape: scrapeNamed("from high")}

	// registration order must not matter
	svc := NewService(zap.NewNop(), low, high)

	p, err := svc.Scrape(context.Background(), "https://example.com/p/1")
	require.NoError(t, err)
	assert.Equal(t, "from high", p.Name)
}

func TestServiceEqualPriorityKeepsRegistrationOrder(t *testing.T) {
	first := &fakeScraper{name: "first", priority: 5, accepts: acceptAll, scrape: scrapeNamed("from first")}
	second := &fakeScraper{name: "second", priority: 5, accepts: acceptAll, scrape: scrapeNamed("from second")}

	svc := NewService(zap.NewNop(), first, second)

	p, err := svc.Scrape(context.Background(), "https://example.com/p/1")
	require.NoError(t, err)
	assert.Equal(t, "from first", p.Name)
}

func TestServiceFallsThroughNonMatching(t *testing.T) {
	picky := &fakeScraper{
		name:     "picky",
		priority: 10,
		accepts:  func(string) bool { return false },
		scrape:   scrapeNamed("from picky"),
	}
	catchAll := &fakeScraper{name: "catch-all", priority: 1, accepts: acceptAll, scrape: scrapeNamed("from catch-all")}

	svc := NewService(zap.NewNop(), picky, catchAll)

	p, err := svc.Scrape(context.Background(), "https://example.com/p/1")
	require.NoError(t, err)
	assert.Equal(t, "from catch-all", p.Name)
}

func TestServiceNoScraperMatches(t *testing.T) {
	picky := &fakeScraper{
		name:     "picky",
		priority: 10,
		accepts:  func(string) bool { return false },
		scrape:   scrapeNamed("from picky"),
	}

	svc := NewService(zap.NewNop(), picky)

	_, err := svc.Scrape(context.Background(), "https://example.com/p/1")
	assert.ErrorIs(t, err, ErrNoScraper)
}

func TestServiceBlankURL(t *testing.T) {
	svc := NewService(zap.NewNop(), &fakeScraper{name: "any", priority: 1, accepts: acceptAll, scrape: scrapeNamed("x")})

	for _, url := range []string{"", "   "} {
		_, err := svc.Scrape(context.Background(), url)
		assert.ErrorIs(t, err, ErrNoScraper)
	}
}

func TestServiceRecoversScraperPanic(t *testing.T) {
	panicking := &fakeScraper{
		name:     "panicking",
		priority: 10,
		accepts:  acceptAll,
		scrape: func(context.Context, string) (*model.ScrapedProduct, error) {
			panic("unexpected markup shape")
		},
	}

	svc := NewService(zap.NewNop(), panicking)

	var p *model.ScrapedProduct
	var err error
	assert.NotPanics(t, func() {
		p, err = svc.Scrape(context.Background(), "https://example.com/p/1")
	})
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNoProductData)
}
