// Package product reconciles freshly scraped data against stored
// product state and owns the snapshot history rules.
package product

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siragled/shopwatch/internal/model"
	"github.com/siragled/shopwatch/internal/store"
)

// maxDescriptionLength bounds stored descriptions.
const maxDescriptionLength = 1000

// ErrExtractFailed is surfaced when a create or refresh could not
// extract usable product data from the source URL.
var ErrExtractFailed = errors.New("could not extract product data from URL")

// ScrapeService is the slice of the scraper service the reconciler
// consumes.
type ScrapeService interface {
	Scrape(ctx context.Context, url string) (*model.ScrapedProduct, error)
}

// Store is the persistence surface the reconciler consumes.
type Store interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductByURL(ctx context.Context, sourceURL string) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	AddSnapshot(ctx context.Context, snap *model.ProductSnapshot) error
	CountSnapshots(ctx context.Context, productID string) (int, error)
}

// Service implements create-from-URL and refresh over tracked products.
// Operations on the same source URL are serialized so concurrent
// refreshes append at most one snapshot per actual change.
type Service struct {
	store    Store
	scrapes  ScrapeService
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	urlLocks map[string]*sync.Mutex
}

// NewService creates the reconciler.
func NewService(st Store, scrapes ScrapeService, log *zap.Logger) *Service {
	return &Service{
		store:    st,
		scrapes:  scrapes,
		log:      log.Named("product"),
		now:      time.Now,
		urlLocks: make(map[string]*sync.Mutex),
	}
}

// lockURL acquires the per-source-URL mutex and returns its unlock.
func (s *Service) lockURL(sourceURL string) func() {
	s.mu.Lock()
	lock, ok := s.urlLocks[sourceURL]
	if !ok {
		lock = &sync.Mutex{}
		s.urlLocks[sourceURL] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// GetOrCreateFromURL returns the product tracked for sourceURL,
// scraping and creating it on first sight. The call is idempotent: a
// URL that already has a product returns it unchanged, with no
// re-scrape and no new snapshot. The returned bool reports whether a
// product was created.
func (s *Service) GetOrCreateFromURL(ctx context.Context, sourceURL string) (*model.Product, bool, error) {
	unlock := s.lockURL(sourceURL)
	defer unlock()

	existing, err := s.store.GetProductByURL(ctx, sourceURL)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up product: %w", err)
	}

	scraped, err := s.scrapes.Scrape(ctx, sourceURL)
	if err != nil || !scraped.Valid() {
		s.log.Warn("could not create product from URL",
			zap.String("url", sourceURL), zap.Error(err))
		return nil, false, fmt.Errorf("%w: %s", ErrExtractFailed, sourceURL)
	}

	now := s.now().UTC()
	p := &model.Product{
		ID:        uuid.NewString(),
		SourceURL: sourceURL,
		StoreName: hostOf(sourceURL),
		CreatedAt: now,
	}
	applyScraped(p, scraped, now)

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, false, fmt.Errorf("failed to persist product: %w", err)
	}
	// a new product always gets its first snapshot
	if err := s.store.AddSnapshot(ctx, snapshotOf(p, now)); err != nil {
		return nil, false, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	s.log.Info("created product",
		zap.String("product_id", p.ID),
		zap.String("url", sourceURL),
		zap.String("name", p.Name))

	return p, true, nil
}

// Refresh re-scrapes an existing product. On extraction failure the
// stored product is left untouched. On success tracked fields are
// overwritten and a snapshot is appended only when the product has no
// snapshots yet or price or stock status changed.
func (s *Service) Refresh(ctx context.Context, productID string) (*model.Product, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockURL(p.SourceURL)
	defer unlock()

	// re-read under the lock; a concurrent refresh may have finished
	if p, err = s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	scraped, err := s.scrapes.Scrape(ctx, p.SourceURL)
	if err != nil || !scraped.Valid() {
		s.log.Warn("failed to re-scrape product",
			zap.String("product_id", productID),
			zap.String("url", p.SourceURL),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrExtractFailed, p.SourceURL)
	}

	newPrice := priceOrZero(scraped.Price)
	priceChanged := !p.LastPrice.Equal(newPrice)
	stockChanged := p.IsInStock != scraped.IsInStock

	now := s.now().UTC()
	applyScraped(p, scraped, now)

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to persist product: %w", err)
	}

	count, err := s.store.CountSnapshots(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}
	if count == 0 || priceChanged || stockChanged {
		if err := s.store.AddSnapshot(ctx, snapshotOf(p, now)); err != nil {
			return nil, fmt.Errorf("failed to persist snapshot: %w", err)
		}
		s.log.Info("recorded snapshot",
			zap.String("product_id", p.ID),
			zap.Bool("price_changed", priceChanged),
			zap.Bool("stock_changed", stockChanged))
	}

	return p, nil
}

// applyScraped overwrites a product's tracked fields from a scrape.
func applyScraped(p *model.Product, scraped *model.ScrapedProduct, now time.Time) {
	p.Name = scraped.Name
	p.Description = truncate(scraped.Description, maxDescriptionLength)
	p.Brand = scraped.Brand
	p.ImageURL = scraped.ImageURL
	p.LastPrice = priceOrZero(scraped.Price)
	p.UsualPrice = scraped.UsualPrice
	if scraped.Currency != "" {
		p.Currency = scraped.Currency
	}
	p.IsOnSale = scraped.IsOnSale
	p.IsInStock = scraped.IsInStock
	p.UpdatedAt = now
}

func snapshotOf(p *model.Product, now time.Time) *model.ProductSnapshot {
	return &model.ProductSnapshot{
		ID:         uuid.NewString(),
		ProductID:  p.ID,
		Price:      p.LastPrice,
		UsualPrice: p.UsualPrice,
		IsOnSale:   p.IsOnSale,
		IsInStock:  p.IsInStock,
		CreatedAt:  now,
	}
}

func priceOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func hostOf(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
