package store

import (
	"context"
	"errors"
	"time"

	"github.com/siragled/shopwatch/internal/model"
)

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("product not found")

// Store is the persistence surface consumed by the ingestion pipeline
// and the API. Implemented by SQLiteStore and, for tests and ephemeral
// runs, MemoryStore.
type Store interface {
	// Product operations
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductByURL(ctx context.Context, sourceURL string) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	SearchProducts(ctx context.Context, q model.ProductQuery) ([]*model.Product, int, error)
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.Product, error)

	// Snapshot operations; snapshots are append-only
	AddSnapshot(ctx context.Context, snap *model.ProductSnapshot) error
	CountSnapshots(ctx context.Context, productID string) (int, error)
	ListSnapshots(ctx context.Context, productID string, limit, offset int) ([]*model.ProductSnapshot, int, error)

	// Statistics
	GetStats(ctx context.Context) (*model.Stats, error)

	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
