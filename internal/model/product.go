package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the canonical record for a tracked product. A product is
// created at most once per distinct source URL and is never deleted by
// the ingestion pipeline.
type Product struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	Brand       string `json:"brand,omitempty" db:"brand"`
	ImageURL    string `json:"image_url,omitempty" db:"image_url"`
	SourceURL   string `json:"source_url" db:"source_url"`
	StoreName   string `json:"store_name,omitempty" db:"store_name"`

	LastPrice  decimal.Decimal  `json:"last_price" db:"last_price"`
	UsualPrice *decimal.Decimal `json:"usual_price,omitempty" db:"usual_price"`
	Currency   string           `json:"currency,omitempty" db:"currency"`
	IsOnSale   bool             `json:"is_on_sale" db:"is_on_sale"`
	IsInStock  bool             `json:"is_in_stock" db:"is_in_stock"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProductSnapshot is an immutable point-in-time record of a product's
// price and availability. Snapshots are appended, never mutated.
type ProductSnapshot struct {
	ID        string    `json:"id" db:"id"`
	ProductID string    `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Price      decimal.Decimal  `json:"price" db:"price"`
	UsualPrice *decimal.Decimal `json:"usual_price,omitempty" db:"usual_price"`
	IsOnSale   bool             `json:"is_on_sale" db:"is_on_sale"`
	IsInStock  bool             `json:"is_in_stock" db:"is_in_stock"`
}

// ScrapedProduct is the transient result of one scrape call. A result
// with an empty Name means "no product found" and must not be persisted.
type ScrapedProduct struct {
	Name        string
	Description string
	Brand       string
	ImageURL    string
	Price       *decimal.Decimal
	UsualPrice  *decimal.Decimal
	Currency    string
	SKU         string
	EAN         string
	UPC         string
	IsInStock   bool
	IsOnSale    bool

	// AdditionalData holds vendor-specific key/value pairs that have no
	// dedicated field, e.g. raw availability text.
	AdditionalData map[string]string
}

// Valid reports whether the scrape produced a usable product.
func (s *ScrapedProduct) Valid() bool {
	return s != nil && s.Name != ""
}

// ProductQuery describes a filtered, sorted, paged listing of products.
// Executed at the storage boundary, which also bounds the inputs.
type ProductQuery struct {
	Search   string
	Brand    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	SortBy   string // name, price, brand, created, updated
	Order    string // asc, desc
	Limit    int
	Offset   int
}

// Stats summarizes the tracked collection.
type Stats struct {
	TotalProducts   int            `json:"total_products"`
	InStockProducts int            `json:"in_stock_products"`
	OnSaleProducts  int            `json:"on_sale_products"`
	TotalSnapshots  int            `json:"total_snapshots"`
	ProductsByStore map[string]int `json:"products_by_store"`
}
