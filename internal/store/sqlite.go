package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/siragled/shopwatch/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// SQLiteStore persists products and snapshots in a SQLite database.
// Prices are stored as decimal strings; numeric filtering and sorting
// cast at query time.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLite opens (and if needed creates) the database under dataDir.
func NewSQLite(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "shopwatch.db")

	// WAL mode and foreign keys on
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate creates tables and indexes.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		brand TEXT,
		image_url TEXT,
		source_url TEXT NOT NULL UNIQUE,
		store_name TEXT,
		last_price TEXT NOT NULL DEFAULT '0',
		usual_price TEXT,
		currency TEXT,
		is_on_sale INTEGER NOT NULL DEFAULT 0,
		is_in_stock INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS product_snapshots (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		price TEXT NOT NULL,
		usual_price TEXT,
		is_on_sale INTEGER NOT NULL DEFAULT 0,
		is_in_stock INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_products_source_url ON products(source_url);
	CREATE INDEX IF NOT EXISTS idx_products_updated_at ON products(updated_at);
	CREATE INDEX IF NOT EXISTS idx_snapshots_product_id ON product_snapshots(product_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

const productColumns = `id, name, description, brand, image_url, source_url, store_name,
	last_price, usual_price, currency, is_on_sale, is_in_stock, created_at, updated_at`

func (s *SQLiteStore) scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	var (
		p                        model.Product
		description, brand       sql.NullString
		imageURL, storeName      sql.NullString
		lastPrice                string
		usualPrice, currency     sql.NullString
		onSale, inStock          int
		createdUnix, updatedUnix int64
	)

	err := row.Scan(&p.ID, &p.Name, &description, &brand, &imageURL, &p.SourceURL, &storeName,
		&lastPrice, &usualPrice, &currency, &onSale, &inStock, &createdUnix, &updatedUnix)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.Brand = brand.String
	p.ImageURL = imageURL.String
	p.StoreName = storeName.String
	p.Currency = currency.String
	p.IsOnSale = onSale != 0
	p.IsInStock = inStock != 0
	p.CreatedAt = time.Unix(createdUnix, 0).UTC()
	p.UpdatedAt = time.Unix(updatedUnix, 0).UTC()

	if p.LastPrice, err = decimal.NewFromString(lastPrice); err != nil {
		return nil, fmt.Errorf("invalid stored price %q: %w", lastPrice, err)
	}
	if usualPrice.Valid && usualPrice.String != "" {
		d, err := decimal.NewFromString(usualPrice.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored usual price %q: %w", usualPrice.String, err)
		}
		p.UsualPrice = &d
	}

	return &p, nil
}

// GetProduct fetches a product by id.
func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM products WHERE id = ?", productColumns), id)
	p, err := s.scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// GetProductByURL fetches a product by its source URL, the product's
// identity for the ingestion pipeline.
func (s *SQLiteStore) GetProductByURL(ctx context.Context, sourceURL string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM products WHERE source_url = ?", productColumns), sourceURL)
	p, err := s.scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// CreateProduct inserts a new product.
func (s *SQLiteStore) CreateProduct(ctx context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, description, brand, image_url, source_url, store_name,
			last_price, usual_price, currency, is_on_sale, is_in_stock, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Brand, p.ImageURL, p.SourceURL, p.StoreName,
		p.LastPrice.String(), nullableDecimal(p.UsualPrice), p.Currency,
		boolInt(p.IsOnSale), boolInt(p.IsInStock),
		p.CreatedAt.Unix(), p.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// UpdateProduct overwrites the mutable fields of an existing product.
func (s *SQLiteStore) UpdateProduct(ctx context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			name = ?, description = ?, brand = ?, image_url = ?, store_name = ?,
			last_price = ?, usual_price = ?, currency = ?, is_on_sale = ?, is_in_stock = ?,
			updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Brand, p.ImageURL, p.StoreName,
		p.LastPrice.String(), nullableDecimal(p.UsualPrice), p.Currency,
		boolInt(p.IsOnSale), boolInt(p.IsInStock),
		p.UpdatedAt.Unix(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchProducts lists products with free-text search, filters, sorting
// and paging. Inputs are bounded here at the storage boundary.
func (s *SQLiteStore) SearchProducts(ctx context.Context, q model.ProductQuery) ([]*model.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where := []string{"1=1"}
	var args []any

	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		where = append(where,
			"(LOWER(name) LIKE ? OR LOWER(COALESCE(brand, '')) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	if brand := strings.TrimSpace(q.Brand); brand != "" {
		where = append(where, "LOWER(COALESCE(brand, '')) LIKE ?")
		args = append(args, "%"+strings.ToLower(brand)+"%")
	}
	if q.MinPrice != nil {
		where = append(where, "CAST(last_price AS REAL) >= ?")
		args = append(args, q.MinPrice.InexactFloat64())
	}
	if q.MaxPrice != nil {
		where = append(where, "CAST(last_price AS REAL) <= ?")
		args = append(args, q.MaxPrice.InexactFloat64())
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM products WHERE " + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	sortColumns := map[string]string{
		"name":    "name COLLATE NOCASE",
		"price":   "CAST(last_price AS REAL)",
		"brand":   "brand COLLATE NOCASE",
		"created": "created_at",
		"updated": "updated_at",
	}
	sortColumn, ok := sortColumns[q.SortBy]
	if !ok {
		sortColumn = "name COLLATE NOCASE"
	}
	direction := "ASC"
	if strings.EqualFold(q.Order, "desc") {
		direction = "DESC"
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY %s %s LIMIT ? OFFSET ?",
		productColumns, whereClause, sortColumn, direction)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := s.scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// ListStale returns products not updated since olderThan, oldest first.
func (s *SQLiteStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = defaultPageSize
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM products WHERE updated_at < ? ORDER BY updated_at ASC LIMIT ?", productColumns),
		olderThan.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := s.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// AddSnapshot appends an immutable snapshot row.
func (s *SQLiteStore) AddSnapshot(ctx context.Context, snap *model.ProductSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_snapshots (id, product_id, price, usual_price, is_on_sale, is_in_stock, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.ProductID, snap.Price.String(), nullableDecimal(snap.UsualPrice),
		boolInt(snap.IsOnSale), boolInt(snap.IsInStock), snap.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// CountSnapshots returns how many snapshots a product has.
func (s *SQLiteStore) CountSnapshots(ctx context.Context, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM product_snapshots WHERE product_id = ?", productID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// ListSnapshots returns a product's snapshots, newest first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, productID string, limit, offset int) ([]*model.ProductSnapshot, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM product_snapshots WHERE product_id = ?", productID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count snapshots: %w", err)
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, price, usual_price, is_on_sale, is_in_stock, created_at
		FROM product_snapshots WHERE product_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*model.ProductSnapshot
	for rows.Next() {
		var (
			snap            model.ProductSnapshot
			price           string
			usualPrice      sql.NullString
			onSale, inStock int
			createdUnix     int64
		)
		if err := rows.Scan(&snap.ID, &snap.ProductID, &price, &usualPrice, &onSale, &inStock, &createdUnix); err != nil {
			return nil, 0, err
		}
		if snap.Price, err = decimal.NewFromString(price); err != nil {
			return nil, 0, fmt.Errorf("invalid stored snapshot price %q: %w", price, err)
		}
		if usualPrice.Valid && usualPrice.String != "" {
			d, err := decimal.NewFromString(usualPrice.String)
			if err != nil {
				return nil, 0, fmt.Errorf("invalid stored snapshot usual price %q: %w", usualPrice.String, err)
			}
			snap.UsualPrice = &d
		}
		snap.IsOnSale = onSale != 0
		snap.IsInStock = inStock != 0
		snap.CreatedAt = time.Unix(createdUnix, 0).UTC()
		snapshots = append(snapshots, &snap)
	}
	return snapshots, total, rows.Err()
}

// GetStats summarizes the collection.
func (s *SQLiteStore) GetStats(ctx context.Context) (*model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.Stats{ProductsByStore: map[string]int{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(is_in_stock), 0),
			COALESCE(SUM(is_on_sale), 0)
		FROM products`).Scan(&stats.TotalProducts, &stats.InStockProducts, &stats.OnSaleProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to query product stats: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM product_snapshots").Scan(&stats.TotalSnapshots); err != nil {
		return nil, fmt.Errorf("failed to query snapshot stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(store_name, ''), COUNT(*) FROM products GROUP BY store_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query store stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var store string
		var count int
		if err := rows.Scan(&store, &count); err != nil {
			return nil, err
		}
		if store != "" {
			stats.ProductsByStore[store] = count
		}
	}
	return stats, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
