package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siragled/shopwatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testProduct(name, brand, price string) *model.Product {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Brand:     brand,
		SourceURL: fmt.Sprintf("https://shop.example.com/%s", uuid.NewString()),
		StoreName: "shop.example.com",
		LastPrice: decimal.RequireFromString(price),
		Currency:  "EUR",
		IsInStock: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteProductCRUD(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	usual := decimal.RequireFromString("49.99")
	p := testProduct("Electric Kettle", "Kitchenry", "35.00")
	p.Description = "1.7L, stainless steel"
	p.UsualPrice = &usual
	p.IsOnSale = true

	require.NoError(t, st.CreateProduct(ctx, p))

	t.Run("get by id", func(t *testing.T) {
		got, err := st.GetProduct(ctx, p.ID)
		require.NoError(t, err)

		assert.Equal(t, p.Name, got.Name)
		assert.Equal(t, p.Description, got.Description)
		assert.Equal(t, p.Brand, got.Brand)
		assert.Equal(t, p.SourceURL, got.SourceURL)
		assert.True(t, got.LastPrice.Equal(p.LastPrice))
		require.NotNil(t, got.UsualPrice)
		assert.True(t, got.UsualPrice.Equal(usual))
		assert.True(t, got.IsOnSale)
		assert.True(t, got.IsInStock)
		assert.Equal(t, p.CreatedAt.Unix(), got.CreatedAt.Unix())
	})

	t.Run("get by url", func(t *testing.T) {
		got, err := st.GetProductByURL(ctx, p.SourceURL)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("update", func(t *testing.T) {
		p.Name = "Electric Kettle v2"
		p.LastPrice = decimal.RequireFromString("29.99")
		p.UsualPrice = nil
		p.IsOnSale = false
		p.UpdatedAt = time.Now().UTC().Truncate(time.Second)
		require.NoError(t, st.UpdateProduct(ctx, p))

		got, err := st.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Electric Kettle v2", got.Name)
		assert.True(t, got.LastPrice.Equal(decimal.RequireFromString("29.99")))
		assert.Nil(t, got.UsualPrice)
		assert.False(t, got.IsOnSale)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := st.GetProduct(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := st.GetProductByURL(ctx, "https://shop.example.com/missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update missing", func(t *testing.T) {
		ghost := testProduct("Ghost", "", "1.00")
		assert.ErrorIs(t, st.UpdateProduct(ctx, ghost), ErrNotFound)
	})

	t.Run("duplicate source url rejected", func(t *testing.T) {
		dup := testProduct("Duplicate", "", "1.00")
		dup.SourceURL = p.SourceURL
		assert.Error(t, st.CreateProduct(ctx, dup))
	})
}

func TestSQLiteSearchProducts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seed := []*model.Product{
		testProduct("Wireless Headphones", "Soundline", "129.00"),
		testProduct("Electric Kettle", "Kitchenry", "35.00"),
		testProduct("Kettle Descaler", "Kitchenry", "7.50"),
		testProduct("Desk Lamp", "Brightco", "49.00"),
	}
	for _, p := range seed {
		require.NoError(t, st.CreateProduct(ctx, p))
	}

	t.Run("free text search is case insensitive", func(t *testing.T) {
		products, total, err := st.SearchProducts(ctx, model.ProductQuery{Search: "KETTLE"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, products, 2)
	})

	t.Run("brand filter", func(t *testing.T) {
		_, total, err := st.SearchProducts(ctx, model.ProductQuery{Brand: "kitchenry"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("price range", func(t *testing.T) {
		minPrice := decimal.RequireFromString("30")
		maxPrice := decimal.RequireFromString("60")
		products, total, err := st.SearchProducts(ctx, model.ProductQuery{MinPrice: &minPrice, MaxPrice: &maxPrice})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		names := []string{products[0].Name, products[1].Name}
		assert.ElementsMatch(t, []string{"Electric Kettle", "Desk Lamp"}, names)
	})

	t.Run("sort by price descending", func(t *testing.T) {
		products, _, err := st.SearchProducts(ctx, model.ProductQuery{SortBy: "price", Order: "desc"})
		require.NoError(t, err)
		require.Len(t, products, 4)
		assert.Equal(t, "Wireless Headphones", products[0].Name)
		assert.Equal(t, "Kettle Descaler", products[3].Name)
	})

	t.Run("default sort is name ascending", func(t *testing.T) {
		products, _, err := st.SearchProducts(ctx, model.ProductQuery{})
		require.NoError(t, err)
		require.Len(t, products, 4)
		assert.Equal(t, "Desk Lamp", products[0].Name)
	})

	t.Run("unknown sort column falls back to name", func(t *testing.T) {
		products, _, err := st.SearchProducts(ctx, model.ProductQuery{SortBy: "id; DROP TABLE products"})
		require.NoError(t, err)
		require.Len(t, products, 4)
		assert.Equal(t, "Desk Lamp", products[0].Name)
	})

	t.Run("paging", func(t *testing.T) {
		page, total, err := st.SearchProducts(ctx, model.ProductQuery{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Len(t, page, 2)
	})

	t.Run("offset past the end", func(t *testing.T) {
		page, total, err := st.SearchProducts(ctx, model.ProductQuery{Offset: 100})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Empty(t, page)
	})
}

func TestSQLiteSnapshots(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := testProduct("Electric Kettle", "Kitchenry", "35.00")
	require.NoError(t, st.CreateProduct(ctx, p))

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	prices := []string{"35.00", "29.99", "35.00"}
	for i, price := range prices {
		snap := &model.ProductSnapshot{
			ID:        uuid.NewString(),
			ProductID: p.ID,
			Price:     decimal.RequireFromString(price),
			IsInStock: true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, st.AddSnapshot(ctx, snap))
	}

	count, err := st.CountSnapshots(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Run("newest first", func(t *testing.T) {
		snapshots, total, err := st.ListSnapshots(ctx, p.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, snapshots, 3)
		assert.True(t, snapshots[0].CreatedAt.After(snapshots[1].CreatedAt))
		assert.True(t, snapshots[1].CreatedAt.After(snapshots[2].CreatedAt))
		assert.True(t, snapshots[1].Price.Equal(decimal.RequireFromString("29.99")))
	})

	t.Run("paging", func(t *testing.T) {
		snapshots, total, err := st.ListSnapshots(ctx, p.ID, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, snapshots, 1)
		assert.Equal(t, base.Unix(), snapshots[0].CreatedAt.Unix())
	})

	t.Run("unknown product is empty", func(t *testing.T) {
		snapshots, total, err := st.ListSnapshots(ctx, "missing", 10, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, snapshots)
	})
}

func TestSQLiteListStale(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)

	fresh := testProduct("Fresh", "", "1.00")
	fresh.UpdatedAt = now

	older := testProduct("Older", "", "1.00")
	older.UpdatedAt = now.Add(-2 * time.Hour)

	oldest := testProduct("Oldest", "", "1.00")
	oldest.UpdatedAt = now.Add(-4 * time.Hour)

	for _, p := range []*model.Product{fresh, older, oldest} {
		require.NoError(t, st.CreateProduct(ctx, p))
	}

	stale, err := st.ListStale(ctx, now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 2)

	// oldest first
	assert.Equal(t, "Oldest", stale[0].Name)
	assert.Equal(t, "Older", stale[1].Name)
}

func TestSQLiteGetStats(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	inStock := testProduct("In Stock", "", "1.00")
	onSale := testProduct("On Sale", "", "2.00")
	onSale.IsOnSale = true
	onSale.IsInStock = false
	onSale.StoreName = "other.example.com"

	require.NoError(t, st.CreateProduct(ctx, inStock))
	require.NoError(t, st.CreateProduct(ctx, onSale))

	require.NoError(t, st.AddSnapshot(ctx, &model.ProductSnapshot{
		ID:        uuid.NewString(),
		ProductID: inStock.ID,
		Price:     decimal.RequireFromString("1.00"),
		CreatedAt: time.Now().UTC(),
	}))

	stats, err := st.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 1, stats.InStockProducts)
	assert.Equal(t, 1, stats.OnSaleProducts)
	assert.Equal(t, 1, stats.TotalSnapshots)
	assert.Equal(t, 1, stats.ProductsByStore["shop.example.com"])
	assert.Equal(t, 1, stats.ProductsByStore["other.example.com"])
}
