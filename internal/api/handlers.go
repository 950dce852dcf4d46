package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siragled/shopwatch/internal/model"
	"github.com/siragled/shopwatch/internal/product"
	"github.com/siragled/shopwatch/internal/store"
)

// ProductService is the reconciler surface the handlers consume.
type ProductService interface {
	GetOrCreateFromURL(ctx context.Context, sourceURL string) (*model.Product, bool, error)
	Refresh(ctx context.Context, productID string) (*model.Product, error)
}

// StoreInterface is the read surface the handlers consume.
type StoreInterface interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	SearchProducts(ctx context.Context, q model.ProductQuery) ([]*model.Product, int, error)
	ListSnapshots(ctx context.Context, productID string, limit, offset int) ([]*model.ProductSnapshot, int, error)
	GetStats(ctx context.Context) (*model.Stats, error)
}

// Handlers contains all API handlers.
type Handlers struct {
	products ProductService
	store    StoreInterface
	log      *zap.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(products ProductService, st StoreInterface, log *zap.Logger) *Handlers {
	return &Handlers{
		products: products,
		store:    st,
		log:      log.Named("api"),
	}
}

// HealthCheck returns the health status.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

type createProductRequest struct {
	URL string `json:"url" binding:"required"`
}

// CreateProduct tracks a product by source URL. Re-posting a known URL
// returns the existing product unchanged.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	p, created, err := h.products.GetOrCreateFromURL(c.Request.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		if errors.Is(err, product.ErrExtractFailed) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not extract product data from the provided URL"})
			return
		}
		h.log.Error("create product failed", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, p)
}

// GetProducts lists products with search, filters, sorting and paging.
func (h *Handlers) GetProducts(c *gin.Context) {
	q := model.ProductQuery{
		Search: c.Query("search"),
		Brand:  c.Query("brand"),
		SortBy: c.DefaultQuery("sort", "name"),
		Order:  c.DefaultQuery("order", "asc"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if d, err := decimal.NewFromString(minPrice); err == nil {
			q.MinPrice = &d
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if d, err := decimal.NewFromString(maxPrice); err == nil {
			q.MaxPrice = &d
		}
	}

	products, total, err := h.store.SearchProducts(c.Request.Context(), q)
	if err != nil {
		h.log.Error("product search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	if products == nil {
		products = []*model.Product{}
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"limit":    q.Limit,
		"offset":   q.Offset,
	})
}

// GetProduct returns a single product by id.
func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.store.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.log.Error("get product failed", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// RefreshProduct re-scrapes a product. A failed scrape leaves the
// stored product untouched.
func (h *Handlers) RefreshProduct(c *gin.Context) {
	p, err := h.products.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, product.ErrExtractFailed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not re-scrape product"})
		default:
			h.log.Error("refresh failed", zap.String("product_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh product"})
		}
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetProductSnapshots returns a product's history, newest first.
func (h *Handlers) GetProductSnapshots(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.GetProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.log.Error("get product failed", zap.String("product_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		return
	}

	snapshots, total, err := h.store.ListSnapshots(c.Request.Context(), id,
		intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		h.log.Error("list snapshots failed", zap.String("product_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load snapshots"})
		return
	}
	if snapshots == nil {
		snapshots = []*model.ProductSnapshot{}
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"total":     total,
	})
}

// GetStats returns collection statistics.
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		h.log.Error("stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
