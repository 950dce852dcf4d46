package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/siragled/shopwatch/internal/model"
)

// MemoryStore is an in-memory Store for tests and ephemeral runs. It
// mirrors SQLiteStore's semantics, including query bounding.
type MemoryStore struct {
	mu        sync.RWMutex
	products  map[string]*model.Product // by id
	byURL     map[string]string         // source URL -> id
	snapshots map[string][]*model.ProductSnapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		products:  make(map[string]*model.Product),
		byURL:     make(map[string]string),
		snapshots: make(map[string][]*model.ProductSnapshot),
	}
}

func (s *MemoryStore) GetProduct(_ context.Context, id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *MemoryStore) GetProductByURL(_ context.Context, sourceURL string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byURL[sourceURL]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s.products[id]
	return &clone, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *p
	s.products[p.ID] = &clone
	s.byURL[p.SourceURL] = p.ID
	return nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return ErrNotFound
	}
	clone := *p
	s.products[p.ID] = &clone
	return nil
}

func (s *MemoryStore) SearchProducts(_ context.Context, q model.ProductQuery) ([]*model.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.Product
	search := strings.ToLower(strings.TrimSpace(q.Search))
	brand := strings.ToLower(strings.TrimSpace(q.Brand))

	for _, p := range s.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if brand != "" && !strings.Contains(strings.ToLower(p.Brand), brand) {
			continue
		}
		if q.MinPrice != nil && p.LastPrice.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.LastPrice.GreaterThan(*q.MaxPrice) {
			continue
		}
		clone := *p
		matched = append(matched, &clone)
	}

	desc := strings.EqualFold(q.Order, "desc")
	sort.SliceStable(matched, func(i, j int) bool {
		var less bool
		switch q.SortBy {
		case "price":
			less = matched[i].LastPrice.LessThan(matched[j].LastPrice)
		case "brand":
			less = strings.ToLower(matched[i].Brand) < strings.ToLower(matched[j].Brand)
		case "created":
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		case "updated":
			less = matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
		default:
			less = strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
		}
		if desc {
			return !less
		}
		return less
	})

	total := len(matched)
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
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s *MemoryStore) ListStale(_ context.Context, olderThan time.Time, limit int) ([]*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = defaultPageSize
	}

	var stale []*model.Product
	for _, p := range s.products {
		if p.UpdatedAt.Before(olderThan) {
			clone := *p
			stale = append(stale, &clone)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].UpdatedAt.Before(stale[j].UpdatedAt)
	})
	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (s *MemoryStore) AddSnapshot(_ context.Context, snap *model.ProductSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *snap
	s.snapshots[snap.ProductID] = append(s.snapshots[snap.ProductID], &clone)
	return nil
}

func (s *MemoryStore) CountSnapshots(_ context.Context, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots[productID]), nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context, productID string, limit, offset int) ([]*model.ProductSnapshot, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.snapshots[productID]
	total := len(all)

	// newest first
	ordered := make([]*model.ProductSnapshot, total)
	for i, snap := range all {
		clone := *snap
		ordered[total-1-i] = &clone
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
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ordered[offset:end], total, nil
}

func (s *MemoryStore) GetStats(_ context.Context) (*model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.Stats{ProductsByStore: map[string]int{}}
	stats.TotalProducts = len(s.products)
	for _, p := range s.products {
		if p.IsInStock {
			stats.InStockProducts++
		}
		if p.IsOnSale {
			stats.OnSaleProducts++
		}
		if p.StoreName != "" {
			stats.ProductsByStore[p.StoreName]++
		}
	}
	for _, snaps := range s.snapshots {
		stats.TotalSnapshots += len(snaps)
	}
	return stats, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
