package product

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/siragled/shopwatch/internal/model"
)

// StaleLister lists products whose last update is older than a cutoff.
type StaleLister interface {
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.Product, error)
}

// Scheduler periodically re-scrapes tracked products that have gone
// stale. It only revisits source URLs the pipeline already knows; it
// never discovers new pages.
type Scheduler struct {
	service   *Service
	stale     StaleLister
	log       *zap.Logger
	interval  time.Duration
	batchSize int

	mu        sync.Mutex
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
}

// NewScheduler creates a refresh scheduler.
func NewScheduler(service *Service, stale StaleLister, log *zap.Logger, interval time.Duration, batchSize int) *Scheduler {
	return &Scheduler{
		service:   service,
		stale:     stale,
		log:       log.Named("scheduler"),
		interval:  interval,
		batchSize: batchSize,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the refresh loop. The first cycle runs after one full
// interval so a restart does not hammer every tracked store at once.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.log.Warn("scheduler already running")
		return
	}
	s.isRunning = true
	s.mu.Unlock()
	s.log.Info("scheduler started", zap.Duration("interval", s.interval))

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runCycle()
			case <-s.stopCh:
				s.log.Info("scheduler stopped")
				s.mu.Lock()
				s.isRunning = false
				s.mu.Unlock()
				return
			}
		}
	}()
}

// Stop stops the refresh loop. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// runCycle refreshes one batch of stale products, oldest first.
// Individual failures are logged and skipped; the cycle continues.
func (s *Scheduler) runCycle() {
	start := time.Now()
	ctx := context.Background()

	stale, err := s.stale.ListStale(ctx, start.Add(-s.interval), s.batchSize)
	if err != nil {
		s.log.Error("failed to list stale products", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}

	s.log.Info("starting refresh cycle", zap.Int("products", len(stale)))

	refreshed := 0
	failed := 0
	for _, p := range stale {
		if _, err := s.service.Refresh(ctx, p.ID); err != nil {
			failed++
			continue
		}
		refreshed++
	}

	s.log.Info("refresh cycle completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("refreshed", refreshed),
		zap.Int("failed", failed))
}
