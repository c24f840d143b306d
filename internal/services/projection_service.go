package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"budgetdash/internal/amqp"
	"budgetdash/internal/cache"
	"budgetdash/internal/core"
	"budgetdash/internal/storage"
)

const (
	summaryCacheSize = 64
	summaryCacheTTL  = 5 * time.Minute
)

// ProjectionService serves the budget read-model, cached per as-of day.
type ProjectionService struct {
	storage *storage.SQLiteRepository
	cache   *cache.LRUCache[core.Summary]
	// generation bumps on every write so a summary computed across a write is not cached.
	generation atomic.Int64
}

// NewProjectionService subscribes to notifier so any write empties the cache.
func NewProjectionService(storage *storage.SQLiteRepository, notifier *Notifier) *ProjectionService {
	s := &ProjectionService{
		storage: storage,
		cache:   cache.NewLRUCache[core.Summary](summaryCacheSize, summaryCacheTTL),
	}
	if notifier != nil {
		notifier.OnChange(func(*amqp.ChangeEvent) { s.Invalidate() })
	}
	return s
}

// Cache exposes the summary cache for registration with a cleanup manager.
func (s *ProjectionService) Cache() *cache.LRUCache[core.Summary] {
	return s.cache
}

// Invalidate drops every cached summary.
func (s *ProjectionService) Invalidate() {
	s.generation.Add(1)
	s.cache.Purge()
}

func (s *ProjectionService) Summary(ctx context.Context, asOf core.Date) (core.Summary, error) {
	key := asOf.String()
	if sum, ok := s.cache.Get(key); ok {
		slog.DebugContext(ctx, "Summary cache hit", "as_of", key)
		return sum, nil
	}
	gen := s.generation.Load()

	settings, err := s.storage.GetSettings(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load settings: %w", err)
	}
	categories, err := s.storage.ListCategories(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load categories: %w", err)
	}

	start, end := core.SummaryWindow(asOf)
	if bs, _ := core.BalanceWindow(asOf, settings.BalanceAsOf); bs.Before(start.Time) {
		start = bs
	}
	txs, err := s.storage.ListTransactions(ctx, core.TransactionFilter{StartDate: &start, EndDate: &end})
	if err != nil {
		return core.Summary{}, fmt.Errorf("load transactions: %w", err)
	}

	sum := core.BuildSummary(asOf, categories, txs, settings)
	if s.generation.Load() == gen {
		s.cache.Set(key, sum)
	}
	return sum, nil
}
