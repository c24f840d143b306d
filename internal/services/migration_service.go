package services

import (
	"context"
	"fmt"
	"time"

	"budgetdash/internal/amqp"
	"budgetdash/internal/core"
	"budgetdash/internal/storage"

	"golang.org/x/sync/errgroup"
)

// MigrationService moves the whole dataset in and out as one JSON document.
type MigrationService struct {
	storage  *storage.SQLiteRepository
	notifier *Notifier
	now      func() time.Time
}

func NewMigrationService(storage *storage.SQLiteRepository, notifier *Notifier) *MigrationService {
	return &MigrationService{
		storage:  storage,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Export loads categories, transactions and settings concurrently.
func (s *MigrationService) Export(ctx context.Context) (core.Snapshot, error) {
	snap := core.Snapshot{Version: core.SnapshotVersion, ExportedAt: s.now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cats, err := s.storage.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("export categories: %w", err)
		}
		snap.Categories = cats
		return nil
	})
	g.Go(func() error {
		txs, err := s.storage.ListTransactions(gctx, core.TransactionFilter{})
		if err != nil {
			return fmt.Errorf("export transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		settings, err := s.storage.GetSettings(gctx)
		if err != nil {
			return fmt.Errorf("export settings: %w", err)
		}
		snap.Settings = &settings
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	if snap.Categories == nil {
		snap.Categories = []core.Category{}
	}
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	return snap, nil
}

// Import validates the whole document first, then writes it atomically skipping existing ids.
func (s *MigrationService) Import(ctx context.Context, snap core.Snapshot) (core.ImportResult, error) {
	if err := snap.Validate(); err != nil {
		return core.ImportResult{}, err
	}
	if err := s.checkCategoryRefs(ctx, snap); err != nil {
		return core.ImportResult{}, err
	}
	res, err := s.storage.Import(ctx, snap)
	if err != nil {
		return core.ImportResult{}, fmt.Errorf("import snapshot: %w", err)
	}

	event := amqp.NewChangeEvent(amqp.EventDataImported, "")
	event.Count = res.Categories.Imported + res.Transactions.Imported
	s.notifier.Notify(ctx, event)
	return res, nil
}

// checkCategoryRefs rejects transactions whose category is neither in the
// document nor already stored.
func (s *MigrationService) checkCategoryRefs(ctx context.Context, snap core.Snapshot) error {
	known := make(map[string]bool, len(snap.Categories))
	for _, c := range snap.Categories {
		known[c.ID] = true
	}
	stored, err := s.storage.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	for _, c := range stored {
		known[c.ID] = true
	}

	v := &core.ValidationError{}
	for i, t := range snap.Transactions {
		if t.CategoryID == nil || *t.CategoryID == core.FixedCategoryID || known[*t.CategoryID] {
			continue
		}
		v.Add(fmt.Sprintf("transactions[%d].categoryId", i),
			fmt.Errorf("%w: unknown category %s", core.ErrInvalidCategoryID, *t.CategoryID))
	}
	return v.OrNil()
}
