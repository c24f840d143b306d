package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetdash/internal/amqp"
	"budgetdash/internal/core"
	applog "budgetdash/internal/log"
	"budgetdash/internal/storage"

	"github.com/google/uuid"
)

// TransactionService owns single-transaction CRUD and recurrence groups.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	notifier  *Notifier
	generator core.RecurrenceGenerator
	newID     func() string
}

func NewTransactionService(storage *storage.SQLiteRepository, notifier *Notifier, maxRecurringMonths int) *TransactionService {
	return &TransactionService{
		storage:   storage,
		notifier:  notifier,
		generator: core.NewRecurrenceGenerator(maxRecurringMonths),
		newID:     uuid.NewString,
	}
}

// MaxRecurringMonths is the largest group CreateRecurring accepts.
func (s *TransactionService) MaxRecurringMonths() int {
	return s.generator.MaxMonths
}

func (s *TransactionService) Create(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, draft.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.storage.CreateTransaction(ctx, core.Transaction{
		ID:          s.newID(),
		Date:        draft.Date,
		Amount:      draft.Amount,
		CategoryID:  draft.CategoryID,
		Description: draft.Description,
		Type:        draft.Type,
		IsFixed:     draft.IsFixed,
		GroupID:     draft.GroupID,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.notifier.Notify(ctx, amqp.NewChangeEvent(amqp.EventTransactionCreated, tx.ID))
	return tx, nil
}

// CreateRecurring generates one instance per month and persists the whole group atomically.
func (s *TransactionService) CreateRecurring(ctx context.Context, base core.TransactionDraft, months int) ([]core.Transaction, error) {
	txs, err := s.generator.Generate(base, months)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, base.CategoryID); err != nil {
		return nil, err
	}

	saved, err := s.storage.CreateTransactions(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("create recurring transactions: %w", err)
	}

	groupID := *saved[0].GroupID
	slog.InfoContext(ctx, "Recurring group created", append(applog.NewFields().
		WithOperation(applog.OpCreate).
		WithTransaction("", groupID, saved[0].Amount.Cents).
		WithCount(len(saved)).
		ToSlice(),
		"first_date", saved[0].Date.String(),
		"last_date", saved[len(saved)-1].Date.String())...)

	s.notifier.Notify(ctx, amqp.NewChangeEvent(amqp.EventGroupCreated, "").WithGroup(groupID, len(saved)))
	return saved, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	txs, err := s.storage.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Update patches one transaction. Unlike group edits it may move the date.
func (s *TransactionService) Update(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if patch.CategoryID.Set {
		if err := s.checkCategory(ctx, patch.CategoryID.Value); err != nil {
			return core.Transaction{}, err
		}
	}

	tx, err := s.storage.UpdateTransaction(ctx, id, func(t core.Transaction) (core.Transaction, error) {
		return patch.Apply(t), nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.notifier.Notify(ctx, amqp.NewChangeEvent(amqp.EventTransactionUpdated, tx.ID))
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify(ctx, amqp.NewChangeEvent(amqp.EventTransactionDeleted, id))
	return nil
}

// UpdateGroup applies patch to the members chosen by sel. A patched date is ignored.
func (s *TransactionService) UpdateGroup(ctx context.Context, groupID string, sel core.GroupSelector, patch core.TransactionPatch) ([]core.Transaction, error) {
	patch = patch.WithoutDate()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.CategoryID.Set {
		if err := s.checkCategory(ctx, patch.CategoryID.Value); err != nil {
			return nil, err
		}
	}

	updated, err := s.storage.UpdateGroup(ctx, groupID, sel, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		updated = []core.Transaction{}
	}

	s.notifier.Notify(ctx, amqp.NewChangeEvent(amqp.EventGroupUpdated, "").WithGroup(groupID, len(updated)))
	return updated, nil
}

// DeleteGroup removes the members chosen by sel and returns how many were deleted.
func (s *TransactionService) DeleteGroup(ctx context.Context, groupID string, sel core.GroupSelector) (int, error) {
	n, err := s.storage.DeleteGroup(ctx, groupID, sel)
	if err != nil {
		return 0, err
	}
	s.notifier.Notify(ctx, amqp.NewChangeEvent(amqp.EventGroupDeleted, "").WithGroup(groupID, n))
	return n, nil
}

// checkCategory rejects references to categories that do not exist. The fixed sentinel is always allowed.
func (s *TransactionService) checkCategory(ctx context.Context, id *string) error {
	if id == nil || *id == core.FixedCategoryID {
		return nil
	}
	_, err := s.storage.GetCategory(ctx, *id)
	if errors.Is(err, core.ErrNotFound) {
		return core.NewValidationError("categoryId", fmt.Errorf("%w: unknown category %s", core.ErrInvalidCategoryID, *id))
	}
	return err
}
