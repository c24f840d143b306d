package services

import (
	"context"
	"fmt"

	"budgetdash/internal/amqp"
	"budgetdash/internal/core"
	"budgetdash/internal/storage"

	"github.com/google/uuid"
)

type CategoryService struct {
	storage  *storage.SQLiteRepository
	notifier *Notifier
	newID    func() string
}

func NewCategoryService(storage *storage.SQLiteRepository, notifier *Notifier) *CategoryService {
	return &CategoryService{storage: storage, notifier: notifier, newID: uuid.NewString}
}

func (s *CategoryService) Create(ctx context.Context, draft core.CategoryDraft) (core.Category, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return core.Category{}, err
	}
	c, err := s.storage.CreateCategory(ctx, core.Category{
		ID:     s.newID(),
		Name:   draft.Name,
		Budget: draft.Budget,
		Period: draft.Period,
		Color:  draft.Color,
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.notifier.Notify(ctx, amqp.NewChangeEvent(amqp.EventCategoryCreated, c.ID))
	return c, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (core.Category, error) {
	return s.storage.GetCategory(ctx, id)
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.storage.ListCategories(ctx)
}

func (s *CategoryService) Update(ctx context.Context, id string, patch core.CategoryPatch) (core.Category, error) {
	if err := patch.Validate(); err != nil {
		return core.Category{}, err
	}
	c, err := s.storage.UpdateCategory(ctx, id, func(c core.Category) (core.Category, error) {
		return patch.Apply(c), nil
	})
	if err != nil {
		return core.Category{}, err
	}
	s.notifier.Notify(ctx, amqp.NewChangeEvent(amqp.EventCategoryUpdated, c.ID))
	return c, nil
}

// Delete removes the category. Transactions that pointed at it become uncategorized.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	detached, err := s.storage.DeleteCategory(ctx, id)
	if err != nil {
		return err
	}
	event := amqp.NewChangeEvent(amqp.EventCategoryDeleted, id)
	event.Count = int(detached)
	s.notifier.Notify(ctx, event)
	return nil
}
