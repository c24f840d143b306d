package services

import (
	"context"
	"time"

	"budgetdash/internal/amqp"
	"budgetdash/internal/core"
	"budgetdash/internal/storage"
)

type SettingsService struct {
	storage  *storage.SQLiteRepository
	notifier *Notifier
	now      func() time.Time
}

func NewSettingsService(storage *storage.SQLiteRepository, notifier *Notifier) *SettingsService {
	return &SettingsService{
		storage:  storage,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the settings, creating the row with defaults the first time.
func (s *SettingsService) Get(ctx context.Context) (core.Settings, error) {
	return s.storage.GetSettings(ctx)
}

func (s *SettingsService) Update(ctx context.Context, patch core.SettingsPatch) (core.Settings, error) {
	if err := patch.Validate(); err != nil {
		return core.Settings{}, err
	}
	updated, err := s.storage.UpdateSettings(ctx, func(cur core.Settings) (core.Settings, error) {
		return patch.Apply(cur, s.now()), nil
	})
	if err != nil {
		return core.Settings{}, err
	}
	s.notifier.Notify(ctx, amqp.NewChangeEvent(amqp.EventSettingsUpdated, ""))
	return updated, nil
}
