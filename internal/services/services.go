// Package services holds the application use cases on top of the SQLite repository.
//
// Every write goes through a Notifier so the projection cache is purged and a
// change event is published when a broker is configured.
package services

import (
	"budgetdash/internal/storage"
)

// Services bundles every use case the HTTP layer and the CLI tools need.
type Services struct {
	Notifier     *Notifier
	Transactions *TransactionService
	Categories   *CategoryService
	Settings     *SettingsService
	Projections  *ProjectionService
	Migration    *MigrationService
}

// New wires the services around one repository. publisher may be nil.
func New(repo *storage.SQLiteRepository, publisher EventPublisher, maxRecurringMonths int) *Services {
	notifier := NewNotifier(publisher)
	return &Services{
		Notifier:     notifier,
		Transactions: NewTransactionService(repo, notifier, maxRecurringMonths),
		Categories:   NewCategoryService(repo, notifier),
		Settings:     NewSettingsService(repo, notifier),
		Projections:  NewProjectionService(repo, notifier),
		Migration:    NewMigrationService(repo, notifier),
	}
}
