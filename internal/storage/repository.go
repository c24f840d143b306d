package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetdash/internal/core"
	applog "budgetdash/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the pool opens so no connection sees a half-built schema.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside one database transaction, committing only when fn succeeds.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", applog.NewFields().
				WithComponent(applog.ComponentStorage).
				WithError(rbErr).
				ToSlice()...)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) stamp(t *core.Transaction) {
	now := r.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
}

// CreateTransaction inserts one transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	r.stamp(&t)
	if err := r.queries.InsertTransaction(ctx, transactionToRow(t)); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite", append(applog.NewFields().
		WithComponent(applog.ComponentStorage).
		WithOperation(applog.OpCreate).
		WithTransaction(t.ID, nullString(t.GroupID).String, t.Amount.Cents).
		ToSlice(), "date", t.Date.String(), "type", t.Type)...)

	return t, nil
}

// CreateTransactions inserts every transaction or none of them.
func (r *SQLiteRepository) CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(txs))
	err := r.withTx(ctx, func(q *Queries) error {
		for _, t := range txs {
			r.stamp(&t)
			if err := q.InsertTransaction(ctx, transactionToRow(t)); err != nil {
				return fmt.Errorf("insert transaction %s: %w", t.ID, err)
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions saved to SQLite", applog.NewFields().
		WithComponent(applog.ComponentStorage).
		WithOperation(applog.OpCreate).
		WithCount(len(out)).
		ToSlice()...)
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return getTransaction(ctx, r.queries, id)
}

func getTransaction(ctx context.Context, q *Queries, id string) (core.Transaction, error) {
	row, err := q.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return rowToTransaction(row)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, filterToParams(f))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return rowsToTransactions(rows)
}

// UpdateTransaction reads the row, applies mutate and writes it back in one transaction.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, mutate func(core.Transaction) (core.Transaction, error)) (core.Transaction, error) {
	var updated core.Transaction
	err := r.withTx(ctx, func(q *Queries) error {
		current, err := getTransaction(ctx, q, id)
		if err != nil {
			return err
		}
		next, err := mutate(current)
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = r.now()
		if _, err := q.UpdateTransaction(ctx, transactionToRow(next)); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Entity: "transaction", ID: id}
	}
	slog.InfoContext(ctx, "Transaction deleted", append(applog.NewFields().
		WithComponent(applog.ComponentStorage).
		WithOperation(applog.OpDelete).
		ToSlice(), applog.FieldTransactionID, id)...)
	return nil
}

func listGroup(ctx context.Context, q *Queries, groupID string) ([]core.Transaction, error) {
	rows, err := q.ListGroupTransactions(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group transactions: %w", err)
	}
	if len(rows) == 0 {
		return nil, &core.NotFoundError{Entity: "group", ID: groupID}
	}
	return rowsToTransactions(rows)
}

// ListGroup returns the members of a recurrence group in date order.
func (r *SQLiteRepository) ListGroup(ctx context.Context, groupID string) ([]core.Transaction, error) {
	return listGroup(ctx, r.queries, groupID)
}

// UpdateGroup patches the selected members of a group atomically. Dates are never changed.
func (r *SQLiteRepository) UpdateGroup(ctx context.Context, groupID string, sel core.GroupSelector, patch core.TransactionPatch) ([]core.Transaction, error) {
	var updated []core.Transaction
	err := r.withTx(ctx, func(q *Queries) error {
		members, err := listGroup(ctx, q, groupID)
		if err != nil {
			return err
		}
		now := r.now()
		for _, t := range core.ApplyGroupPatch(members, sel, patch) {
			t.UpdatedAt = now
			if _, err := q.UpdateTransaction(ctx, transactionToRow(t)); err != nil {
				return fmt.Errorf("update transaction %s: %w", t.ID, err)
			}
			updated = append(updated, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Group updated", applog.NewFields().
		WithComponent(applog.ComponentStorage).
		WithOperation(applog.OpUpdate).
		WithGroupScope(groupID, string(sel.Scope), len(updated)).
		ToSlice()...)

	return updated, nil
}

// DeleteGroup removes the selected members of a group atomically and returns the count.
func (r *SQLiteRepository) DeleteGroup(ctx context.Context, groupID string, sel core.GroupSelector) (int, error) {
	deleted := 0
	err := r.withTx(ctx, func(q *Queries) error {
		members, err := listGroup(ctx, q, groupID)
		if err != nil {
			return err
		}
		for _, t := range sel.Select(members) {
			n, err := q.DeleteTransaction(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("delete transaction %s: %w", t.ID, err)
			}
			deleted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Group deleted", applog.NewFields().
		WithComponent(applog.ComponentStorage).
		WithOperation(applog.OpDelete).
		WithGroupScope(groupID, string(sel.Scope), deleted).
		ToSlice()...)

	return deleted, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	now := r.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if err := r.queries.InsertCategory(ctx, categoryToRow(c)); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved to SQLite", append(applog.NewFields().
		WithComponent(applog.ComponentStorage).
		WithOperation(applog.OpCreate).
		WithCategoryID(c.ID).
		ToSlice(), "name", c.Name)...)
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	return getCategory(ctx, r.queries, id)
}

func getCategory(ctx context.Context, q *Queries, id string) (core.Category, error) {
	row, err := q.GetCategory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return rowToCategory(row)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		c, err := rowToCategory(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id string, mutate func(core.Category) (core.Category, error)) (core.Category, error) {
	var updated core.Category
	err := r.withTx(ctx, func(q *Queries) error {
		current, err := getCategory(ctx, q, id)
		if err != nil {
			return err
		}
		next, err := mutate(current)
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = r.now()
		if _, err := q.UpdateCategory(ctx, categoryToRow(next)); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes the category and detaches it from its transactions.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) (int64, error) {
	var detached int64
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.DeleteCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if n == 0 {
			return &core.NotFoundError{Entity: "category", ID: id}
		}
		detached, err = q.ClearTransactionCategory(ctx, id, formatTimestamp(r.now()))
		if err != nil {
			return fmt.Errorf("detach transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Category deleted", applog.NewFields().
		WithComponent(applog.ComponentStorage).
		WithOperation(applog.OpDelete).
		WithCategoryID(id).
		WithCount(int(detached)).
		ToSlice()...)
	return detached, nil
}

func getOrCreateSettings(ctx context.Context, q *Queries, now time.Time) (core.Settings, error) {
	d := core.DefaultSettings()
	err := q.EnsureSettings(ctx, EnsureSettingsParams{
		Currency:        d.Currency,
		ShowFixedCosts:  d.ShowFixedCosts,
		ShowProjections: d.ShowProjections,
		CompactView:     d.CompactView,
		UpdatedAt:       formatTimestamp(now),
	})
	if err != nil {
		return core.Settings{}, fmt.Errorf("ensure settings: %w", err)
	}
	row, err := q.GetSettings(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return rowToSettings(row)
}

// GetSettings returns the settings row, creating it with defaults on first use.
func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	return getOrCreateSettings(ctx, r.queries, r.now())
}

func (r *SQLiteRepository) UpdateSettings(ctx context.Context, mutate func(core.Settings) (core.Settings, error)) (core.Settings, error) {
	var updated core.Settings
	err := r.withTx(ctx, func(q *Queries) error {
		now := r.now()
		current, err := getOrCreateSettings(ctx, q, now)
		if err != nil {
			return err
		}
		next, err := mutate(current)
		if err != nil {
			return err
		}
		next.UpdatedAt = now
		if err := q.UpsertSettings(ctx, settingsToRow(next)); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return core.Settings{}, err
	}
	return updated, nil
}

// Import writes a snapshot in one transaction. Rows whose id already exists are skipped.
func (r *SQLiteRepository) Import(ctx context.Context, snap core.Snapshot) (core.ImportResult, error) {
	var res core.ImportResult
	err := r.withTx(ctx, func(q *Queries) error {
		for _, c := range snap.Categories {
			exists, err := q.CategoryExists(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("check category %s: %w", c.ID, err)
			}
			if exists {
				res.Categories.Skipped++
				continue
			}
			now := r.now()
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
			if c.UpdatedAt.IsZero() {
				c.UpdatedAt = c.CreatedAt
			}
			if err := q.InsertCategory(ctx, categoryToRow(c)); err != nil {
				return fmt.Errorf("import category %s: %w", c.ID, err)
			}
			res.Categories.Imported++
		}

		for _, t := range snap.Transactions {
			exists, err := q.TransactionExists(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("check transaction %s: %w", t.ID, err)
			}
			if exists {
				res.Transactions.Skipped++
				continue
			}
			r.stamp(&t)
			if err := q.InsertTransaction(ctx, transactionToRow(t)); err != nil {
				return fmt.Errorf("import transaction %s: %w", t.ID, err)
			}
			res.Transactions.Imported++
		}

		if snap.Settings != nil {
			s := *snap.Settings
			if s.UpdatedAt.IsZero() {
				s.UpdatedAt = r.now()
			}
			if err := q.UpsertSettings(ctx, settingsToRow(s)); err != nil {
				return fmt.Errorf("import settings: %w", err)
			}
			res.SettingsApplied = true
		}
		return nil
	})
	if err != nil {
		return core.ImportResult{}, err
	}

	slog.InfoContext(ctx, "Import completed",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpImport,
		"categories_imported", res.Categories.Imported,
		"categories_skipped", res.Categories.Skipped,
		"transactions_imported", res.Transactions.Imported,
		"transactions_skipped", res.Transactions.Skipped,
		"settings_applied", res.SettingsApplied)

	return res, nil
}
