package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type TransactionRow struct {
	ID          string
	Date        string
	AmountCents int64
	CategoryID  sql.NullString
	Description string
	Type        string
	IsFixed     bool
	GroupID     sql.NullString
	CreatedAt   string
	UpdatedAt   string
}

type CategoryRow struct {
	ID          string
	Name        string
	BudgetCents int64
	Period      string
	Color       string
	CreatedAt   string
	UpdatedAt   string
}

type SettingsRow struct {
	IncomeCents            int64
	Currency               string
	ShowFixedCosts         bool
	ShowProjections        bool
	CompactView            bool
	CheckingBalanceCents   int64
	SavingsBalanceCents    int64
	CreditCardBalanceCents int64
	BalanceAsOf            sql.NullString
	UpdatedAt              string
}

const transactionColumns = `id, date, amount_cents, category_id, description, type, is_fixed, group_id, created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (TransactionRow, error) {
	var i TransactionRow
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.AmountCents,
		&i.CategoryID,
		&i.Description,
		&i.Type,
		&i.IsFixed,
		&i.GroupID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectTransactions(rows *sql.Rows) ([]TransactionRow, error) {
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertTransaction = `
INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		arg.ID,
		arg.Date,
		arg.AmountCents,
		arg.CategoryID,
		arg.Description,
		arg.Type,
		arg.IsFixed,
		arg.GroupID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getTransactionSQL = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransactionSQL, id))
}

const transactionExists = `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = ?)`

func (q *Queries) TransactionExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, transactionExists, id).Scan(&exists)
	return exists, err
}

type ListTransactionsParams struct {
	StartDate  sql.NullString
	EndDate    sql.NullString
	CategoryID sql.NullString
	Type       sql.NullString
	IsFixed    sql.NullBool
}

const listTransactions = `
SELECT ` + transactionColumns + ` FROM transactions
WHERE (? IS NULL OR date >= ?)
  AND (? IS NULL OR date <= ?)
  AND (? IS NULL OR category_id = ?)
  AND (? IS NULL OR type = ?)
  AND (? IS NULL OR is_fixed = ?)
ORDER BY date DESC, created_at DESC, id DESC`

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions,
		arg.StartDate, arg.StartDate,
		arg.EndDate, arg.EndDate,
		arg.CategoryID, arg.CategoryID,
		arg.Type, arg.Type,
		arg.IsFixed, arg.IsFixed,
	)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const listGroupTransactions = `
SELECT ` + transactionColumns + ` FROM transactions
WHERE group_id = ?
ORDER BY date ASC, created_at ASC, id ASC`

func (q *Queries) ListGroupTransactions(ctx context.Context, groupID string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listGroupTransactions, groupID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const updateTransaction = `
UPDATE transactions
SET date = ?, amount_cents = ?, category_id = ?, description = ?, type = ?, is_fixed = ?, group_id = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Date,
		arg.AmountCents,
		arg.CategoryID,
		arg.Description,
		arg.Type,
		arg.IsFixed,
		arg.GroupID,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const clearTransactionCategory = `
UPDATE transactions SET category_id = NULL, updated_at = ?
WHERE category_id = ?`

func (q *Queries) ClearTransactionCategory(ctx context.Context, categoryID, updatedAt string) (int64, error) {
	result, err := q.db.ExecContext(ctx, clearTransactionCategory, updatedAt, categoryID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const categoryColumns = `id, name, budget_cents, period, color, created_at, updated_at`

func scanCategory(row interface{ Scan(...interface{}) error }) (CategoryRow, error) {
	var i CategoryRow
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.BudgetCents,
		&i.Period,
		&i.Color,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertCategory = `
INSERT INTO categories (` + categoryColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertCategory(ctx context.Context, arg CategoryRow) error {
	_, err := q.db.ExecContext(ctx, insertCategory,
		arg.ID,
		arg.Name,
		arg.BudgetCents,
		arg.Period,
		arg.Color,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getCategorySQL = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id string) (CategoryRow, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategorySQL, id))
}

const categoryExists = `SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`

func (q *Queries) CategoryExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, categoryExists, id).Scan(&exists)
	return exists, err
}

const listCategories = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC, id ASC`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		i, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateCategory = `
UPDATE categories
SET name = ?, budget_cents = ?, period = ?, color = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, arg CategoryRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateCategory,
		arg.Name,
		arg.BudgetCents,
		arg.Period,
		arg.Color,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const ensureSettings = `
INSERT INTO settings (id, currency, show_fixed_costs, show_projections, compact_view, updated_at)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING`

type EnsureSettingsParams struct {
	Currency        string
	ShowFixedCosts  bool
	ShowProjections bool
	CompactView     bool
	UpdatedAt       string
}

func (q *Queries) EnsureSettings(ctx context.Context, arg EnsureSettingsParams) error {
	_, err := q.db.ExecContext(ctx, ensureSettings,
		arg.Currency,
		arg.ShowFixedCosts,
		arg.ShowProjections,
		arg.CompactView,
		arg.UpdatedAt,
	)
	return err
}

const getSettings = `
SELECT income_cents, currency, show_fixed_costs, show_projections, compact_view,
       checking_balance_cents, savings_balance_cents, credit_card_balance_cents, balance_as_of, updated_at
FROM settings WHERE id = 1`

func (q *Queries) GetSettings(ctx context.Context) (SettingsRow, error) {
	var i SettingsRow
	err := q.db.QueryRowContext(ctx, getSettings).Scan(
		&i.IncomeCents,
		&i.Currency,
		&i.ShowFixedCosts,
		&i.ShowProjections,
		&i.CompactView,
		&i.CheckingBalanceCents,
		&i.SavingsBalanceCents,
		&i.CreditCardBalanceCents,
		&i.BalanceAsOf,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertSettings = `
INSERT INTO settings (id, income_cents, currency, show_fixed_costs, show_projections, compact_view,
    checking_balance_cents, savings_balance_cents, credit_card_balance_cents, balance_as_of, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    income_cents = excluded.income_cents,
    currency = excluded.currency,
    show_fixed_costs = excluded.show_fixed_costs,
    show_projections = excluded.show_projections,
    compact_view = excluded.compact_view,
    checking_balance_cents = excluded.checking_balance_cents,
    savings_balance_cents = excluded.savings_balance_cents,
    credit_card_balance_cents = excluded.credit_card_balance_cents,
    balance_as_of = excluded.balance_as_of,
    updated_at = excluded.updated_at`

func (q *Queries) UpsertSettings(ctx context.Context, arg SettingsRow) error {
	_, err := q.db.ExecContext(ctx, upsertSettings,
		arg.IncomeCents,
		arg.Currency,
		arg.ShowFixedCosts,
		arg.ShowProjections,
		arg.CompactView,
		arg.CheckingBalanceCents,
		arg.SavingsBalanceCents,
		arg.CreditCardBalanceCents,
		arg.BalanceAsOf,
		arg.UpdatedAt,
	)
	return err
}
