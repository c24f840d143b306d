package storage

import (
	"database/sql"
	"fmt"
	"time"

	"budgetdash/internal/core"
)

// timestampLayout is fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		// Rows written by older tools may carry plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	return t.UTC(), err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func transactionToRow(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		Date:        t.Date.String(),
		AmountCents: t.Amount.Cents,
		CategoryID:  nullString(t.CategoryID),
		Description: t.Description,
		Type:        string(t.Type),
		IsFixed:     t.IsFixed,
		GroupID:     nullString(t.GroupID),
		CreatedAt:   formatTimestamp(t.CreatedAt),
		UpdatedAt:   formatTimestamp(t.UpdatedAt),
	}
}

func rowToTransaction(r TransactionRow) (core.Transaction, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	created, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s created_at: %w", r.ID, err)
	}
	updated, err := parseTimestamp(r.UpdatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s updated_at: %w", r.ID, err)
	}
	return core.Transaction{
		ID:          r.ID,
		Date:        date,
		Amount:      core.Cents(r.AmountCents),
		CategoryID:  stringPtr(r.CategoryID),
		Description: r.Description,
		Type:        core.TransactionType(r.Type),
		IsFixed:     r.IsFixed,
		GroupID:     stringPtr(r.GroupID),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func rowsToTransactions(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		t, err := rowToTransaction(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func categoryToRow(c core.Category) CategoryRow {
	return CategoryRow{
		ID:          c.ID,
		Name:        c.Name,
		BudgetCents: c.Budget.Cents,
		Period:      string(c.Period),
		Color:       c.Color,
		CreatedAt:   formatTimestamp(c.CreatedAt),
		UpdatedAt:   formatTimestamp(c.UpdatedAt),
	}
}

func rowToCategory(r CategoryRow) (core.Category, error) {
	created, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("category %s created_at: %w", r.ID, err)
	}
	updated, err := parseTimestamp(r.UpdatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("category %s updated_at: %w", r.ID, err)
	}
	return core.Category{
		ID:        r.ID,
		Name:      r.Name,
		Budget:    core.Cents(r.BudgetCents),
		Period:    core.Period(r.Period),
		Color:     r.Color,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func settingsToRow(s core.Settings) SettingsRow {
	row := SettingsRow{
		IncomeCents:            s.Income.Cents,
		Currency:               s.Currency,
		ShowFixedCosts:         s.ShowFixedCosts,
		ShowProjections:        s.ShowProjections,
		CompactView:            s.CompactView,
		CheckingBalanceCents:   s.CheckingBalance.Cents,
		SavingsBalanceCents:    s.SavingsBalance.Cents,
		CreditCardBalanceCents: s.CreditCardBalance.Cents,
		UpdatedAt:              formatTimestamp(s.UpdatedAt),
	}
	if s.BalanceAsOf != nil {
		row.BalanceAsOf = sql.NullString{String: formatTimestamp(*s.BalanceAsOf), Valid: true}
	}
	return row
}

func rowToSettings(r SettingsRow) (core.Settings, error) {
	updated, err := parseTimestamp(r.UpdatedAt)
	if err != nil {
		return core.Settings{}, fmt.Errorf("settings updated_at: %w", err)
	}
	s := core.Settings{
		Income:            core.Cents(r.IncomeCents),
		Currency:          r.Currency,
		ShowFixedCosts:    r.ShowFixedCosts,
		ShowProjections:   r.ShowProjections,
		CompactView:       r.CompactView,
		CheckingBalance:   core.Cents(r.CheckingBalanceCents),
		SavingsBalance:    core.Cents(r.SavingsBalanceCents),
		CreditCardBalance: core.Cents(r.CreditCardBalanceCents),
		UpdatedAt:         updated,
	}
	if r.BalanceAsOf.Valid {
		t, err := parseTimestamp(r.BalanceAsOf.String)
		if err != nil {
			return core.Settings{}, fmt.Errorf("settings balance_as_of: %w", err)
		}
		s.BalanceAsOf = &t
	}
	return s, nil
}

func filterToParams(f core.TransactionFilter) ListTransactionsParams {
	var p ListTransactionsParams
	if f.StartDate != nil {
		p.StartDate = sql.NullString{String: f.StartDate.String(), Valid: true}
	}
	if f.EndDate != nil {
		p.EndDate = sql.NullString{String: f.EndDate.String(), Valid: true}
	}
	if f.CategoryID != nil {
		p.CategoryID = sql.NullString{String: *f.CategoryID, Valid: true}
	}
	if f.Type != nil {
		p.Type = sql.NullString{String: string(*f.Type), Valid: true}
	}
	if f.IsFixed != nil {
		p.IsFixed = sql.NullBool{Bool: *f.IsFixed, Valid: true}
	}
	return p
}
