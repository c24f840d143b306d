package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-01", true},
		{"2024-02-29", true},
		{"2025-02-29", false},
		{"2025-13-01", false},
		{"2025-1-1", false},
		{"", false},
	}
	for i, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2025-03-31"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d != NewDate(2025, 3, 31) {
		t.Fatalf("unexpected date %v", d)
	}
	out, _ := json.Marshal(d)
	if string(out) != `"2025-03-31"` {
		t.Fatalf("unexpected json %s", out)
	}
	if err := json.Unmarshal([]byte(`"2025-03-31T10:00:00Z"`), &d); err == nil {
		t.Fatalf("expected error for timestamp input")
	}
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		from Date
		n    int
		want Date
	}{
		{NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)},
		{NewDate(2025, 1, 31), 1, NewDate(2025, 2, 28)},
		{NewDate(2025, 1, 31), 2, NewDate(2025, 3, 31)},
		{NewDate(2025, 1, 30), 3, NewDate(2025, 4, 30)},
		{NewDate(2025, 11, 15), 2, NewDate(2026, 1, 15)},
		{NewDate(2025, 8, 31), 6, NewDate(2026, 2, 28)},
		{NewDate(2025, 5, 10), 0, NewDate(2025, 5, 10)},
	}
	for _, tc := range cases {
		if got := tc.from.AddMonthsClamped(tc.n); got != tc.want {
			t.Fatalf("%s + %d months: expected %s, got %s", tc.from, tc.n, tc.want, got)
		}
	}
}

func TestTransactionDraftValidate(t *testing.T) {
	good := TransactionDraft{
		Date:        NewDate(2025, 1, 1),
		Amount:      Cents(100),
		Description: "groceries",
		Type:        TypeExpense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		edit  func(*TransactionDraft)
		field string
		err   error
	}{
		{"zero date", func(d *TransactionDraft) { d.Date = Date{Time: time.Time{}} }, "date", ErrInvalidDate},
		{"zero amount", func(d *TransactionDraft) { d.Amount = Cents(0) }, "amount", ErrInvalidAmount},
		{"blank description", func(d *TransactionDraft) { d.Description = "   " }, "description", ErrEmptyDescription},
		{"long description", func(d *TransactionDraft) { d.Description = strings.Repeat("x", 201) }, "description", ErrDescriptionTooLong},
		{"bad type", func(d *TransactionDraft) { d.Type = "transfer" }, "type", ErrInvalidType},
		{"empty category", func(d *TransactionDraft) { d.CategoryID = strPtr("") }, "categoryId", ErrInvalidCategoryID},
		{"fixed without group", func(d *TransactionDraft) { d.IsFixed = true }, "groupId", ErrFixedWithoutGroup},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := good
			tc.edit(&d)
			err := d.Validate()
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Fields[0].Field != tc.field {
				t.Fatalf("expected field %s, got %v", tc.field, err)
			}
		})
	}
}

func TestTransactionDraftNormalize(t *testing.T) {
	d := TransactionDraft{Description: "  rent  "}
	d.Normalize()
	if d.Description != "rent" || d.Type != TypeExpense {
		t.Fatalf("unexpected normalized draft %+v", d)
	}
}

func TestTransactionPatchApply(t *testing.T) {
	base := Transaction{
		ID:          "t1",
		Date:        NewDate(2025, 1, 15),
		Amount:      Cents(500),
		CategoryID:  strPtr("food"),
		Description: "lunch",
		Type:        TypeExpense,
	}

	newDate := NewDate(2025, 2, 1)
	amount := Cents(700)
	got := TransactionPatch{Date: &newDate, Amount: &amount, CategoryID: NullString()}.Apply(base)
	if got.Date != newDate || got.Amount != amount || got.CategoryID != nil {
		t.Fatalf("unexpected patched transaction %+v", got)
	}
	if got.Description != "lunch" {
		t.Fatalf("untouched field changed: %q", got.Description)
	}

	got = TransactionPatch{Date: &newDate}.WithoutDate().Apply(base)
	if got.Date != base.Date {
		t.Fatalf("date should be preserved, got %s", got.Date)
	}
}

func TestTransactionPatchJSON(t *testing.T) {
	var p TransactionPatch
	if err := json.Unmarshal([]byte(`{"categoryId": null}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.CategoryID.Set || p.CategoryID.Value != nil {
		t.Fatalf("expected explicit null, got %+v", p.CategoryID)
	}

	p = TransactionPatch{}
	if err := json.Unmarshal([]byte(`{"amount": 10}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.CategoryID.Set {
		t.Fatalf("absent categoryId should not be set")
	}
}

func TestTransactionFilterMatches(t *testing.T) {
	start := NewDate(2025, 1, 1)
	end := NewDate(2025, 1, 31)
	income := TypeIncome
	fixed := true
	tx := Transaction{Date: NewDate(2025, 1, 31), Type: TypeIncome, IsFixed: true, CategoryID: strPtr("salary")}

	cases := []struct {
		name string
		f    TransactionFilter
		want bool
	}{
		{"empty filter", TransactionFilter{}, true},
		{"inclusive range", TransactionFilter{StartDate: &start, EndDate: &end}, true},
		{"before range", TransactionFilter{EndDate: &start}, false},
		{"type and fixed", TransactionFilter{Type: &income, IsFixed: &fixed}, true},
		{"other category", TransactionFilter{CategoryID: strPtr("food")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Matches(tx); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if err := (TransactionFilter{StartDate: &end, EndDate: &start}).Validate(); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestCategoryDraftValidate(t *testing.T) {
	d := CategoryDraft{Name: " Food "}
	d.Normalize()
	if err := d.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Color != DefaultCategoryColor || d.Period != PeriodMonthly || d.Name != "Food" {
		t.Fatalf("unexpected defaults %+v", d)
	}

	bads := []CategoryDraft{
		{Name: "", Period: PeriodWeekly, Color: "#FFFFFF"},
		{Name: "a", Period: "daily", Color: "#FFFFFF"},
		{Name: "a", Period: PeriodWeekly, Color: "red"},
		{Name: "a", Period: PeriodWeekly, Color: "#FFFFFF", Budget: Cents(-1)},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSettingsPatchApply(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	checking := Cents(250000)
	s := SettingsPatch{CheckingBalance: &checking}.Apply(DefaultSettings(), now)
	if s.BalanceAsOf == nil || !s.BalanceAsOf.Equal(now) {
		t.Fatalf("balance change should stamp balanceAsOf, got %v", s.BalanceAsOf)
	}

	currency := "eur"
	s = SettingsPatch{Currency: &currency}.Apply(DefaultSettings(), now)
	if s.Currency != "EUR" || s.BalanceAsOf != nil {
		t.Fatalf("unexpected settings %+v", s)
	}

	bad := "EURO"
	if err := (SettingsPatch{Currency: &bad}).Validate(); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestNotFoundError(t *testing.T) {
	err := error(&NotFoundError{Entity: "transaction", ID: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is ErrNotFound")
	}
	if err.Error() != "transaction x not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
