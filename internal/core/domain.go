package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	TypeExpense   TransactionType = "expense"
	TypeIncome    TransactionType = "income"
	TypeCCPayment TransactionType = "cc_payment"
)

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

const (
	// FixedCategoryID marks uncategorized recurring costs. It never has a Category row.
	FixedCategoryID = "fixed"

	DefaultCategoryColor  = "#6B7280"
	MaxDescriptionLength  = 200
	MaxCategoryNameLength = 100
)

type (
	TransactionType string

	Period string

	Transaction struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Amount      Money           `json:"amount"`
		CategoryID  *string         `json:"categoryId"`
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
		IsFixed     bool            `json:"isFixed"`
		GroupID     *string         `json:"groupId"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	// TransactionDraft is a transaction before the store assigns identity and timestamps.
	TransactionDraft struct {
		Date        Date            `json:"date"`
		Amount      Money           `json:"amount"`
		CategoryID  *string         `json:"categoryId"`
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
		IsFixed     bool            `json:"isFixed"`
		GroupID     *string         `json:"groupId"`
	}

	// TransactionPatch holds the fields of a partial update. Nil fields are left untouched.
	TransactionPatch struct {
		Date        *Date            `json:"date"`
		Amount      *Money           `json:"amount"`
		CategoryID  OptionalString   `json:"categoryId"`
		Description *string          `json:"description"`
		Type        *TransactionType `json:"type"`
	}

	TransactionFilter struct {
		StartDate  *Date
		EndDate    *Date
		CategoryID *string
		Type       *TransactionType
		IsFixed    *bool
	}

	Category struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Budget    Money     `json:"budget"`
		Period    Period    `json:"period"`
		Color     string    `json:"color"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	CategoryDraft struct {
		Name   string `json:"name"`
		Budget Money  `json:"budget"`
		Period Period `json:"period"`
		Color  string `json:"color"`
	}

	CategoryPatch struct {
		Name   *string `json:"name"`
		Budget *Money  `json:"budget"`
		Period *Period `json:"period"`
		Color  *string `json:"color"`
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidCategoryID   = errors.New("invalid category id")
	ErrFixedWithoutGroup   = errors.New("fixed transaction requires a group id")
	ErrEmptyName           = errors.New("empty name")
	ErrNameTooLong         = errors.New("name too long")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrInvalidColor        = errors.New("invalid color")
	ErrInvalidScope        = errors.New("invalid scope")
	ErrInvalidMonths       = errors.New("invalid number of months")
	ErrInvalidDateRange    = errors.New("start date after end date")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrInvalidTransactions = errors.New("invalid transactions")
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeCCPayment:
		return true
	}
	return false
}

func (p Period) Valid() bool {
	return p == PeriodWeekly || p == PeriodMonthly
}

// Normalize trims free text and fills the default type.
func (d *TransactionDraft) Normalize() {
	d.Description = strings.TrimSpace(d.Description)
	if d.Type == "" {
		d.Type = TypeExpense
	}
}

// Validate checks a draft destined for a single insert.
func (d TransactionDraft) Validate() error {
	v := d.validateFields()
	if d.IsFixed && (d.GroupID == nil || *d.GroupID == "") {
		v.Add("groupId", ErrFixedWithoutGroup)
	}
	return v.OrNil()
}

// validateFields checks everything except recurrence membership.
func (d TransactionDraft) validateFields() *ValidationError {
	v := &ValidationError{}
	if d.Date.IsZero() {
		v.Add("date", ErrInvalidDate)
	}
	if err := d.Amount.Validate(); err != nil {
		v.Add("amount", err)
	}
	if err := validateDescription(d.Description); err != nil {
		v.Add("description", err)
	}
	if !d.Type.Valid() {
		v.Add("type", ErrInvalidType)
	}
	if d.CategoryID != nil && strings.TrimSpace(*d.CategoryID) == "" {
		v.Add("categoryId", ErrInvalidCategoryID)
	}
	return v
}

func validateDescription(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmptyDescription
	}
	if len([]rune(s)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// Validate checks only the fields present in the patch.
func (p TransactionPatch) Validate() error {
	v := &ValidationError{}
	if p.Date != nil && p.Date.IsZero() {
		v.Add("date", ErrInvalidDate)
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			v.Add("amount", err)
		}
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			v.Add("description", err)
		}
	}
	if p.Type != nil && !p.Type.Valid() {
		v.Add("type", ErrInvalidType)
	}
	if p.CategoryID.Set && p.CategoryID.Value != nil && strings.TrimSpace(*p.CategoryID.Value) == "" {
		v.Add("categoryId", ErrInvalidCategoryID)
	}
	return v.OrNil()
}

// WithoutDate drops the date change. Group edits never move members in time.
func (p TransactionPatch) WithoutDate() TransactionPatch {
	p.Date = nil
	return p
}

// Apply merges the patch onto t and returns the result.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.CategoryID.Set {
		t.CategoryID = cloneString(p.CategoryID.Value)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	return t
}

func (f TransactionFilter) Validate() error {
	v := &ValidationError{}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(f.EndDate.Time) {
		v.Add("startDate", ErrInvalidDateRange)
	}
	if f.Type != nil && !f.Type.Valid() {
		v.Add("type", ErrInvalidType)
	}
	return v.OrNil()
}

// Matches reports whether t satisfies every set criterion.
func (f TransactionFilter) Matches(t Transaction) bool {
	if f.StartDate != nil && t.Date.Before(f.StartDate.Time) {
		return false
	}
	if f.EndDate != nil && t.Date.After(f.EndDate.Time) {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.IsFixed != nil && t.IsFixed != *f.IsFixed {
		return false
	}
	return true
}

func (d *CategoryDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Color = strings.TrimSpace(d.Color)
	if d.Color == "" {
		d.Color = DefaultCategoryColor
	}
	if d.Period == "" {
		d.Period = PeriodMonthly
	}
}

func (d CategoryDraft) Validate() error {
	v := &ValidationError{}
	if err := validateName(d.Name); err != nil {
		v.Add("name", err)
	}
	if d.Budget.IsNegative() {
		v.Add("budget", ErrNegativeAmount)
	}
	if !d.Period.Valid() {
		v.Add("period", ErrInvalidPeriod)
	}
	if !hexColorPattern.MatchString(d.Color) {
		v.Add("color", ErrInvalidColor)
	}
	return v.OrNil()
}

func (p CategoryPatch) Validate() error {
	v := &ValidationError{}
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			v.Add("name", err)
		}
	}
	if p.Budget != nil && p.Budget.IsNegative() {
		v.Add("budget", ErrNegativeAmount)
	}
	if p.Period != nil && !p.Period.Valid() {
		v.Add("period", ErrInvalidPeriod)
	}
	if p.Color != nil && !hexColorPattern.MatchString(strings.TrimSpace(*p.Color)) {
		v.Add("color", ErrInvalidColor)
	}
	return v.OrNil()
}

func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Budget != nil {
		c.Budget = *p.Budget
	}
	if p.Period != nil {
		c.Period = *p.Period
	}
	if p.Color != nil {
		c.Color = strings.TrimSpace(*p.Color)
	}
	return c
}

// Validate checks a category that arrives whole, e.g. from an import file.
func (c Category) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(c.ID) == "" {
		v.Add("id", ErrInvalidCategoryID)
	}
	if err := (CategoryDraft{Name: c.Name, Budget: c.Budget, Period: c.Period, Color: c.Color}).Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			v.Fields = append(v.Fields, ve.Fields...)
		}
	}
	return v.OrNil()
}

// Validate checks a transaction that arrives whole, e.g. from an import file.
func (t Transaction) Validate() error {
	d := TransactionDraft{
		Date:        t.Date,
		Amount:      t.Amount,
		CategoryID:  t.CategoryID,
		Description: t.Description,
		Type:        t.Type,
		IsFixed:     t.IsFixed,
		GroupID:     t.GroupID,
	}
	v := &ValidationError{}
	if strings.TrimSpace(t.ID) == "" {
		v.Add("id", ErrInvalidTransactions)
	}
	if err := d.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			v.Fields = append(v.Fields, ve.Fields...)
		}
	}
	return v.OrNil()
}

func validateName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmptyName
	}
	if len([]rune(s)) > MaxCategoryNameLength {
		return ErrNameTooLong
	}
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
