package core

import (
	"regexp"
	"strings"
	"time"
)

const DefaultCurrency = "USD"

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Settings is the single row of user preferences and reconciled account balances.
type Settings struct {
	Income            Money      `json:"income"`
	Currency          string     `json:"currency"`
	ShowFixedCosts    bool       `json:"showFixedCosts"`
	ShowProjections   bool       `json:"showProjections"`
	CompactView       bool       `json:"compactView"`
	CheckingBalance   Money      `json:"checkingBalance"`
	SavingsBalance    Money      `json:"savingsBalance"`
	CreditCardBalance Money      `json:"creditCardBalance"`
	BalanceAsOf       *time.Time `json:"balanceAsOf"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type SettingsPatch struct {
	Income            *Money     `json:"income"`
	Currency          *string    `json:"currency"`
	ShowFixedCosts    *bool      `json:"showFixedCosts"`
	ShowProjections   *bool      `json:"showProjections"`
	CompactView       *bool      `json:"compactView"`
	CheckingBalance   *Money     `json:"checkingBalance"`
	SavingsBalance    *Money     `json:"savingsBalance"`
	CreditCardBalance *Money     `json:"creditCardBalance"`
	BalanceAsOf       *time.Time `json:"balanceAsOf"`
}

// DefaultSettings is what a fresh database reads back.
func DefaultSettings() Settings {
	return Settings{
		Currency:        DefaultCurrency,
		ShowFixedCosts:  true,
		ShowProjections: true,
	}
}

func (s Settings) Validate() error {
	v := &ValidationError{}
	if s.Income.IsNegative() {
		v.Add("income", ErrNegativeAmount)
	}
	if !currencyPattern.MatchString(s.Currency) {
		v.Add("currency", ErrInvalidCurrency)
	}
	return v.OrNil()
}

func (p SettingsPatch) Validate() error {
	v := &ValidationError{}
	if p.Income != nil && p.Income.IsNegative() {
		v.Add("income", ErrNegativeAmount)
	}
	if p.Currency != nil && !currencyPattern.MatchString(strings.ToUpper(strings.TrimSpace(*p.Currency))) {
		v.Add("currency", ErrInvalidCurrency)
	}
	return v.OrNil()
}

// TouchesBalances reports whether any account balance is being changed.
func (p SettingsPatch) TouchesBalances() bool {
	return p.CheckingBalance != nil || p.SavingsBalance != nil || p.CreditCardBalance != nil
}

// Apply merges the patch. A balance change without an explicit balanceAsOf is stamped with now.
func (p SettingsPatch) Apply(s Settings, now time.Time) Settings {
	if p.Income != nil {
		s.Income = *p.Income
	}
	if p.Currency != nil {
		s.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	if p.ShowFixedCosts != nil {
		s.ShowFixedCosts = *p.ShowFixedCosts
	}
	if p.ShowProjections != nil {
		s.ShowProjections = *p.ShowProjections
	}
	if p.CompactView != nil {
		s.CompactView = *p.CompactView
	}
	if p.CheckingBalance != nil {
		s.CheckingBalance = *p.CheckingBalance
	}
	if p.SavingsBalance != nil {
		s.SavingsBalance = *p.SavingsBalance
	}
	if p.CreditCardBalance != nil {
		s.CreditCardBalance = *p.CreditCardBalance
	}
	switch {
	case p.BalanceAsOf != nil:
		t := p.BalanceAsOf.UTC()
		s.BalanceAsOf = &t
	case p.TouchesBalances():
		t := now.UTC()
		s.BalanceAsOf = &t
	}
	return s
}
