package core

import "strings"

const (
	ScopeAll    Scope = "all"
	ScopeFuture Scope = "future"
)

// Scope picks which members of a recurrence group an edit or delete touches.
type Scope string

// GroupSelector is a scope plus the cutoff date used by ScopeFuture.
type GroupSelector struct {
	Scope    Scope
	FromDate *Date
}

// ParseScope accepts "all" or "future". An empty value means all.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeFuture:
		return ScopeFuture, nil
	}
	return "", NewValidationError("scope", ErrInvalidScope)
}

// NewGroupSelector parses the scope and pairs it with an optional cutoff.
func NewGroupSelector(scope string, fromDate *Date) (GroupSelector, error) {
	sc, err := ParseScope(scope)
	if err != nil {
		return GroupSelector{}, err
	}
	return GroupSelector{Scope: sc, FromDate: fromDate}, nil
}

// Matches reports whether t is selected. Future without a cutoff selects nothing.
func (s GroupSelector) Matches(t Transaction) bool {
	switch s.Scope {
	case ScopeAll, "":
		return true
	case ScopeFuture:
		if s.FromDate == nil {
			return false
		}
		return !t.Date.Before(s.FromDate.Time)
	}
	return false
}

// Select returns the members the selector picks, preserving order.
func (s GroupSelector) Select(members []Transaction) []Transaction {
	var out []Transaction
	for _, t := range members {
		if s.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// ApplyGroupPatch merges p onto every selected member. The member dates never change.
func ApplyGroupPatch(members []Transaction, sel GroupSelector, p TransactionPatch) []Transaction {
	p = p.WithoutDate()
	selected := sel.Select(members)
	out := make([]Transaction, 0, len(selected))
	for _, t := range selected {
		out = append(out, p.Apply(t))
	}
	return out
}
