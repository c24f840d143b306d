package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRecurringMonths caps how far ahead a recurring group is projected.
const DefaultMaxRecurringMonths = 24

// RecurrenceGenerator expands a base draft into one transaction per month.
type RecurrenceGenerator struct {
	MaxMonths int
	NewID     func() string
	Now       func() time.Time
}

func NewRecurrenceGenerator(maxMonths int) RecurrenceGenerator {
	if maxMonths <= 0 {
		maxMonths = DefaultMaxRecurringMonths
	}
	return RecurrenceGenerator{
		MaxMonths: maxMonths,
		NewID:     uuid.NewString,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Generate returns months transactions sharing one fresh group id. Each date keeps
// the base day of month, clamped to the last day of shorter months; every instance is fixed.
func (g RecurrenceGenerator) Generate(base TransactionDraft, months int) ([]Transaction, error) {
	base.Normalize()
	v := base.validateFields()
	if months < 1 || months > g.MaxMonths {
		v.Add("months", fmt.Errorf("%w: must be between 1 and %d", ErrInvalidMonths, g.MaxMonths))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	groupID := g.NewID()
	now := g.Now()
	out := make([]Transaction, 0, months)
	for i := 0; i < months; i++ {
		gid := groupID
		out = append(out, Transaction{
			ID:          g.NewID(),
			Date:        base.Date.AddMonthsClamped(i),
			Amount:      base.Amount,
			CategoryID:  cloneString(base.CategoryID),
			Description: base.Description,
			Type:        base.Type,
			IsFixed:     true,
			GroupID:     &gid,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out, nil
}
