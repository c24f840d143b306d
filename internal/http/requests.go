package http

import (
	"time"

	"budgetdash/internal/cache"
	"budgetdash/internal/core"
)

const maxImportBytes = 10 << 20

type transactionRequest struct {
	Date        core.Date            `json:"date"`
	Amount      core.Money           `json:"amount"`
	CategoryID  *string              `json:"categoryId"`
	Description string               `json:"description" binding:"required,max=200"`
	Type        core.TransactionType `json:"type" binding:"omitempty,oneof=expense income cc_payment"`
	IsFixed     bool                 `json:"isFixed"`
	GroupID     *string              `json:"groupId"`
}

func (r transactionRequest) draft() core.TransactionDraft {
	return core.TransactionDraft{
		Date:        r.Date,
		Amount:      r.Amount,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Type:        r.Type,
		IsFixed:     r.IsFixed,
		GroupID:     r.GroupID,
	}
}

type recurringRequest struct {
	Base   transactionRequest `json:"base"`
	Months int                `json:"months" binding:"required,min=1"`
}

type groupUpdateRequest struct {
	Updates  core.TransactionPatch `json:"updates"`
	Scope    string                `json:"scope"`
	FromDate *core.Date            `json:"fromDate"`
}

type groupDeleteQuery struct {
	Scope    string `form:"scope"`
	FromDate string `form:"fromDate" binding:"omitempty,datetime=2006-01-02"`
}

type transactionQuery struct {
	StartDate  string `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate    string `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
	CategoryID string `form:"categoryId"`
	Type       string `form:"type" binding:"omitempty,oneof=expense income cc_payment"`
	IsFixed    *bool  `form:"isFixed"`
}

// filter converts the query into a core filter. Dates were already checked by the binding.
func (q transactionQuery) filter() (core.TransactionFilter, error) {
	var f core.TransactionFilter
	var err error
	if f.StartDate, err = optionalDate("startDate", q.StartDate); err != nil {
		return f, err
	}
	if f.EndDate, err = optionalDate("endDate", q.EndDate); err != nil {
		return f, err
	}
	if q.CategoryID != "" {
		id := q.CategoryID
		f.CategoryID = &id
	}
	if q.Type != "" {
		t := core.TransactionType(q.Type)
		f.Type = &t
	}
	f.IsFixed = q.IsFixed
	return f, nil
}

type categoryRequest struct {
	Name   string      `json:"name" binding:"required,max=100"`
	Budget core.Money  `json:"budget"`
	Period core.Period `json:"period" binding:"omitempty,oneof=weekly monthly"`
	Color  string      `json:"color" binding:"omitempty,hexcolor"`
}

func (r categoryRequest) draft() core.CategoryDraft {
	return core.CategoryDraft{Name: r.Name, Budget: r.Budget, Period: r.Period, Color: r.Color}
}

type summaryQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

func (q summaryQuery) asOf(now time.Time) (core.Date, error) {
	d, err := optionalDate("date", q.Date)
	if err != nil || d == nil {
		return core.DateOf(now), err
	}
	return *d, nil
}

type intentRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

type deletedResponse struct {
	ID string `json:"id"`
}

type groupDeletedResponse struct {
	Deleted int `json:"deleted"`
}

type healthResponse struct {
	Status  string         `json:"status"`
	Metrics *serverMetrics `json:"metrics,omitempty"`
}

// serverMetrics is reported by /readyz.
type serverMetrics struct {
	Requests           int64       `json:"requests"`
	AvgResponseMicros  int64       `json:"avgResponseMicros"`
	RateLimited        int64       `json:"rateLimited"`
	RateLimitedClients int64       `json:"rateLimitedClients"`
	SuspiciousRequests int64       `json:"suspiciousRequests"`
	SummaryCache       cache.Stats `json:"summaryCache"`
}

func optionalDate(field, s string) (*core.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return nil, core.NewValidationError(field, err)
	}
	return &d, nil
}
