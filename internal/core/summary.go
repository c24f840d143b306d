package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CategorySummary is the budget position of one category at a given day.
type CategorySummary struct {
	CategoryID        string `json:"categoryId"`
	Name              string `json:"name"`
	Color             string `json:"color"`
	Period            Period `json:"period"`
	WeeklyBudget      Money  `json:"weeklyBudget"`
	MonthlyBudget     Money  `json:"monthlyBudget"`
	SpentThisWeek     Money  `json:"spentThisWeek"`
	SpentThisMonth    Money  `json:"spentThisMonth"`
	RemainingWeek     Money  `json:"remainingWeek"`
	RemainingMonth    Money  `json:"remainingMonth"`
	ProratedAllowance Money  `json:"proratedAllowance"`
}

// MonthTotals aggregates the transactions of the calendar month.
type MonthTotals struct {
	Income     Money `json:"income"`
	Expenses   Money `json:"expenses"`
	FixedCosts Money `json:"fixedCosts"`
	CCPayments Money `json:"ccPayments"`
	Net        Money `json:"net"`
}

// BalanceProjection rolls the reconciled balances forward to month end.
type BalanceProjection struct {
	WindowStart         Date  `json:"windowStart"`
	WindowEnd           Date  `json:"windowEnd"`
	StartingChecking    Money `json:"startingChecking"`
	ProjectedChecking   Money `json:"projectedChecking"`
	StartingCreditCard  Money `json:"startingCreditCard"`
	ProjectedCreditCard Money `json:"projectedCreditCard"`
	Savings             Money `json:"savings"`
}

// Summary is the dashboard read-model for one as-of day.
type Summary struct {
	AsOf       Date              `json:"asOf"`
	WeekStart  Date              `json:"weekStart"`
	WeekEnd    Date              `json:"weekEnd"`
	MonthStart Date              `json:"monthStart"`
	MonthEnd   Date              `json:"monthEnd"`
	Categories []CategorySummary `json:"categories"`
	Totals     MonthTotals       `json:"totals"`
	Balance    BalanceProjection `json:"balance"`
}

// WeekRange returns the Monday..Sunday week containing d.
func WeekRange(d Date) (Date, Date) {
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDays(-offset)
	return start, start.AddDays(6)
}

// MonthRange returns the first and last day of d's month.
func MonthRange(d Date) (Date, Date) {
	return NewDate(d.Year(), d.Month(), 1), NewDate(d.Year(), d.Month(), d.DaysInMonth())
}

// SummaryWindow is the date span of transactions BuildSummary needs.
func SummaryWindow(asOf Date) (Date, Date) {
	ws, we := WeekRange(asOf)
	ms, me := MonthRange(asOf)
	start, end := ms, me
	if ws.Before(start.Time) {
		start = ws
	}
	if we.After(end.Time) {
		end = we
	}
	return start, end
}

// BudgetPair returns the weekly and monthly form of a category budget.
func BudgetPair(c Category) (weekly, monthly Money) {
	if c.Period == PeriodWeekly {
		return c.Budget, c.Budget.MulRound(WeeksPerMonth)
	}
	return c.Budget.DivRound(WeeksPerMonth), c.Budget
}

// ProratedAllowance is the share of a monthly budget earned by day asOf.
func ProratedAllowance(monthly Money, asOf Date) Money {
	f := decimal.NewFromInt(int64(asOf.Day())).Div(decimal.NewFromInt(int64(asOf.DaysInMonth())))
	return monthly.MulRound(f)
}

// BuildSummary computes the read-model from transactions covering SummaryWindow(asOf)
// and, for the balance projection, everything up to month end.
func BuildSummary(asOf Date, categories []Category, txs []Transaction, s Settings) Summary {
	ws, we := WeekRange(asOf)
	ms, me := MonthRange(asOf)
	sum := Summary{
		AsOf:       asOf,
		WeekStart:  ws,
		WeekEnd:    we,
		MonthStart: ms,
		MonthEnd:   me,
		Categories: make([]CategorySummary, 0, len(categories)),
	}

	weekSpent := map[string]Money{}
	monthSpent := map[string]Money{}
	for _, t := range txs {
		inWeek := within(t.Date, ws, we)
		inMonth := within(t.Date, ms, me)
		if inMonth {
			switch t.Type {
			case TypeIncome:
				sum.Totals.Income = sum.Totals.Income.Add(t.Amount)
			case TypeExpense:
				sum.Totals.Expenses = sum.Totals.Expenses.Add(t.Amount)
				if t.IsFixed {
					sum.Totals.FixedCosts = sum.Totals.FixedCosts.Add(t.Amount)
				}
			case TypeCCPayment:
				sum.Totals.CCPayments = sum.Totals.CCPayments.Add(t.Amount)
			}
		}
		if t.Type != TypeExpense || t.CategoryID == nil {
			continue
		}
		if inWeek {
			weekSpent[*t.CategoryID] = weekSpent[*t.CategoryID].Add(t.Amount)
		}
		if inMonth {
			monthSpent[*t.CategoryID] = monthSpent[*t.CategoryID].Add(t.Amount)
		}
	}
	sum.Totals.Net = sum.Totals.Income.Sub(sum.Totals.Expenses)

	for _, c := range categories {
		weekly, monthly := BudgetPair(c)
		cs := CategorySummary{
			CategoryID:        c.ID,
			Name:              c.Name,
			Color:             c.Color,
			Period:            c.Period,
			WeeklyBudget:      weekly,
			MonthlyBudget:     monthly,
			SpentThisWeek:     weekSpent[c.ID],
			SpentThisMonth:    monthSpent[c.ID],
			ProratedAllowance: ProratedAllowance(monthly, asOf),
		}
		cs.RemainingWeek = weekly.Sub(cs.SpentThisWeek)
		cs.RemainingMonth = monthly.Sub(cs.SpentThisMonth)
		sum.Categories = append(sum.Categories, cs)
	}
	sort.SliceStable(sum.Categories, func(i, j int) bool {
		return sum.Categories[i].Name < sum.Categories[j].Name
	})

	sum.Balance = ProjectBalance(asOf, txs, s)
	return sum
}

// BalanceWindow is the span after the last reconciliation through month end.
// Transactions on the reconciliation day itself are assumed to be in the balance.
func BalanceWindow(asOf Date, balanceAsOf *time.Time) (Date, Date) {
	ms, me := MonthRange(asOf)
	if balanceAsOf == nil {
		return ms, me
	}
	return DateOf(*balanceAsOf).AddDays(1), me
}

// ProjectBalance applies the transactions inside BalanceWindow to the reconciled balances.
func ProjectBalance(asOf Date, txs []Transaction, s Settings) BalanceProjection {
	start, end := BalanceWindow(asOf, s.BalanceAsOf)
	p := BalanceProjection{
		WindowStart:         start,
		WindowEnd:           end,
		StartingChecking:    s.CheckingBalance,
		ProjectedChecking:   s.CheckingBalance,
		StartingCreditCard:  s.CreditCardBalance,
		ProjectedCreditCard: s.CreditCardBalance,
		Savings:             s.SavingsBalance,
	}
	for _, t := range txs {
		if !within(t.Date, start, end) {
			continue
		}
		switch t.Type {
		case TypeIncome:
			p.ProjectedChecking = p.ProjectedChecking.Add(t.Amount)
		case TypeExpense:
			p.ProjectedChecking = p.ProjectedChecking.Sub(t.Amount)
		case TypeCCPayment:
			p.ProjectedChecking = p.ProjectedChecking.Sub(t.Amount)
			p.ProjectedCreditCard = p.ProjectedCreditCard.Sub(t.Amount)
		}
	}
	return p
}

func within(d, start, end Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}
