package analysis

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetctl/budgetctl/internal/model"
)

// ValidationError describes a single broken WeeklyAnalysis invariant.
type ValidationError struct {
	Invariant int
	Week      string
	Message   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [week %s]: %s", e.Invariant, e.Week, e.Message)
}

// Validate enforces the WeeklyAnalysis invariants. A non-empty result means
// the analysis was not produced by Analyze or was corrupted afterwards.
func Validate(a model.WeeklyAnalysis) []ValidationError {
	var errs []ValidationError
	week := a.WeekStart.Format("2006-01-02")
	fail := func(inv int, format string, args ...any) {
		errs = append(errs, ValidationError{Invariant: inv, Week: week, Message: fmt.Sprintf(format, args...)})
	}

	// Invariant 1: week starts on a Monday at midnight.
	if a.WeekStart.Weekday() != time.Monday || !WeekStart(a.WeekStart).Equal(a.WeekStart) {
		fail(1, "week start %s is not a Monday midnight", a.WeekStart.Format(time.RFC3339))
	}

	// Invariant 2: week end is six days after week start.
	if !a.WeekEnd.Equal(a.WeekStart.AddDate(0, 0, model.DaysPerWeek-1)) {
		fail(2, "week end %s is not week start + 6 days", a.WeekEnd.Format("2006-01-02"))
	}

	// Invariant 3: category totals sum to total expenses, none negative.
	sum := decimal.Zero
	for cat, v := range a.CategoryTotals {
		if v.IsNegative() {
			fail(3, "category %s total %s is negative", cat, v.StringFixed(2))
		}
		sum = sum.Add(v)
	}
	if !sum.Equal(a.TotalExpenses) {
		fail(3, "category totals (%s) != total expenses (%s)", sum.StringFixed(2), a.TotalExpenses.StringFixed(2))
	}

	// Invariant 4: average daily expense is total / 7.
	if !a.AvgDailyExpense.Equal(a.TotalExpenses.Div(daysPerWeek)) {
		fail(4, "average daily expense %s != total / 7", a.AvgDailyExpense.String())
	}

	// Invariant 5: transaction count matches the retained transactions.
	if a.TransactionCount != len(a.Transactions) {
		fail(5, "transaction count %d != %d transactions", a.TransactionCount, len(a.Transactions))
	}

	// Invariant 6: every transaction falls inside the week and is categorized.
	end := a.WeekStart.AddDate(0, 0, model.DaysPerWeek)
	for i, t := range a.Transactions {
		if t.Date.Before(a.WeekStart) || !t.Date.Before(end) {
			fail(6, "transaction %d dated %s outside week", i, t.Date.Format("2006-01-02"))
		}
		if !t.Categorized() {
			fail(6, "transaction %d has no category", i)
		}
	}

	return errs
}
