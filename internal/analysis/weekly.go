// Package analysis aggregates categorized transactions into weekly reports
// and compares consecutive weeks.
package analysis

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetctl/budgetctl/internal/model"
)

var (
	daysPerWeek = decimal.NewFromInt(model.DaysPerWeek)
	hundred     = decimal.NewFromInt(100)
)

// Analyzer builds WeeklyAnalysis values. Now stamps AnalysisTimestamp and
// picks the default week for empty input.
type Analyzer struct {
	Now func() time.Time
}

// New returns an Analyzer using the wall clock.
func New() *Analyzer {
	return &Analyzer{Now: time.Now}
}

// WeekStart returns midnight UTC of the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0 ... Sunday = 6
	return day.AddDate(0, 0, -offset)
}

// Analyze aggregates the week starting at weekStart. A zero weekStart is
// derived from the earliest transaction, or the current week when txns is
// empty. A weekStart that is not a Monday is moved back to its Monday.
func (a *Analyzer) Analyze(txns []model.Transaction, weekStart time.Time) model.WeeklyAnalysis {
	now := a.now()
	switch {
	case !weekStart.IsZero():
		weekStart = WeekStart(weekStart)
	case len(txns) > 0:
		weekStart = WeekStart(earliest(txns))
	default:
		weekStart = WeekStart(now)
	}
	weekEnd := weekStart.AddDate(0, 0, model.DaysPerWeek)

	var inWeek []model.Transaction
	for _, t := range txns {
		if !t.Date.Before(weekStart) && t.Date.Before(weekEnd) {
			inWeek = append(inWeek, t)
		}
	}

	totals := CategoryTotals(inWeek)
	total := decimal.Zero
	for _, v := range totals {
		total = total.Add(v)
	}

	return model.WeeklyAnalysis{
		WeekStart:         weekStart,
		WeekEnd:           weekStart.AddDate(0, 0, model.DaysPerWeek-1),
		TotalExpenses:     total,
		AvgDailyExpense:   total.Div(daysPerWeek),
		CategoryTotals:    totals,
		TransactionCount:  len(inWeek),
		Transactions:      inWeek,
		AnalysisTimestamp: now,
	}
}

// Recalculate recomputes the totals of a after its transactions changed
// category. The week and timestamp are kept.
func Recalculate(a model.WeeklyAnalysis) model.WeeklyAnalysis {
	totals := CategoryTotals(a.Transactions)
	total := decimal.Zero
	for _, v := range totals {
		total = total.Add(v)
	}
	a.CategoryTotals = totals
	a.TotalExpenses = total
	a.AvgDailyExpense = total.Div(daysPerWeek)
	a.TransactionCount = len(a.Transactions)
	return a
}

// CategoryTotals sums |amount| of expenses per category. Income is ignored.
// Uncategorized transactions count as unassigned.
func CategoryTotals(txns []model.Transaction) map[model.Category]decimal.Decimal {
	totals := make(map[model.Category]decimal.Decimal)
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = model.CategoryUnassigned
		}
		totals[cat] = totals[cat].Add(t.Amount.Abs())
	}
	return totals
}

// PercentChange is (current-previous)/previous*100. A zero previous yields
// 100 when current is positive and 0 otherwise.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return current.Sub(previous).Mul(hundred).Div(previous)
}

// Compare computes week-over-week changes of current against previous for
// every category in the fixed enumeration, followed by any extra categories
// present in either week.
func Compare(current, previous model.WeeklyAnalysis) model.Comparison {
	cats := comparisonCategories(current, previous)
	changes := make(map[model.Category]model.Change, len(cats))
	for _, c := range cats {
		cur := current.CategoryTotal(c)
		prev := previous.CategoryTotal(c)
		changes[c] = model.Change{
			Change:        cur.Sub(prev),
			ChangePercent: PercentChange(cur, prev),
		}
	}

	return model.Comparison{
		CurrentWeekStart:   current.WeekStart,
		PreviousWeekStart:  previous.WeekStart,
		TotalChange:        current.TotalExpenses.Sub(previous.TotalExpenses),
		TotalChangePercent: PercentChange(current.TotalExpenses, previous.TotalExpenses),
		AvgDailyChange:     current.AvgDailyExpense.Sub(previous.AvgDailyExpense),
		CategoryChanges:    changes,
		CategoryOrder:      cats,
	}
}

func comparisonCategories(analyses ...model.WeeklyAnalysis) []model.Category {
	cats := model.Categories()
	known := make(map[model.Category]bool, len(cats))
	for _, c := range cats {
		known[c] = true
	}

	var extra []model.Category
	for _, a := range analyses {
		for c := range a.CategoryTotals {
			if !known[c] {
				known[c] = true
				extra = append(extra, c)
			}
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(cats, extra...)
}

func earliest(txns []model.Transaction) time.Time {
	first := txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(first) {
			first = t.Date
		}
	}
	return first
}

func (a *Analyzer) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}
