package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaysPerWeek is the divisor for average daily expense.
const DaysPerWeek = 7

// WeeklyAnalysis aggregates one Monday-to-Sunday week of transactions.
type WeeklyAnalysis struct {
	WeekStart         time.Time                    `json:"week_start"`
	WeekEnd           time.Time                    `json:"week_end"` // WeekStart + 6 days
	TotalExpenses     decimal.Decimal              `json:"total_expenses"`
	AvgDailyExpense   decimal.Decimal              `json:"avg_daily_expense"`
	CategoryTotals    map[Category]decimal.Decimal `json:"category_totals"`
	TransactionCount  int                          `json:"transaction_count"`
	Transactions      []Transaction                `json:"transactions,omitempty"`
	AnalysisTimestamp time.Time                    `json:"analysis_timestamp"`
}

// CategoryTotal returns the total for c, zero when absent.
func (a WeeklyAnalysis) CategoryTotal(c Category) decimal.Decimal {
	if v, ok := a.CategoryTotals[c]; ok {
		return v
	}
	return decimal.Zero
}

// Change is an absolute and relative difference between two amounts.
type Change struct {
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// Comparison is the week-over-week delta between two analyses.
type Comparison struct {
	CurrentWeekStart   time.Time           `json:"current_week_start"`
	PreviousWeekStart  time.Time           `json:"previous_week_start"`
	TotalChange        decimal.Decimal     `json:"total_change"`
	TotalChangePercent decimal.Decimal     `json:"total_change_percent"`
	AvgDailyChange     decimal.Decimal     `json:"avg_daily_change"`
	CategoryChanges    map[Category]Change `json:"category_changes"`
	CategoryOrder      []Category          `json:"category_order"`
}
