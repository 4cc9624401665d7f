package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a spending category label.
type Category string

const (
	CategoryFood          Category = "jedzenie"
	CategoryHousehold     Category = "chemia"
	CategoryFuel          Category = "paliwo"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "rozrywka"
	CategoryBills         Category = "rachunki"
	CategoryHealth        Category = "zdrowie"
	CategoryClothing      Category = "ubrania"
	CategoryUnassigned    Category = "nieprzypisane"
	CategoryOther         Category = "inne"
)

var allCategories = []Category{
	CategoryFood,
	CategoryHousehold,
	CategoryFuel,
	CategoryTransport,
	CategoryEntertainment,
	CategoryBills,
	CategoryHealth,
	CategoryClothing,
	CategoryUnassigned,
	CategoryOther,
}

// Categories returns the fixed category enumeration in canonical order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Known reports whether c is part of the fixed enumeration.
func (c Category) Known() bool {
	for _, k := range allCategories {
		if c == k {
			return true
		}
	}
	return false
}

// IsUnassigned reports whether c is the unassigned sentinel.
func (c Category) IsUnassigned() bool { return c == CategoryUnassigned }

// Transaction is one normalized bank statement row.
type Transaction struct {
	Date        time.Time       `json:"date"` // UTC midnight
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`    // negative = expense, positive = income
	Balance     decimal.Decimal `json:"balance"`   // informational only
	Category    Category        `json:"category"`  // empty until categorized
	IsManual    bool            `json:"is_manual"` // category came from a learned rule or a manual assignment
}

// IsExpense reports whether the transaction counts toward expense totals.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// Categorized reports whether a category has been stamped on t.
func (t Transaction) Categorized() bool {
	return t.Category != ""
}
