package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/budgetctl/budgetctl/internal/model"
)

const dateLayout = "2006-01-02"

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

func printAnalysis(out io.Writer, id string, a model.WeeklyAnalysis) error {
	fmt.Fprintf(out, "Analysis %s: week %s to %s\n", id, a.WeekStart.Format(dateLayout), a.WeekEnd.Format(dateLayout))
	fmt.Fprintf(out, "Transactions:   %d\n", a.TransactionCount)
	fmt.Fprintf(out, "Total expenses: %s\n", a.TotalExpenses.StringFixed(2))
	fmt.Fprintf(out, "Daily average:  %s\n", a.AvgDailyExpense.StringFixed(2))

	tw := newTable(out)
	fmt.Fprintln(tw, "CATEGORY\tTOTAL")
	for _, c := range categoryOrder(a.CategoryTotals) {
		fmt.Fprintf(tw, "%s\t%s\n", c, a.CategoryTotals[c].StringFixed(2))
	}
	return tw.Flush()
}

func printComparison(out io.Writer, previousID string, cmp *model.Comparison) error {
	fmt.Fprintf(out, "Compared with %s (week %s)\n", previousID, cmp.PreviousWeekStart.Format(dateLayout))
	fmt.Fprintf(out, "Total change:   %s (%s%%)\n", signed(cmp.TotalChange), signed(cmp.TotalChangePercent))
	fmt.Fprintf(out, "Daily change:   %s\n", signed(cmp.AvgDailyChange))

	tw := newTable(out)
	fmt.Fprintln(tw, "CATEGORY\tCHANGE\tPERCENT")
	for _, c := range cmp.CategoryOrder {
		ch := cmp.CategoryChanges[c]
		fmt.Fprintf(tw, "%s\t%s\t%s%%\n", c, signed(ch.Change), signed(ch.ChangePercent))
	}
	return tw.Flush()
}

// categoryOrder lists the categories present in totals, fixed enumeration
// first.
func categoryOrder(totals map[model.Category]decimal.Decimal) []model.Category {
	var out []model.Category
	seen := make(map[model.Category]bool)
	for _, c := range model.Categories() {
		seen[c] = true
		if _, ok := totals[c]; ok {
			out = append(out, c)
		}
	}
	var extra []model.Category
	for c := range totals {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}
