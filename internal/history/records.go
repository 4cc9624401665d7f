package history

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/budgetctl/budgetctl/internal/id"
	"github.com/budgetctl/budgetctl/internal/model"
	"github.com/budgetctl/budgetctl/internal/normalize"
)

// analysisRecord is the on-disk form of analysis.yaml. Money is kept as
// decimal strings so totals survive a round trip exactly.
type analysisRecord struct {
	ID                string            `yaml:"id"`
	WeekStart         string            `yaml:"week_start"`
	WeekEnd           string            `yaml:"week_end"`
	TotalExpenses     string            `yaml:"total_expenses"`
	AvgDailyExpense   string            `yaml:"avg_daily_expense"`
	CategoryTotals    map[string]string `yaml:"category_totals"`
	TransactionCount  int               `yaml:"transaction_count"`
	AnalysisTimestamp time.Time         `yaml:"analysis_timestamp"`
	Source            string            `yaml:"source,omitempty"`
	SkippedRows       int               `yaml:"skipped_rows"`
}

// transactionRecord is one row of transactions.csv.
type transactionRecord struct {
	ID          string `csv:"transaction_id"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Balance     string `csv:"balance"`
	Category    string `csv:"category"`
	IsManual    bool   `csv:"is_manual"`
}

func marshalAnalysis(rec Record) analysisRecord {
	a := rec.Analysis
	totals := make(map[string]string, len(a.CategoryTotals))
	for cat, v := range a.CategoryTotals {
		totals[string(cat)] = v.String()
	}
	return analysisRecord{
		ID:                rec.ID,
		WeekStart:         a.WeekStart.Format(normalize.ISODate),
		WeekEnd:           a.WeekEnd.Format(normalize.ISODate),
		TotalExpenses:     a.TotalExpenses.String(),
		AvgDailyExpense:   a.AvgDailyExpense.String(),
		CategoryTotals:    totals,
		TransactionCount:  a.TransactionCount,
		AnalysisTimestamp: a.AnalysisTimestamp.UTC(),
		Source:            rec.Source,
		SkippedRows:       rec.Skipped,
	}
}

func unmarshalAnalysis(r analysisRecord) (Record, error) {
	weekStart, err := time.Parse(normalize.ISODate, r.WeekStart)
	if err != nil {
		return Record{}, fmt.Errorf("parsing week_start %q: %w", r.WeekStart, err)
	}
	weekEnd, err := time.Parse(normalize.ISODate, r.WeekEnd)
	if err != nil {
		return Record{}, fmt.Errorf("parsing week_end %q: %w", r.WeekEnd, err)
	}
	total, err := decimal.NewFromString(r.TotalExpenses)
	if err != nil {
		return Record{}, fmt.Errorf("parsing total_expenses %q: %w", r.TotalExpenses, err)
	}
	avg, err := decimal.NewFromString(r.AvgDailyExpense)
	if err != nil {
		return Record{}, fmt.Errorf("parsing avg_daily_expense %q: %w", r.AvgDailyExpense, err)
	}
	totals := make(map[model.Category]decimal.Decimal, len(r.CategoryTotals))
	for cat, s := range r.CategoryTotals {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return Record{}, fmt.Errorf("parsing total for %s %q: %w", cat, s, err)
		}
		totals[model.Category(cat)] = v
	}

	return Record{
		ID:      r.ID,
		Source:  r.Source,
		Skipped: r.SkippedRows,
		Analysis: model.WeeklyAnalysis{
			WeekStart:         weekStart,
			WeekEnd:           weekEnd,
			TotalExpenses:     total,
			AvgDailyExpense:   avg,
			CategoryTotals:    totals,
			TransactionCount:  r.TransactionCount,
			AnalysisTimestamp: r.AnalysisTimestamp,
		},
	}, nil
}

// writeTransactions writes transactions.csv for an analysis.
func writeTransactions(w io.Writer, analysisID string, txns []model.Transaction) error {
	rows := make([]transactionRecord, len(txns))
	for i, t := range txns {
		rows[i] = transactionRecord{
			ID:          id.FormatTransactionID(analysisID, i+1),
			Date:        t.Date.Format(normalize.ISODate),
			Description: t.Description,
			Amount:      t.Amount.String(),
			Balance:     t.Balance.String(),
			Category:    string(t.Category),
			IsManual:    t.IsManual,
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing transactions CSV: %w", err)
	}
	return nil
}

// readTransactions reads transactions.csv. Rows keep file order, which is the
// order transaction IDs were assigned in.
func readTransactions(r io.Reader) ([]model.Transaction, error) {
	var rows []transactionRecord
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	txns := make([]model.Transaction, 0, len(rows))
	for i, row := range rows {
		t, err := unmarshalTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func unmarshalTransaction(row transactionRecord) (model.Transaction, error) {
	date, err := time.Parse(normalize.ISODate, row.Date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", row.Date, err)
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", row.Amount, err)
	}
	balance := decimal.Zero
	if row.Balance != "" {
		balance, err = decimal.NewFromString(row.Balance)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing balance %q: %w", row.Balance, err)
		}
	}
	return model.Transaction{
		Date:        date,
		Description: row.Description,
		Amount:      amount,
		Balance:     balance,
		Category:    model.Category(row.Category),
		IsManual:    row.IsManual,
	}, nil
}
