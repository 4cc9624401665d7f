package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/budgetctl/budgetctl/internal/model"
	"github.com/budgetctl/budgetctl/internal/normalize"
	"github.com/budgetctl/budgetctl/internal/schema"
)

const utf8BOM = "\ufeff"

// ColumnMapping names the header for each role explicitly, bypassing
// header detection. Balance is optional.
type ColumnMapping struct {
	Date        string
	Amount      string
	Description string
	Balance     string
}

// IsZero reports whether no column was named.
func (m ColumnMapping) IsZero() bool {
	return m == ColumnMapping{}
}

// Result is the outcome of ingesting one file.
type Result struct {
	Transactions []model.Transaction
	Rows         int // data rows read, excluding the header
	Skipped      int // rows dropped by normalization
	Dialect      Dialect
	Columns      map[schema.Role]string
}

// Ingestor turns raw CSV bytes into normalized, uncategorized transactions.
type Ingestor struct {
	table  schema.Table
	logger *zap.Logger
}

// NewIngestor creates an Ingestor. A nil table uses schema.DefaultTable.
func NewIngestor(table schema.Table, logger *zap.Logger) *Ingestor {
	if table == nil {
		table = schema.DefaultTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{table: table, logger: logger}
}

// Ingest detects the column layout from the header row.
func (in *Ingestor) Ingest(data []byte) (*Result, error) {
	return in.ingest(data, func(headers []string) (map[schema.Role]string, error) {
		m := schema.Detect(headers, in.table)
		if missing := m.Missing(); len(missing) > 0 {
			return nil, &MissingColumnsError{Missing: missing, Detected: trimAll(headers), Matched: m.Matched}
		}
		return m.Columns, nil
	})
}

// IngestWithMapping uses the caller's column names instead of detection.
func (in *Ingestor) IngestWithMapping(data []byte, mapping ColumnMapping) (*Result, error) {
	return in.ingest(data, func(headers []string) (map[schema.Role]string, error) {
		present := make(map[string]bool, len(headers))
		for _, h := range trimAll(headers) {
			present[h] = true
		}

		named := map[schema.Role]string{
			schema.RoleDate:        strings.TrimSpace(mapping.Date),
			schema.RoleAmount:      strings.TrimSpace(mapping.Amount),
			schema.RoleDescription: strings.TrimSpace(mapping.Description),
			schema.RoleBalance:     strings.TrimSpace(mapping.Balance),
		}

		cols := make(map[schema.Role]string)
		var missing []schema.Role
		for _, role := range schema.Roles {
			h := named[role]
			if h != "" && present[h] {
				cols[role] = h
				continue
			}
			if role != schema.RoleBalance || h != "" {
				missing = append(missing, role)
			}
		}
		if len(missing) > 0 {
			var matched []string
			for _, h := range trimAll(headers) {
				for _, bound := range cols {
					if h == bound {
						matched = append(matched, h)
						break
					}
				}
			}
			return nil, &MissingColumnsError{Missing: missing, Detected: trimAll(headers), Matched: matched}
		}
		return cols, nil
	})
}

type resolver func(headers []string) (map[schema.Role]string, error)

func (in *Ingestor) ingest(data []byte, resolve resolver) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	text := strings.TrimPrefix(string(data), utf8BOM)

	dialect, err := Sniff(text)
	if err != nil {
		in.logger.Debug("dialect sniffing failed, using default", zap.Error(err))
	}

	cr := newReader(strings.NewReader(text), dialect.Delimiter)
	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := resolve(headers)
	if err != nil {
		return nil, err
	}

	index := make(map[schema.Role]int, len(cols))
	for i, h := range trimAll(headers) {
		for role, name := range cols {
			if _, bound := index[role]; !bound && name == h {
				index[role] = i
			}
		}
	}

	res := &Result{Dialect: dialect, Columns: cols}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		res.Rows++
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("reading row %d: %w", res.Rows+1, err)
			}
			res.Skipped++
			in.logger.Debug("skipping malformed row", zap.Int("line", perr.Line), zap.Error(err))
			continue
		}

		line, _ := cr.FieldPos(0)
		txn, reason := parseRow(rec, index)
		if reason != "" {
			res.Skipped++
			in.logger.Debug("skipping row", zap.Int("line", line), zap.String("reason", reason))
			continue
		}
		res.Transactions = append(res.Transactions, txn)
	}

	in.logger.Info("ingested CSV",
		zap.String("delimiter", dialect.String()),
		zap.Int("rows", res.Rows),
		zap.Int("kept", len(res.Transactions)),
		zap.Int("skipped", res.Skipped),
	)

	if len(res.Transactions) == 0 {
		return res, ErrNoValidTransactions
	}
	return res, nil
}

// parseRow normalizes one record. A non-empty reason means the row is dropped.
func parseRow(rec []string, index map[schema.Role]int) (model.Transaction, string) {
	field := func(role schema.Role) (string, bool) {
		i, ok := index[role]
		if !ok || i >= len(rec) {
			return "", false
		}
		return rec[i], true
	}

	rawDate, ok := field(schema.RoleDate)
	if !ok {
		return model.Transaction{}, "short row: no date field"
	}
	date, ok := normalize.ParseDate(rawDate)
	if !ok {
		return model.Transaction{}, fmt.Sprintf("invalid date %q", rawDate)
	}

	rawAmount, ok := field(schema.RoleAmount)
	if !ok {
		return model.Transaction{}, "short row: no amount field"
	}
	amount, ok := normalize.ParseAmount(rawAmount)
	if !ok {
		return model.Transaction{}, fmt.Sprintf("invalid amount %q", rawAmount)
	}

	desc, _ := field(schema.RoleDescription)
	txn := model.Transaction{
		Date:        date,
		Description: strings.TrimSpace(desc),
		Amount:      amount,
	}
	if rawBalance, ok := field(schema.RoleBalance); ok {
		if bal, ok := normalize.ParseAmount(rawBalance); ok {
			txn.Balance = bal
		}
	}
	return txn, ""
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
