package importer

import (
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/budgetctl/budgetctl/internal/schema"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/" + name)
	require.NoError(t, err)
	return data
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestIngest_PolishSemicolonExport(t *testing.T) {
	in := NewIngestor(nil, zap.NewNop())
	res, err := in.Ingest(readFixture(t, "pl_semicolon.csv"))
	require.NoError(t, err)

	assert.Equal(t, ';', res.Dialect.Delimiter)
	assert.Equal(t, 8, res.Rows)
	assert.Equal(t, 1, res.Skipped, "row without a date is dropped")
	require.Len(t, res.Transactions, 7)

	first := res.Transactions[0]
	assert.Equal(t, day(2024, 3, 4), first.Date)
	assert.Equal(t, "BIEDRONKA 123 WARSZAWA", first.Description)
	assert.Equal(t, "-45.30", first.Amount.StringFixed(2))
	assert.Equal(t, "1954.70", first.Balance.StringFixed(2))
	assert.Empty(t, first.Category, "ingestion leaves category unset")

	salary := res.Transactions[2]
	assert.True(t, salary.Amount.IsPositive())
	assert.Equal(t, "5000.00", salary.Amount.StringFixed(2))
}

func TestIngest_USCommaExport(t *testing.T) {
	in := NewIngestor(nil, nil)
	res, err := in.Ingest(readFixture(t, "us_comma.csv"))
	require.NoError(t, err)

	assert.Equal(t, ',', res.Dialect.Delimiter)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Transactions, 4)

	uber := res.Transactions[0]
	assert.Equal(t, day(2024, 3, 11), uber.Date)
	assert.Equal(t, "UBER *TRIP, HELP.UBER.COM", uber.Description)
	assert.Equal(t, "-18.40", uber.Amount.StringFixed(2))
	assert.Equal(t, "2481.60", uber.Balance.StringFixed(2))

	assert.Equal(t, "1250.00", res.Transactions[2].Amount.StringFixed(2))
}

func TestIngest_BOMAndWhitespaceHeaders(t *testing.T) {
	data := []byte("\ufeff data , opis ,kwota\n2024-03-04,  Lidl  ,-5\n")
	res, err := NewIngestor(nil, nil).Ingest(data)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "Lidl", res.Transactions[0].Description)
	assert.True(t, res.Transactions[0].Balance.IsZero(), "no balance column")
}

func TestIngest_MissingColumns(t *testing.T) {
	data := []byte("when,what,value\n2024-03-04,shop,-1\n")
	_, err := NewIngestor(nil, nil).Ingest(data)

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []schema.Role{schema.RoleDate, schema.RoleAmount, schema.RoleDescription}, mce.Missing)
	assert.Equal(t, []string{"when", "what", "value"}, mce.Detected)
	assert.Nil(t, mce.Matched)
	assert.Contains(t, err.Error(), "date, amount, description")
}

func TestIngest_MissingColumnsReportsMatched(t *testing.T) {
	data := []byte("Data;Kiedy;Kwota\n04.03.2024;x;-1,00\n")
	_, err := NewIngestor(nil, nil).Ingest(data)

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []schema.Role{schema.RoleDescription}, mce.Missing)
	assert.Equal(t, []string{"Data", "Kwota"}, mce.Matched)
	assert.Contains(t, err.Error(), "matched: Data, Kwota")
}

func TestIngest_NoValidTransactions(t *testing.T) {
	data := []byte("date,description,amount\nsoon,shop,-1\n2024-03-04,shop,lots\n")
	res, err := NewIngestor(nil, nil).Ingest(data)
	require.ErrorIs(t, err, ErrNoValidTransactions)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Skipped)

	var mce *MissingColumnsError
	assert.False(t, errors.As(err, &mce), "distinct from missing columns")
}

func TestIngest_HeaderOnly(t *testing.T) {
	_, err := NewIngestor(nil, nil).Ingest([]byte("date,description,amount\n"))
	assert.ErrorIs(t, err, ErrNoValidTransactions)
}

func TestIngest_Empty(t *testing.T) {
	_, err := NewIngestor(nil, nil).Ingest(nil)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestIngest_InvalidUTF8(t *testing.T) {
	data := []byte("date,description,amount\n2024-03-04,caf\xe9,-1\n")
	res, err := NewIngestor(nil, nil).Ingest(data)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Nil(t, res, "no partial processing")
}

func TestIngest_ShortRowsSkipped(t *testing.T) {
	data := []byte("date,description,amount\n2024-03-04\n2024-03-05,shop,-2\n")
	res, err := NewIngestor(nil, nil).Ingest(data)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Transactions, 1)
}

func TestIngest_CustomTable(t *testing.T) {
	table := schema.DefaultTable().Extend(map[schema.Role][]string{schema.RoleDescription: {"Memo"}})
	data := []byte("Date,Memo,Amount\n2024-03-04,coffee,-3.50\n")
	res, err := NewIngestor(table, nil).Ingest(data)
	require.NoError(t, err)
	assert.Equal(t, "coffee", res.Transactions[0].Description)
}

func TestIngestWithMapping(t *testing.T) {
	data := []byte("when;what;value;left\n04.03.2024;Orlen;-100,00;900,00\n")
	res, err := NewIngestor(nil, nil).IngestWithMapping(data, ColumnMapping{
		Date:        "when",
		Amount:      "value",
		Description: "what",
		Balance:     "left",
	})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	txn := res.Transactions[0]
	assert.Equal(t, day(2024, 3, 4), txn.Date)
	assert.Equal(t, "Orlen", txn.Description)
	assert.Equal(t, "-100.00", txn.Amount.StringFixed(2))
	assert.Equal(t, "900.00", txn.Balance.StringFixed(2))
	assert.Equal(t, "value", res.Columns[schema.RoleAmount])
}

func TestIngestWithMapping_UnknownHeader(t *testing.T) {
	data := []byte("when,what,value\n2024-03-04,shop,-1\n")
	_, err := NewIngestor(nil, nil).IngestWithMapping(data, ColumnMapping{
		Date:        "when",
		Amount:      "amount",
		Description: "what",
	})

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []schema.Role{schema.RoleAmount}, mce.Missing)
	assert.Equal(t, []string{"when", "what"}, mce.Matched)
}

func TestIngestWithMapping_BalanceNamedButAbsent(t *testing.T) {
	data := []byte("when,what,value\n2024-03-04,shop,-1\n")
	_, err := NewIngestor(nil, nil).IngestWithMapping(data, ColumnMapping{
		Date: "when", Amount: "value", Description: "what", Balance: "saldo",
	})

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []schema.Role{schema.RoleBalance}, mce.Missing)
}

func TestIngest_AllDatesValidAmountsFinite(t *testing.T) {
	for _, name := range []string{"pl_semicolon.csv", "us_comma.csv"} {
		res, err := NewIngestor(nil, nil).Ingest(readFixture(t, name))
		require.NoError(t, err)
		for _, txn := range res.Transactions {
			assert.False(t, txn.Date.IsZero(), "%s: zero date", name)
			assert.Equal(t, txn.Date, txn.Date.Truncate(24*time.Hour), "%s: date has time of day", name)
			f := txn.Amount.InexactFloat64()
			assert.False(t, math.IsInf(f, 0) || math.IsNaN(f), "%s: amount not finite", name)
		}
	}
}
