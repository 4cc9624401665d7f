package categorize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetctl/budgetctl/internal/model"
)

func txn(desc string) model.Transaction {
	return model.Transaction{
		Date:        time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Amount:      decimal.NewFromInt(-10),
	}
}

func categorizeOne(e *Engine, tx model.Transaction, rules []model.CategoryRule) model.Transaction {
	return e.Categorize([]model.Transaction{tx}, rules).Transactions[0]
}

func rule(phrase string, cat model.Category) model.CategoryRule {
	return model.CategoryRule{Phrase: phrase, Category: cat, UseCount: 1}
}

func TestCategorize_BuiltinPattern(t *testing.T) {
	e := NewEngine(nil)
	res := e.Categorize([]model.Transaction{txn("BIEDRONKA 123")}, nil)

	require.Len(t, res.Transactions, 1)
	assert.Equal(t, model.CategoryFood, res.Transactions[0].Category)
	assert.False(t, res.Transactions[0].IsManual)
	assert.Empty(t, res.Unassigned)
	assert.Empty(t, res.MatchedRules)
}

func TestCategorize_LearnedRuleOverridesBuiltin(t *testing.T) {
	e := NewEngine(nil)
	rules := []model.CategoryRule{rule("biedronka", model.CategoryOther)}
	res := e.Categorize([]model.Transaction{txn("BIEDRONKA 123")}, rules)

	assert.Equal(t, model.CategoryOther, res.Transactions[0].Category)
	assert.True(t, res.Transactions[0].IsManual)
	assert.Equal(t, []string{"biedronka"}, res.MatchedRules)
}

func TestCategorize_FirstLearnedRuleWins(t *testing.T) {
	e := NewEngine(nil)
	rules := []model.CategoryRule{
		rule("przelew", model.CategoryBills),
		rule("przelew do jana", model.CategoryOther),
	}
	got := categorizeOne(e, txn("Przelew do Jana"), rules)
	assert.Equal(t, model.CategoryBills, got.Category)
}

func TestCategorize_Unassigned(t *testing.T) {
	e := NewEngine(nil)
	res := e.Categorize([]model.Transaction{txn("Przelew do Jana"), txn("Orlen 77")}, nil)

	require.Len(t, res.Transactions, 2)
	assert.Equal(t, model.CategoryUnassigned, res.Transactions[0].Category)
	assert.False(t, res.Transactions[0].IsManual)
	assert.Equal(t, model.CategoryFuel, res.Transactions[1].Category)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, "Przelew do Jana", res.Unassigned[0].Description)
}

func TestCategorize_EveryTransactionGetsCategory(t *testing.T) {
	e := NewEngine(nil)
	inputs := []model.Transaction{txn(""), txn("zzz"), txn("NETFLIX.COM"), txn("Apteka Gemini")}
	res := e.Categorize(inputs, nil)
	for _, got := range res.Transactions {
		assert.True(t, got.Categorized(), "%q left without category", got.Description)
	}
}

func TestCategorize_AptekaIsHealth(t *testing.T) {
	got := categorizeOne(NewEngine(nil), txn("APTEKA DOZ 12"), nil)
	assert.Equal(t, model.CategoryHealth, got.Category)
}

func TestCategorize_WordBoundedShortKeywords(t *testing.T) {
	e := NewEngine(nil)
	assert.Equal(t, model.CategoryHousehold, categorizeOne(e, txn("DM drogerie markt"), nil).Category)
	assert.Equal(t, model.CategoryUnassigned, categorizeOne(e, txn("Admin fee"), nil).Category)
	assert.Equal(t, model.CategoryFuel, categorizeOne(e, txn("BP 1234"), nil).Category)
}

func TestCategorize_Idempotent(t *testing.T) {
	e := NewEngine(nil)
	rules := []model.CategoryRule{rule("jan", model.CategoryOther)}
	inputs := []model.Transaction{txn("BIEDRONKA"), txn("Przelew do Jana"), txn("unknown")}

	first := e.Categorize(inputs, rules)
	second := e.Categorize(first.Transactions, rules)

	require.Len(t, second.Transactions, len(first.Transactions))
	for i := range first.Transactions {
		assert.Equal(t, first.Transactions[i].Category, second.Transactions[i].Category)
		assert.Equal(t, first.Transactions[i].IsManual, second.Transactions[i].IsManual)
	}
}

func TestCategorize_DoesNotMutateInputs(t *testing.T) {
	inputs := []model.Transaction{txn("BIEDRONKA")}
	rules := []model.CategoryRule{rule("biedronka", model.CategoryOther)}
	NewEngine(nil).Categorize(inputs, rules)

	assert.Empty(t, inputs[0].Category)
	assert.Equal(t, 1, rules[0].UseCount)
}

func TestCategorize_RegexAndLiteralPhrases(t *testing.T) {
	e := NewEngine(nil)
	rules := []model.CategoryRule{
		rule(`^przelew .* jana$`, model.CategoryOther),
		rule(`c++ (books`, model.CategoryEntertainment), // invalid regex, matched literally
		rule("   ", model.CategoryBills),                 // blank phrases never match
	}
	assert.Equal(t, model.CategoryOther, categorizeOne(e, txn("Przelew dla Jana"), rules).Category)
	assert.Equal(t, model.CategoryEntertainment, categorizeOne(e, txn("C++ (Books) shop"), rules).Category)
	assert.Equal(t, model.CategoryUnassigned, categorizeOne(e, txn("something"), rules).Category)
}

func TestCategorize_MatchedRulesDeduplicated(t *testing.T) {
	rules := []model.CategoryRule{rule("lidl", model.CategoryFood), rule("orlen", model.CategoryFuel)}
	res := NewEngine(nil).Categorize([]model.Transaction{txn("ORLEN"), txn("LIDL"), txn("Orlen 2")}, rules)
	assert.Equal(t, []string{"orlen", "lidl"}, res.MatchedRules)
}

func TestTable_AddKeepsOrder(t *testing.T) {
	tbl := DefaultTable()
	before := tbl.Categories()

	require.NoError(t, tbl.Add("kawa", `starbucks`))
	require.NoError(t, tbl.Add(model.CategoryFood, `stokrotka`))

	after := tbl.Categories()
	assert.Equal(t, before, after[:len(before)], "existing precedence unchanged")
	assert.Equal(t, model.Category("kawa"), after[len(after)-1])

	e := NewEngine(tbl)
	assert.Equal(t, model.CategoryFood, categorizeOne(e, txn("STOKROTKA 5"), nil).Category)
	assert.Equal(t, model.Category("kawa"), categorizeOne(e, txn("Starbucks"), nil).Category)
}

func TestTable_AddInvalidPattern(t *testing.T) {
	err := NewTable().Add(model.CategoryFood, `(`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling pattern")
}

func TestTable_AddAll(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.AddAll([]CategoryPatterns{
		{Category: model.CategoryFuel, Patterns: []string{"orlen"}},
		{Category: model.CategoryFood, Patterns: []string{"orlen cafe"}},
	}))
	cat, ok := tbl.Match("orlen cafe")
	require.True(t, ok)
	assert.Equal(t, model.CategoryFuel, cat, "earlier category wins")

	_, ok = tbl.Match("nothing")
	assert.False(t, ok)
}

func TestDefaultTable_Deterministic(t *testing.T) {
	assert.Equal(t, DefaultTable().Categories(), DefaultTable().Categories())
	assert.Equal(t, []model.Category{
		model.CategoryFood, model.CategoryHousehold, model.CategoryFuel, model.CategoryTransport,
		model.CategoryEntertainment, model.CategoryBills, model.CategoryHealth, model.CategoryClothing,
	}, DefaultTable().Categories())
}
