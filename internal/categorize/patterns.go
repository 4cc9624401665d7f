package categorize

import (
	"fmt"
	"regexp"

	"github.com/budgetctl/budgetctl/internal/model"
)

// CategoryPatterns is one row of the built-in table.
type CategoryPatterns struct {
	Category model.Category
	Patterns []string
}

// defaultPatterns is evaluated top to bottom. "apteka" lives under zdrowie
// only; short tokens are word-bounded.
var defaultPatterns = []CategoryPatterns{
	{model.CategoryFood, []string{
		`biedronka`, `carrefour`, `lidl`, `auchan`, `tesco`,
		`żabka`, `kiosk`, `pizza`, `restauracja`, `kebab`,
		`mcdonalds`, `kfc`, `subway`, `\bbar\b`, `cafe`,
	}},
	{model.CategoryHousehold, []string{
		`rossmann`, `\bdm\b`, `hebe`, `cosmetic`,
		`mydełko`, `szampon`, `pasta`, `proszek`,
	}},
	{model.CategoryFuel, []string{
		`orlen`, `\bbp\b`, `shell`, `lotos`, `circle k`,
		`stacja`, `benzyna`, `diesel`, `paliwo`,
	}},
	{model.CategoryTransport, []string{
		`pkp`, `pks`, `autobus`, `tramwaj`, `metro`,
		`uber`, `bolt`, `taxi`, `parking`,
	}},
	{model.CategoryEntertainment, []string{
		`kino`, `teatr`, `muzeum`, `basen`, `siłownia`,
		`netflix`, `spotify`, `youtube`, `\bgry\b`,
	}},
	{model.CategoryBills, []string{
		`pge`, `tauron`, `energa`, `woda`, `\bgaz\b`,
		`internet`, `telefon`, `telewizja`, `czynsz`,
	}},
	{model.CategoryHealth, []string{
		`apteka`, `lekarz`, `szpital`, `leki`, `badania`,
	}},
	{model.CategoryClothing, []string{
		`h&m`, `zara`, `reserved`, `cropp`, `house`,
		`buty`, `ubrania`, `odzież`,
	}},
}

type tableEntry struct {
	category model.Category
	patterns []*regexp.Regexp
}

// Table is an ordered category → patterns table. Categories are matched in
// insertion order and patterns within a category in insertion order.
// Add is not safe to call concurrently with Match.
type Table struct {
	entries []tableEntry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// DefaultTable returns the built-in merchant keyword table.
func DefaultTable() *Table {
	t := NewTable()
	for _, cp := range defaultPatterns {
		for _, p := range cp.Patterns {
			if err := t.Add(cp.Category, p); err != nil {
				panic("invalid built-in pattern: " + err.Error())
			}
		}
	}
	return t
}

// Add appends pattern to category. An unseen category is appended after all
// existing ones, so earlier categories keep their precedence.
func (t *Table) Add(category model.Category, pattern string) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("compiling pattern %q for %s: %w", pattern, category, err)
	}
	for i := range t.entries {
		if t.entries[i].category == category {
			t.entries[i].patterns = append(t.entries[i].patterns, re)
			return nil
		}
	}
	t.entries = append(t.entries, tableEntry{category: category, patterns: []*regexp.Regexp{re}})
	return nil
}

// AddAll appends every row of rows in order.
func (t *Table) AddAll(rows []CategoryPatterns) error {
	for _, row := range rows {
		for _, p := range row.Patterns {
			if err := t.Add(row.Category, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Match returns the first category with a pattern found in desc.
func (t *Table) Match(desc string) (model.Category, bool) {
	for _, e := range t.entries {
		for _, re := range e.patterns {
			if re.MatchString(desc) {
				return e.category, true
			}
		}
	}
	return "", false
}

// Categories returns the table's categories in precedence order.
func (t *Table) Categories() []model.Category {
	out := make([]model.Category, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.category
	}
	return out
}
