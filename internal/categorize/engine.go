// Package categorize assigns spending categories to transactions using
// learned rules first and the built-in keyword table second.
package categorize

import (
	"regexp"
	"strings"

	"github.com/budgetctl/budgetctl/internal/model"
)

// Engine categorizes transactions. It holds no per-call state and never
// mutates the rules it is given.
type Engine struct {
	builtins *Table
}

// NewEngine creates an Engine. A nil table uses DefaultTable.
func NewEngine(builtins *Table) *Engine {
	if builtins == nil {
		builtins = DefaultTable()
	}
	return &Engine{builtins: builtins}
}

// Result holds one categorization pass.
type Result struct {
	Transactions []model.Transaction // every input, in input order, categorized
	Unassigned   []model.Transaction // subsequence left with the unassigned sentinel
	MatchedRules []string            // learned phrases that matched at least once, first-hit order
}

type learnedMatcher struct {
	phrase   string
	category model.Category
	re       *regexp.Regexp
}

// compileRules turns rules into matchers, preserving order. Phrases are
// case-insensitive regular expressions; invalid expressions match literally.
func compileRules(rules []model.CategoryRule) []learnedMatcher {
	matchers := make([]learnedMatcher, 0, len(rules))
	for _, r := range rules {
		phrase := strings.TrimSpace(r.Phrase)
		if phrase == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + phrase)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(phrase))
		}
		matchers = append(matchers, learnedMatcher{phrase: r.Phrase, category: r.Category, re: re})
	}
	return matchers
}

// Categorize stamps a category on every transaction. rules is a snapshot
// in priority order; the first matching rule wins over any built-in pattern.
func (e *Engine) Categorize(txns []model.Transaction, rules []model.CategoryRule) Result {
	learned := compileRules(rules)

	res := Result{Transactions: make([]model.Transaction, 0, len(txns))}
	seen := make(map[string]bool)
	for _, txn := range txns {
		phrase := e.apply(&txn, learned)
		if phrase != "" && !seen[phrase] {
			seen[phrase] = true
			res.MatchedRules = append(res.MatchedRules, phrase)
		}
		res.Transactions = append(res.Transactions, txn)
		if txn.Category.IsUnassigned() {
			res.Unassigned = append(res.Unassigned, txn)
		}
	}
	return res
}

// apply sets txn's category and returns the learned phrase that matched, if any.
func (e *Engine) apply(txn *model.Transaction, learned []learnedMatcher) string {
	desc := strings.ToLower(txn.Description)

	for _, m := range learned {
		if m.re.MatchString(desc) {
			txn.Category = m.category
			txn.IsManual = true
			return m.phrase
		}
	}

	txn.IsManual = false
	if cat, ok := e.builtins.Match(desc); ok {
		txn.Category = cat
		return ""
	}
	txn.Category = model.CategoryUnassigned
	return ""
}
