// Package rules persists learned categorization rules in
// rules/categorization-rules.yaml.
package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/budgetctl/budgetctl/internal/model"
)

var (
	// ErrNotFound is returned when no rule has the requested ID.
	ErrNotFound = errors.New("rule not found")
	// ErrEmptyPhrase is returned when upserting a blank phrase.
	ErrEmptyPhrase = errors.New("rule phrase is empty")
)

type document struct {
	Rules []model.CategoryRule `yaml:"rules"`
}

// Store is a file-backed rule store. A Store serializes its own writers;
// separate processes writing the same file are not coordinated.
type Store struct {
	path  string
	mu    sync.Mutex
	newID func() string
}

// NewStore returns a Store rooted at repoRoot.
func NewStore(repoRoot string) *Store {
	return &Store{
		path:  Path(repoRoot),
		newID: uuid.NewString,
	}
}

// Path returns the rule file location inside a repo root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, "rules", "categorization-rules.yaml")
}

// Load returns a snapshot of all rules ordered by use_count descending,
// then created_at ascending. A missing file yields no rules.
func (s *Store) Load() ([]model.CategoryRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Get returns the rule with the given ID.
func (s *Store) Get(id string) (model.CategoryRule, error) {
	rules, err := s.Load()
	if err != nil {
		return model.CategoryRule{}, err
	}
	for _, r := range rules {
		if r.ID == id {
			return r, nil
		}
	}
	return model.CategoryRule{}, fmt.Errorf("rule %s: %w", id, ErrNotFound)
}

// Upsert records a manual assignment of phrase to category. An unseen phrase
// creates a rule with use_count 1; a known phrase has its use_count
// incremented, last_used_at refreshed and category overwritten. Phrases are
// trimmed and compared case-insensitively.
func (s *Store) Upsert(phrase string, category model.Category, now time.Time) (rule model.CategoryRule, created bool, err error) {
	key := normalizePhrase(phrase)
	if key == "" {
		return model.CategoryRule{}, false, ErrEmptyPhrase
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.read()
	if err != nil {
		return model.CategoryRule{}, false, err
	}

	now = now.UTC()
	idx := -1
	for i := range rules {
		if normalizePhrase(rules[i].Phrase) == key {
			idx = i
			break
		}
	}
	if idx >= 0 {
		rules[idx].Category = category
		rules[idx].UseCount++
		rules[idx].LastUsedAt = now
		rule = rules[idx]
	} else {
		rule = model.CategoryRule{
			ID:         s.newID(),
			Phrase:     strings.TrimSpace(phrase),
			Category:   category,
			UseCount:   1,
			CreatedAt:  now,
			LastUsedAt: now,
		}
		rules = append(rules, rule)
		created = true
	}

	if err := s.write(rules); err != nil {
		return model.CategoryRule{}, false, err
	}
	return rule, created, nil
}

// RecordUse increments use_count and refreshes last_used_at once for every
// rule whose phrase is in phrases. Unknown phrases are ignored.
func (s *Store) RecordUse(phrases []string, now time.Time) error {
	if len(phrases) == 0 {
		return nil
	}
	used := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		used[normalizePhrase(p)] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.read()
	if err != nil {
		return err
	}

	changed := false
	for i := range rules {
		if used[normalizePhrase(rules[i].Phrase)] {
			rules[i].UseCount++
			rules[i].LastUsedAt = now.UTC()
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.write(rules)
}

// Delete removes the rule with the given ID and returns it.
func (s *Store) Delete(id string) (model.CategoryRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.read()
	if err != nil {
		return model.CategoryRule{}, err
	}
	for i, r := range rules {
		if r.ID == id {
			rules = append(rules[:i], rules[i+1:]...)
			if err := s.write(rules); err != nil {
				return model.CategoryRule{}, err
			}
			return r, nil
		}
	}
	return model.CategoryRule{}, fmt.Errorf("rule %s: %w", id, ErrNotFound)
}

func (s *Store) read() ([]model.CategoryRule, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	sortRules(doc.Rules)
	return doc.Rules, nil
}

// write replaces the rule file via a temp file in the same directory.
func (s *Store) write(rules []model.CategoryRule) error {
	sortRules(rules)
	data, err := yaml.Marshal(document{Rules: rules})
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating rules dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rules-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp rules file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp rules file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing rules file: %w", err)
	}
	return nil
}

func sortRules(rules []model.CategoryRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].UseCount != rules[j].UseCount {
			return rules[i].UseCount > rules[j].UseCount
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
}

func normalizePhrase(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
