// Package categories manages the category catalog of a budget repository.
package categories

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/budgetctl/budgetctl/internal/model"
)

// Service provides in-memory lookup over the category catalog.
type Service struct {
	cats    []Category
	byLabel map[model.Category]Category
}

// NewService creates a Service from a slice of categories.
func NewService(cats []Category) *Service {
	byLabel := make(map[model.Category]Category, len(cats))
	for _, c := range cats {
		byLabel[c.Label] = c
	}
	return &Service{cats: cats, byLabel: byLabel}
}

// Path returns the catalog location inside a repo root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, "categories", "categories.csv")
}

// Load reads categories/categories.csv from a repo root. A missing file
// yields the default catalog.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(Path(repoRoot))
	if errors.Is(err, os.ErrNotExist) {
		return NewService(DefaultCatalog()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening category catalog: %w", err)
	}
	defer f.Close()

	cats, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("reading category catalog: %w", err)
	}
	return NewService(cats), nil
}

// All returns every category in catalog order.
func (s *Service) All() []Category {
	return s.cats
}

// Labels returns the catalog labels in catalog order.
func (s *Service) Labels() []model.Category {
	out := make([]model.Category, len(s.cats))
	for i, c := range s.cats {
		out[i] = c.Label
	}
	return out
}

// Get returns a category by label.
func (s *Service) Get(label model.Category) (Category, bool) {
	c, ok := s.byLabel[label]
	return c, ok
}

// Exists reports whether a label is cataloged.
func (s *Service) Exists(label model.Category) bool {
	_, ok := s.byLabel[label]
	return ok
}

// Add appends a category. Adding an existing label replaces its entry in place.
func (s *Service) Add(c Category) {
	if _, ok := s.byLabel[c.Label]; ok {
		for i := range s.cats {
			if s.cats[i].Label == c.Label {
				s.cats[i] = c
			}
		}
	} else {
		s.cats = append(s.cats, c)
	}
	s.byLabel[c.Label] = c
}

// Save writes the catalog to categories/categories.csv.
func (s *Service) Save(repoRoot string) error {
	path := Path(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating categories dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating category catalog file: %w", err)
	}
	defer f.Close()

	if err := WriteCatalog(f, s.cats); err != nil {
		return fmt.Errorf("writing category catalog: %w", err)
	}
	return nil
}
