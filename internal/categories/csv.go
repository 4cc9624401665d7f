package categories

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/budgetctl/budgetctl/internal/model"
)

// record is the on-disk row of categories.csv.
type record struct {
	Label       string `csv:"label"`
	Description string `csv:"description"`
	Color       string `csv:"color"`
}

// ReadCatalog reads categories.csv. An empty file yields an empty catalog.
func ReadCatalog(r io.Reader) ([]Category, error) {
	var rows []record
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading categories CSV: %w", err)
	}

	cats := make([]Category, 0, len(rows))
	for i, row := range rows {
		label := strings.TrimSpace(row.Label)
		if label == "" {
			return nil, fmt.Errorf("row %d: empty label", i+2)
		}
		cats = append(cats, Category{
			Label:       model.Category(label),
			Description: row.Description,
			Color:       row.Color,
		})
	}
	return cats, nil
}

// WriteCatalog writes categories.csv with a header row.
func WriteCatalog(w io.Writer, cats []Category) error {
	rows := make([]record, len(cats))
	for i, c := range cats {
		rows[i] = record{Label: string(c.Label), Description: c.Description, Color: c.Color}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing categories CSV: %w", err)
	}
	return nil
}
