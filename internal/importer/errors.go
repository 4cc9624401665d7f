package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/budgetctl/budgetctl/internal/schema"
)

var (
	// ErrInvalidEncoding is returned for uploads that are not valid UTF-8.
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	// ErrNoHeader is returned when the upload has no header row.
	ErrNoHeader = errors.New("file has no header row")
	// ErrNoValidTransactions is returned when every data row was skipped.
	ErrNoValidTransactions = errors.New("no valid transactions found")
)

// MissingColumnsError reports required roles that could not be bound.
// Callers can retry with an explicit ColumnMapping.
type MissingColumnsError struct {
	Missing  []schema.Role
	Detected []string // every header in the file
	Matched  []string // headers that did bind to a role
}

func (e *MissingColumnsError) Error() string {
	missing := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		missing[i] = string(r)
	}
	msg := fmt.Sprintf("missing required columns: %s (detected headers: %s",
		strings.Join(missing, ", "), strings.Join(e.Detected, ", "))
	if len(e.Matched) > 0 {
		msg += "; matched: " + strings.Join(e.Matched, ", ")
	}
	return msg + ")"
}
