package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/budgetctl/budgetctl/internal/normalize"
)

// ValidationError reports bad caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ParseWeekStart parses an optional YYYY-MM-DD week start. An empty string
// yields the zero time, meaning "derive from the data".
func ParseWeekStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(normalize.ISODate, s)
	if err != nil {
		return time.Time{}, invalid("week_start", "%q is not a YYYY-MM-DD date", s)
	}
	return t, nil
}
