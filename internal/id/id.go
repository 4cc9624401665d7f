// Package id formats and parses analysis and transaction identifiers.
package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const weekLayout = "2006-01-02"

// FormatAnalysisID returns an analysis ID like "2024-03-04-001" for the
// seq-th analysis of the week starting on weekStart.
func FormatAnalysisID(weekStart time.Time, seq int) string {
	return fmt.Sprintf("%s-%03d", weekStart.Format(weekLayout), seq)
}

// ParseAnalysisID parses "2024-03-04-001" into its week start and sequence.
func ParseAnalysisID(id string) (weekStart time.Time, seq int, err error) {
	i := strings.LastIndexByte(id, '-')
	if i != len(weekLayout) {
		return time.Time{}, 0, fmt.Errorf("invalid analysis ID format: %q", id)
	}

	weekStart, err = time.Parse(weekLayout, id[:i])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid week in analysis ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(id[i+1:])
	if err != nil || seq < 1 {
		return time.Time{}, 0, fmt.Errorf("invalid sequence in analysis ID %q", id)
	}
	return weekStart, seq, nil
}

// FormatTransactionID returns a transaction ID like "2024-03-04-001.0007"
// for the idx-th (1-based) transaction of an analysis.
func FormatTransactionID(analysisID string, idx int) string {
	return fmt.Sprintf("%s.%04d", analysisID, idx)
}

// ParseTransactionID splits "2024-03-04-001.0007" into the analysis ID and
// the 1-based transaction index.
func ParseTransactionID(id string) (analysisID string, idx int, err error) {
	analysisID, num, ok := strings.Cut(id, ".")
	if !ok {
		return "", 0, fmt.Errorf("invalid transaction ID format: %q", id)
	}
	if _, _, err := ParseAnalysisID(analysisID); err != nil {
		return "", 0, fmt.Errorf("invalid transaction ID %q: %w", id, err)
	}
	idx, err = strconv.Atoi(num)
	if err != nil || idx < 1 {
		return "", 0, fmt.Errorf("invalid index in transaction ID %q", id)
	}
	return analysisID, idx, nil
}
