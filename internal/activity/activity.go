// Package activity keeps the append-only activity log of a budget
// repository in logs/activity-log.csv.
package activity

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
)

// Actions recorded in the log.
const (
	ActionAnalyze    = "analyze"
	ActionAssign     = "assign_category"
	ActionDeleteRule = "delete_rule"
	ActionInit       = "init"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp  time.Time
	Actor      string // "cli" or "api"
	Action     string
	Subject    string // analysis, transaction or rule ID
	Details    string
	CommitHash string
}

type record struct {
	Timestamp  string `csv:"timestamp"`
	Actor      string `csv:"actor"`
	Action     string `csv:"action"`
	Subject    string `csv:"subject"`
	Details    string `csv:"details"`
	CommitHash string `csv:"commit_hash"`
}

// Path returns the log location inside a repo root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, "logs", "activity-log.csv")
}

func marshalEntry(e Entry) record {
	return record{
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339),
		Actor:      e.Actor,
		Action:     e.Action,
		Subject:    e.Subject,
		Details:    e.Details,
		CommitHash: e.CommitHash,
	}
}

func unmarshalEntry(r record) (Entry, error) {
	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", r.Timestamp, err)
	}
	return Entry{
		Timestamp:  ts,
		Actor:      r.Actor,
		Action:     r.Action,
		Subject:    r.Subject,
		Details:    r.Details,
		CommitHash: r.CommitHash,
	}, nil
}

// Append writes entries to the log, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	path := Path(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	needsHeader := false
	if info, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() == 0) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	rows := make([]record, len(entries))
	for i, e := range entries {
		rows[i] = marshalEntry(e)
	}
	if needsHeader {
		err = gocsv.Marshal(rows, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, f)
	}
	if err != nil {
		return fmt.Errorf("writing activity log: %w", err)
	}
	return f.Close()
}

// Read returns all entries in append order. A missing file yields none.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	var rows []record
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		e, err := unmarshalEntry(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
