// Package history persists weekly analyses under analyses/<id>/ and serves
// listing, lookup and week-over-week retrieval.
package history

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

	"gopkg.in/yaml.v3"

	"github.com/budgetctl/budgetctl/internal/analysis"
	"github.com/budgetctl/budgetctl/internal/id"
	"github.com/budgetctl/budgetctl/internal/model"
)

// ErrNotFound is returned when an analysis or transaction does not exist.
var ErrNotFound = errors.New("not found")

const (
	analysisFile     = "analysis.yaml"
	transactionsFile = "transactions.csv"
)

// Record is a persisted analysis with its identity and import metadata.
type Record struct {
	ID       string               `json:"id"`
	Analysis model.WeeklyAnalysis `json:"analysis"`
	Source   string               `json:"source,omitempty"`
	Skipped  int                  `json:"skipped_rows"`
}

// Summary is the listing view of a Record.
type Summary struct {
	ID                string    `json:"id"`
	WeekStart         time.Time `json:"week_start"`
	WeekEnd           time.Time `json:"week_end"`
	TotalExpenses     string    `json:"total_expenses"`
	TransactionCount  int       `json:"transaction_count"`
	AnalysisTimestamp time.Time `json:"analysis_timestamp"`
	Source            string    `json:"source,omitempty"`
}

// UnassignedTransaction is a transaction still carrying the unassigned
// sentinel, addressable by its transaction ID.
type UnassignedTransaction struct {
	ID          string            `json:"id"`
	AnalysisID  string            `json:"analysis_id"`
	Transaction model.Transaction `json:"transaction"`
}

// SaveParams holds import metadata stored next to an analysis.
type SaveParams struct {
	Source  string
	Skipped int
}

// Service provides the analysis store over a repo root.
type Service struct {
	repoRoot string
	mu       sync.Mutex
}

// NewService creates a history Service.
func NewService(repoRoot string) *Service {
	return &Service{repoRoot: repoRoot}
}

// Save validates a and stores it under the next free ID of its week.
func (s *Service) Save(a model.WeeklyAnalysis, params SaveParams) (Record, error) {
	if err := validate(a); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := s.nextSeq(a.WeekStart)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:       id.FormatAnalysisID(a.WeekStart, seq),
		Analysis: a,
		Source:   params.Source,
		Skipped:  params.Skipped,
	}

	if err := os.MkdirAll(s.dir(rec.ID), 0o755); err != nil {
		return Record{}, fmt.Errorf("creating analysis dir: %w", err)
	}
	if err := s.write(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Replace overwrites a stored analysis after validating it.
func (s *Service) Replace(rec Record) error {
	if err := validate(rec.Analysis); err != nil {
		return err
	}

	if _, _, err := id.ParseAnalysisID(rec.ID); err != nil {
		return fmt.Errorf("analysis %s: %w", rec.ID, ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.dir(rec.ID)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("analysis %s: %w", rec.ID, ErrNotFound)
		}
		return fmt.Errorf("checking analysis %s: %w", rec.ID, err)
	}
	return s.write(rec)
}

// Get loads an analysis with its transactions.
func (s *Service) Get(analysisID string) (Record, error) {
	rec, err := s.readHeader(analysisID)
	if err != nil {
		return Record{}, err
	}

	path := filepath.Join(s.dir(analysisID), transactionsFile)
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("opening transactions %s: %w", path, err)
	}
	defer f.Close()

	txns, err := readTransactions(f)
	if err != nil {
		return Record{}, fmt.Errorf("reading transactions %s: %w", path, err)
	}
	rec.Analysis.Transactions = txns
	return rec, nil
}

// List returns up to limit summaries, newest analysis first. A limit <= 0
// returns all of them.
func (s *Service) List(limit int) ([]Summary, error) {
	recs, err := s.headers()
	if err != nil {
		return nil, err
	}
	sortNewestFirst(recs)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	out := make([]Summary, len(recs))
	for i, r := range recs {
		out[i] = Summary{
			ID:                r.ID,
			WeekStart:         r.Analysis.WeekStart,
			WeekEnd:           r.Analysis.WeekEnd,
			TotalExpenses:     r.Analysis.TotalExpenses.StringFixed(2),
			TransactionCount:  r.Analysis.TransactionCount,
			AnalysisTimestamp: r.Analysis.AnalysisTimestamp,
			Source:            r.Source,
		}
	}
	return out, nil
}

// FindByWeek returns the most recent analysis of the week containing
// weekStart.
func (s *Service) FindByWeek(weekStart time.Time) (Record, error) {
	week := analysis.WeekStart(weekStart)
	recs, err := s.headers()
	if err != nil {
		return Record{}, err
	}
	sortNewestFirst(recs)
	for _, r := range recs {
		if r.Analysis.WeekStart.Equal(week) {
			return s.Get(r.ID)
		}
	}
	return Record{}, fmt.Errorf("analysis for week %s: %w", week.Format("2006-01-02"), ErrNotFound)
}

// PreviousWeek returns the most recent analysis of the week before weekStart.
func (s *Service) PreviousWeek(weekStart time.Time) (Record, error) {
	return s.FindByWeek(analysis.WeekStart(weekStart).AddDate(0, 0, -model.DaysPerWeek))
}

// Unassigned returns every unassigned transaction from the most recent
// analysis of each week, newest transaction first.
func (s *Service) Unassigned() ([]UnassignedTransaction, error) {
	recs, err := s.headers()
	if err != nil {
		return nil, err
	}
	sortNewestFirst(recs)

	var out []UnassignedTransaction
	seenWeek := make(map[time.Time]bool)
	for _, h := range recs {
		if seenWeek[h.Analysis.WeekStart] {
			continue
		}
		seenWeek[h.Analysis.WeekStart] = true

		rec, err := s.Get(h.ID)
		if err != nil {
			return nil, err
		}
		for i, t := range rec.Analysis.Transactions {
			if t.Category.IsUnassigned() {
				out = append(out, UnassignedTransaction{
					ID:          id.FormatTransactionID(rec.ID, i+1),
					AnalysisID:  rec.ID,
					Transaction: t,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Transaction.Date, out[j].Transaction.Date
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Transaction returns the analysis holding a transaction and the
// transaction's 0-based position in it.
func (s *Service) Transaction(txnID string) (Record, int, error) {
	analysisID, idx, err := id.ParseTransactionID(txnID)
	if err != nil {
		return Record{}, 0, fmt.Errorf("transaction %s: %w", txnID, ErrNotFound)
	}
	rec, err := s.Get(analysisID)
	if err != nil {
		return Record{}, 0, err
	}
	if idx > len(rec.Analysis.Transactions) {
		return Record{}, 0, fmt.Errorf("transaction %s: %w", txnID, ErrNotFound)
	}
	return rec, idx - 1, nil
}

func (s *Service) write(rec Record) error {
	dir := s.dir(rec.ID)

	data, err := yaml.Marshal(marshalAnalysis(rec))
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, analysisFile), data, 0o644); err != nil {
		return fmt.Errorf("writing analysis: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, transactionsFile))
	if err != nil {
		return fmt.Errorf("creating transactions file: %w", err)
	}
	defer f.Close()
	if err := writeTransactions(f, rec.ID, rec.Analysis.Transactions); err != nil {
		return err
	}
	return f.Close()
}

// readHeader rejects IDs that do not parse before they reach the filesystem.
func (s *Service) readHeader(analysisID string) (Record, error) {
	if _, _, err := id.ParseAnalysisID(analysisID); err != nil {
		return Record{}, fmt.Errorf("analysis %s: %w", analysisID, ErrNotFound)
	}
	path := filepath.Join(s.dir(analysisID), analysisFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, fmt.Errorf("analysis %s: %w", analysisID, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("reading analysis %s: %w", path, err)
	}

	var raw analysisRecord
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("parsing analysis %s: %w", path, err)
	}
	rec, err := unmarshalAnalysis(raw)
	if err != nil {
		return Record{}, fmt.Errorf("analysis %s: %w", analysisID, err)
	}
	rec.ID = analysisID
	return rec, nil
}

// headers loads analysis.yaml of every stored analysis, in ID order.
func (s *Service) headers() ([]Record, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(ids))
	for _, aid := range ids {
		rec, err := s.readHeader(aid)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ids lists directory names under analyses/ that parse as analysis IDs.
func (s *Service) ids() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.repoRoot, "analyses"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, _, err := id.ParseAnalysisID(e.Name()); err != nil {
			continue
		}
		ids = append(ids, e.Name())
	}
	return ids, nil
}

func (s *Service) nextSeq(weekStart time.Time) (int, error) {
	ids, err := s.ids()
	if err != nil {
		return 0, err
	}
	prefix := weekStart.Format("2006-01-02") + "-"
	maxSeq := 0
	for _, aid := range ids {
		if !strings.HasPrefix(aid, prefix) {
			continue
		}
		_, seq, err := id.ParseAnalysisID(aid)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1, nil
}

func (s *Service) dir(analysisID string) string {
	return filepath.Join(s.repoRoot, "analyses", analysisID)
}

func sortNewestFirst(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		ti, tj := recs[i].Analysis.AnalysisTimestamp, recs[j].Analysis.AnalysisTimestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return recs[i].ID > recs[j].ID
	})
}

func validate(a model.WeeklyAnalysis) error {
	verrs := analysis.Validate(a)
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}
