// Package service wires ingestion, categorization, analysis and the
// repository stores into the operations exposed by the CLI and HTTP API.
package service

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/budgetctl/budgetctl/internal/activity"
	"github.com/budgetctl/budgetctl/internal/analysis"
	"github.com/budgetctl/budgetctl/internal/categories"
	"github.com/budgetctl/budgetctl/internal/categorize"
	"github.com/budgetctl/budgetctl/internal/config"
	"github.com/budgetctl/budgetctl/internal/gitops"
	"github.com/budgetctl/budgetctl/internal/history"
	"github.com/budgetctl/budgetctl/internal/importer"
	"github.com/budgetctl/budgetctl/internal/model"
	"github.com/budgetctl/budgetctl/internal/rules"
)

// Service holds the stores of one budget repository.
type Service struct {
	repoRoot string
	cfg      *config.Config
	logger   *zap.Logger
	actor    string
	now      func() time.Time

	// assignMu serializes read-modify-write of stored analyses.
	assignMu sync.Mutex

	ingestor *importer.Ingestor
	engine   *categorize.Engine
	analyzer *analysis.Analyzer
	rules    *rules.Store
	history  *history.Service
	catalog  *categories.Service
}

// Option customizes a Service.
type Option func(*Service)

// WithActor sets the actor recorded in the activity log. Default "cli".
func WithActor(actor string) Option {
	return func(s *Service) { s.actor = actor }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Open loads the category catalog and pattern configuration of repoRoot.
// A nil cfg is loaded from <repoRoot>/budget.yaml.
func Open(repoRoot string, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if info, err := os.Stat(repoRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("opening repository %s: not a directory", repoRoot)
	}
	if cfg == nil {
		var err error
		cfg, err = config.LoadRepo(repoRoot)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	patterns, err := cfg.PatternTable()
	if err != nil {
		return nil, fmt.Errorf("loading category patterns: %w", err)
	}
	catalog, err := categories.Load(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	for _, c := range patterns.Categories() {
		if !catalog.Exists(c) {
			catalog.Add(categories.Category{Label: c, Description: "custom pattern category"})
		}
	}

	s := &Service{
		repoRoot: repoRoot,
		cfg:      cfg,
		logger:   logger,
		actor:    "cli",
		now:      time.Now,
		ingestor: importer.NewIngestor(cfg.HeaderTable(), logger.Named("ingest")),
		engine:   categorize.NewEngine(patterns),
		rules:    rules.NewStore(repoRoot),
		history:  history.NewService(repoRoot),
		catalog:  catalog,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.analyzer = &analysis.Analyzer{Now: s.now}
	return s, nil
}

// Config returns the configuration the Service was opened with.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// RepoRoot returns the repository directory.
func (s *Service) RepoRoot() string {
	return s.repoRoot
}

// AnalyzeParams holds the input of one analysis run.
type AnalyzeParams struct {
	Data      []byte
	WeekStart time.Time              // zero derives the week from the data
	Mapping   importer.ColumnMapping // zero uses header detection
	Source    string                 // file name, recorded with the analysis
}

// Report is the outcome of an analysis run.
type Report struct {
	ID         string               `json:"id"`
	Analysis   model.WeeklyAnalysis `json:"analysis"`
	Comparison *model.Comparison    `json:"comparison,omitempty"`
	PreviousID string               `json:"previous_id,omitempty"`
	Unassigned int                  `json:"unassigned"`
	Rows       int                  `json:"rows"`
	Skipped    int                  `json:"skipped_rows"`
	Delimiter  string               `json:"delimiter"`
	CommitHash string               `json:"commit_hash,omitempty"`
}

// Analyze runs ingest, categorize and analyze over one upload, saves the
// analysis and compares it with the previous week when one is stored.
func (s *Service) Analyze(params AnalyzeParams) (*Report, error) {
	var (
		res *importer.Result
		err error
	)
	if params.Mapping.IsZero() {
		res, err = s.ingestor.Ingest(params.Data)
	} else {
		res, err = s.ingestor.IngestWithMapping(params.Data, params.Mapping)
	}
	if err != nil {
		return nil, fmt.Errorf("ingesting %s: %w", sourceName(params.Source), err)
	}

	snapshot, err := s.rules.Load()
	if err != nil {
		s.logger.Warn("rule store unreadable, using built-in patterns only", zap.Error(err))
		snapshot = nil
	}

	now := s.now()
	cat := s.engine.Categorize(res.Transactions, snapshot)
	if len(cat.MatchedRules) > 0 {
		if err := s.rules.RecordUse(cat.MatchedRules, now); err != nil {
			s.logger.Warn("recording rule use", zap.Error(err))
		}
	}

	weekly := s.analyzer.Analyze(cat.Transactions, params.WeekStart)
	rec, err := s.history.Save(weekly, history.SaveParams{Source: params.Source, Skipped: res.Skipped})
	if err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	report := &Report{
		ID:         rec.ID,
		Analysis:   weekly,
		Unassigned: countUnassigned(weekly.Transactions),
		Rows:       res.Rows,
		Skipped:    res.Skipped,
		Delimiter:  res.Dialect.String(),
	}

	prev, err := s.history.PreviousWeek(weekly.WeekStart)
	switch {
	case err == nil:
		cmp := analysis.Compare(weekly, prev.Analysis)
		report.Comparison = &cmp
		report.PreviousID = prev.ID
	case errors.Is(err, history.ErrNotFound):
	default:
		s.logger.Warn("loading previous week", zap.Error(err))
	}

	s.logger.Info("analysis saved",
		zap.String("id", rec.ID),
		zap.String("week_start", weekly.WeekStart.Format("2006-01-02")),
		zap.Int("transactions", weekly.TransactionCount),
		zap.Int("unassigned", report.Unassigned),
		zap.Int("skipped", res.Skipped),
	)

	report.CommitHash = s.record(activity.ActionAnalyze, rec.ID,
		fmt.Sprintf("%s: %d transactions, %d unassigned, total %s", sourceName(params.Source),
			weekly.TransactionCount, report.Unassigned, weekly.TotalExpenses.StringFixed(2)),
		"analyze: week of "+weekly.WeekStart.Format("2006-01-02")+" ("+rec.ID+")")
	return report, nil
}

// InboxResult is the outcome for one file of the import inbox.
type InboxResult struct {
	File   string
	Report *Report
	Err    error
}

// AnalyzeInbox analyzes every CSV in import/ and moves each successfully
// analyzed file to import/processed/. Per-file failures are reported in the
// results and leave the file in place.
func (s *Service) AnalyzeInbox(weekStart time.Time, mapping importer.ColumnMapping) ([]InboxResult, error) {
	files, err := importer.Scan(s.repoRoot)
	if err != nil {
		return nil, err
	}

	results := make([]InboxResult, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			results = append(results, InboxResult{File: f.Name, Err: fmt.Errorf("reading %s: %w", f.Name, err)})
			continue
		}
		report, err := s.Analyze(AnalyzeParams{Data: data, WeekStart: weekStart, Mapping: mapping, Source: f.Name})
		if err != nil {
			results = append(results, InboxResult{File: f.Name, Err: err})
			continue
		}
		if err := importer.MarkProcessed(s.repoRoot, f.Name); err != nil {
			results = append(results, InboxResult{File: f.Name, Report: report, Err: err})
			continue
		}
		results = append(results, InboxResult{File: f.Name, Report: report})
	}
	return results, nil
}

// History lists stored analyses, newest first.
func (s *Service) History(limit int) ([]history.Summary, error) {
	return s.history.List(limit)
}

// Get returns a stored analysis with its transactions.
func (s *Service) Get(analysisID string) (history.Record, error) {
	return s.history.Get(analysisID)
}

// Compare compares a stored analysis with the most recent analysis of the
// week before it. It returns history.ErrNotFound when either is missing.
func (s *Service) Compare(analysisID string) (*model.Comparison, string, error) {
	cur, err := s.history.Get(analysisID)
	if err != nil {
		return nil, "", err
	}
	prev, err := s.history.PreviousWeek(cur.Analysis.WeekStart)
	if err != nil {
		return nil, "", fmt.Errorf("previous week of %s: %w", analysisID, err)
	}
	cmp := analysis.Compare(cur.Analysis, prev.Analysis)
	return &cmp, prev.ID, nil
}

// Unassigned lists transactions waiting for a manual category.
func (s *Service) Unassigned() ([]history.UnassignedTransaction, error) {
	return s.history.Unassigned()
}

// Categories returns the category catalog.
func (s *Service) Categories() []categories.Category {
	return s.catalog.All()
}

// Rules returns learned rules in priority order.
func (s *Service) Rules() ([]model.CategoryRule, error) {
	return s.rules.Load()
}

// Rule returns one learned rule by ID.
func (s *Service) Rule(ruleID string) (model.CategoryRule, error) {
	return s.rules.Get(ruleID)
}

// DeleteRule removes a learned rule.
func (s *Service) DeleteRule(ruleID string) (model.CategoryRule, error) {
	r, err := s.rules.Delete(ruleID)
	if err != nil {
		return model.CategoryRule{}, err
	}
	s.logger.Info("rule deleted", zap.String("id", r.ID), zap.String("phrase", r.Phrase))
	s.record(activity.ActionDeleteRule, r.ID, fmt.Sprintf("%q -> %s", r.Phrase, r.Category), "rules: delete "+r.ID)
	return r, nil
}

// AssignParams is a manual category assignment. A non-empty Phrase also
// teaches a learned rule.
type AssignParams struct {
	TransactionID string
	Category      model.Category
	Phrase        string
}

// AssignResult is the outcome of a manual assignment.
type AssignResult struct {
	TransactionID string               `json:"transaction_id"`
	AnalysisID    string               `json:"analysis_id"`
	Transaction   model.Transaction    `json:"transaction"`
	Analysis      model.WeeklyAnalysis `json:"analysis"`
	Rule          *model.CategoryRule  `json:"rule,omitempty"`
	RuleCreated   bool                 `json:"rule_created"`
	CommitHash    string               `json:"commit_hash,omitempty"`
}

// Assign sets the category of a stored transaction, recomputes the totals of
// its analysis and, when a phrase is given, upserts the learned rule so the
// next analysis picks the category automatically.
func (s *Service) Assign(params AssignParams) (*AssignResult, error) {
	cat := model.Category(strings.TrimSpace(string(params.Category)))
	if cat == "" {
		return nil, invalid("category", "is required")
	}
	if !s.catalog.Exists(cat) {
		return nil, invalid("category", "unknown category %q", cat)
	}
	phrase := strings.TrimSpace(params.Phrase)
	if phrase == "" && params.Phrase != "" {
		return nil, invalid("phrase", "is blank")
	}

	s.assignMu.Lock()
	defer s.assignMu.Unlock()

	rec, idx, err := s.history.Transaction(params.TransactionID)
	if err != nil {
		return nil, err
	}
	rec.Analysis.Transactions[idx].Category = cat
	rec.Analysis.Transactions[idx].IsManual = true
	rec.Analysis = analysis.Recalculate(rec.Analysis)
	if err := s.history.Replace(rec); err != nil {
		return nil, fmt.Errorf("saving analysis %s: %w", rec.ID, err)
	}

	res := &AssignResult{
		TransactionID: params.TransactionID,
		AnalysisID:    rec.ID,
		Transaction:   rec.Analysis.Transactions[idx],
		Analysis:      rec.Analysis,
	}
	if phrase != "" {
		rule, created, err := s.rules.Upsert(phrase, cat, s.now())
		if err != nil {
			return nil, fmt.Errorf("saving rule %q: %w", phrase, err)
		}
		res.Rule = &rule
		res.RuleCreated = created
	}

	fields := []zap.Field{
		zap.String("transaction", params.TransactionID),
		zap.String("category", string(cat)),
	}
	if res.Rule != nil {
		fields = append(fields, zap.String("rule", res.Rule.ID), zap.Bool("rule_created", res.RuleCreated))
	}
	s.logger.Info("category assigned", fields...)

	details := fmt.Sprintf("%q -> %s", res.Transaction.Description, cat)
	if res.Rule != nil {
		details += fmt.Sprintf(" (rule %q, used %d)", res.Rule.Phrase, res.Rule.UseCount)
	}
	res.CommitHash = s.record(activity.ActionAssign, params.TransactionID, details,
		"assign: "+params.TransactionID+" -> "+string(cat))
	return res, nil
}

// record appends an activity entry and commits the repository when
// auto-commit is enabled. It returns the commit hash, if any. Failures are
// logged; the operation they describe has already succeeded.
func (s *Service) record(action, subject, details, commitMsg string) string {
	hash := s.commit(commitMsg)
	entry := activity.Entry{
		Timestamp:  s.now().UTC(),
		Actor:      s.actor,
		Action:     action,
		Subject:    subject,
		Details:    details,
		CommitHash: hash,
	}
	if err := activity.Append(s.repoRoot, []activity.Entry{entry}); err != nil {
		s.logger.Warn("writing activity log", zap.Error(err))
	}
	return hash
}

func (s *Service) commit(message string) string {
	if !s.cfg.Git.AutoCommit || !gitops.IsRepo(s.repoRoot) {
		return ""
	}
	c := gitops.Committer{Dir: s.repoRoot, Name: s.cfg.Git.AuthorName, Email: s.cfg.Git.AuthorEmail}
	hash, err := c.Commit(message)
	if err != nil {
		s.logger.Warn("git auto-commit failed", zap.Error(err))
		return ""
	}
	return hash
}

func countUnassigned(txns []model.Transaction) int {
	n := 0
	for _, t := range txns {
		if t.Category.IsUnassigned() {
			n++
		}
	}
	return n
}

func sourceName(source string) string {
	if source == "" {
		return "upload"
	}
	return source
}
