package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/budgetctl/budgetctl/internal/importer"
	"github.com/budgetctl/budgetctl/internal/service"
)

func newAnalyzeCommand(opts *globalOptions) *cobra.Command {
	var weekStart string
	var mapping importer.ColumnMapping
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [file.csv]",
		Short: "Import a bank export and produce its weekly analysis",
		Long: "Import a bank export and produce its weekly analysis.\n\n" +
			"Without a file argument every CSV waiting in import/ is analyzed and\n" +
			"moved to import/processed/.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := service.ParseWeekStart(weekStart)
			if err != nil {
				return err
			}

			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return runAnalyzeInbox(out, svc, week, mapping, asJSON)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			report, err := svc.Analyze(service.AnalyzeParams{
				Data:      data,
				WeekStart: week,
				Mapping:   mapping,
				Source:    filepath.Base(args[0]),
			})
			if err != nil {
				return withMappingHint(err)
			}
			if asJSON {
				return printJSON(out, report)
			}
			return printReport(out, report)
		},
	}

	cmd.Flags().StringVar(&weekStart, "week-start", "", "analyze the week containing this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&mapping.Date, "date-column", "", "header of the date column, bypassing detection")
	cmd.Flags().StringVar(&mapping.Amount, "amount-column", "", "header of the amount column")
	cmd.Flags().StringVar(&mapping.Description, "description-column", "", "header of the description column")
	cmd.Flags().StringVar(&mapping.Balance, "balance-column", "", "header of the balance column (optional)")
	cmd.MarkFlagsRequiredTogether("date-column", "amount-column", "description-column")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func runAnalyzeInbox(out io.Writer, svc *service.Service, week time.Time, mapping importer.ColumnMapping, asJSON bool) error {
	results, err := svc.AnalyzeInbox(week, mapping)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No CSV files waiting in import/")
		return nil
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", r.File, withMappingHint(r.Err))
			if r.Report == nil {
				continue
			}
		}
		if asJSON {
			if err := printJSON(out, r.Report); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "== %s\n", r.File)
		if err := printReport(out, r.Report); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func printReport(out io.Writer, r *service.Report) error {
	if err := printAnalysis(out, r.ID, r.Analysis); err != nil {
		return err
	}
	fmt.Fprintf(out, "Rows read: %d, skipped: %d, delimiter: %s\n", r.Rows, r.Skipped, r.Delimiter)
	if r.Unassigned > 0 {
		fmt.Fprintf(out, "%d transactions need a category; run `budgetctl unassigned`\n", r.Unassigned)
	}
	if r.Comparison != nil {
		fmt.Fprintln(out)
		return printComparison(out, r.PreviousID, r.Comparison)
	}
	return nil
}

// withMappingHint tells the user how to recover from undetected columns.
func withMappingHint(err error) error {
	var missing *importer.MissingColumnsError
	if errors.As(err, &missing) {
		return fmt.Errorf("%w\nre-run with --date-column, --amount-column and --description-column naming the headers to use", err)
	}
	if errors.Is(err, importer.ErrNoValidTransactions) {
		return fmt.Errorf("%w\ncheck that the date and amount columns hold dates and numbers", err)
	}
	return err
}
