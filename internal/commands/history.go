package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			summaries, err := svc.History(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No analyses yet")
				return nil
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tWEEK\tTRANSACTIONS\tTOTAL\tANALYZED\tSOURCE")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%s..%s\t%d\t%s\t%s\t%s\n",
					s.ID, s.WeekStart.Format(dateLayout), s.WeekEnd.Format(dateLayout),
					s.TransactionCount, s.TotalExpenses,
					s.AnalysisTimestamp.Local().Format("2006-01-02 15:04"), s.Source)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of analyses to list (0 for all)")

	return cmd
}

func newShowCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <analysis-id>",
		Short: "Show a stored analysis with its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			rec, err := svc.Get(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, rec)
			}

			if err := printAnalysis(out, rec.ID, rec.Analysis); err != nil {
				return err
			}
			fmt.Fprintln(out)

			tw := newTable(out)
			fmt.Fprintln(tw, "#\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION")
			for i, t := range rec.Analysis.Transactions {
				cat := string(t.Category)
				if t.IsManual {
					cat += "*"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, t.Date.Format(dateLayout), t.Amount.StringFixed(2), cat, t.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out, "* category from a learned rule or manual assignment")
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the analysis as JSON")

	return cmd
}

func newCompareCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <analysis-id>",
		Short: "Compare an analysis with the week before it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cmp, prevID, err := svc.Compare(args[0])
			if err != nil {
				return err
			}
			return printComparison(cmd.OutOrStdout(), prevID, cmp)
		},
	}
}
