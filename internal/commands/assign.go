package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/budgetctl/budgetctl/internal/model"
	"github.com/budgetctl/budgetctl/internal/service"
)

func newUnassignedCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unassigned",
		Short: "List transactions that no rule or pattern categorized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			txns, err := svc.Unassigned()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(txns) == 0 {
				fmt.Fprintln(out, "Nothing to categorize")
				return nil
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tDESCRIPTION")
			for _, u := range txns {
				t := u.Transaction
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, t.Date.Format(dateLayout), t.Amount.StringFixed(2), t.Description)
			}
			return tw.Flush()
		},
	}
}

func newAssignCommand(opts *globalOptions) *cobra.Command {
	var category, phrase string

	cmd := &cobra.Command{
		Use:   "assign <transaction-id>",
		Short: "Set a transaction's category, optionally teaching a rule",
		Long: "Set a transaction's category.\n\n" +
			"With --phrase the assignment is remembered: future transactions whose\n" +
			"description contains the phrase get the same category.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			res, err := svc.Assign(service.AssignParams{
				TransactionID: args[0],
				Category:      model.Category(category),
				Phrase:        phrase,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %q -> %s\n", res.TransactionID, res.Transaction.Description, res.Transaction.Category)
			if res.Rule != nil {
				verb := "Updated"
				if res.RuleCreated {
					verb = "Learned"
				}
				fmt.Fprintf(out, "%s rule %s: %q -> %s (used %d times)\n", verb, res.Rule.ID, res.Rule.Phrase, res.Rule.Category, res.Rule.UseCount)
			}
			fmt.Fprintf(out, "Week total now %s\n", res.Analysis.TotalExpenses.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category label (required)")
	_ = cmd.MarkFlagRequired("category")
	cmd.Flags().StringVar(&phrase, "phrase", "", "phrase to remember for future transactions")

	return cmd
}
