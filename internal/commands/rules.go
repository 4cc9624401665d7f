package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRulesCommand(opts *globalOptions) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage learned categorization rules",
	}
	rulesCmd.AddCommand(newRulesListCommand(opts), newRulesShowCommand(opts), newRulesDeleteCommand(opts))
	return rulesCmd
}

func newRulesListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List learned rules in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			rules, err := svc.Rules()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rules) == 0 {
				fmt.Fprintln(out, "No learned rules")
				return nil
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tPHRASE\tCATEGORY\tUSES\tLAST USED")
			for _, r := range rules {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Phrase, r.Category, r.UseCount, r.LastUsedAt.Format(dateLayout))
			}
			return tw.Flush()
		},
	}
}

func newRulesShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <rule-id>",
		Short: "Show one learned rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			r, err := svc.Rule(args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
			fmt.Fprintf(tw, "Phrase:\t%s\n", r.Phrase)
			fmt.Fprintf(tw, "Category:\t%s\n", r.Category)
			fmt.Fprintf(tw, "Uses:\t%d\n", r.UseCount)
			fmt.Fprintf(tw, "Created:\t%s\n", r.CreatedAt.Format(dateLayout))
			fmt.Fprintf(tw, "Last used:\t%s\n", r.LastUsedAt.Format(dateLayout))
			return tw.Flush()
		},
	}
}

func newRulesDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a learned rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			r, err := svc.DeleteRule(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %s (%q -> %s)\n", r.ID, r.Phrase, r.Category)
			return nil
		},
	}
}

func newCategoriesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the category catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open("cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "LABEL\tCOLOR\tDESCRIPTION")
			for _, c := range svc.Categories() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Label, c.Color, c.Description)
			}
			return tw.Flush()
		},
	}
}
