package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/budgetctl/budgetctl/internal/activity"
	"github.com/budgetctl/budgetctl/internal/categories"
	"github.com/budgetctl/budgetctl/internal/config"
	"github.com/budgetctl/budgetctl/internal/gitops"
	"github.com/budgetctl/budgetctl/internal/rules"
)

func newInitCommand() *cobra.Command {
	var name string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new budget repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, name, !noGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "budget owner name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not initialize a git repository")

	return cmd
}

func runInit(out io.Writer, dir, name string, withGit bool) error {
	// Create directory structure.
	dirs := []string{
		"categories",
		"rules",
		"analyses",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(name)
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	catalog := categories.NewService(categories.DefaultCatalog())
	if err := catalog.Save(dir); err != nil {
		return fmt.Errorf("writing category catalog: %w", err)
	}

	if err := os.WriteFile(rules.Path(dir), []byte("rules: []\n"), 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	gitignore := ".env\nimport/*.csv\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	entry := activity.Entry{
		Timestamp: time.Now().UTC(),
		Actor:     "cli",
		Action:    activity.ActionInit,
		Subject:   name,
		Details:   "initialized budget repository",
	}
	if err := activity.Append(dir, []activity.Entry{entry}); err != nil {
		return fmt.Errorf("writing activity log: %w", err)
	}

	if !withGit {
		fmt.Fprintf(out, "Initialized budget repository at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	c := gitops.Committer{Dir: dir, Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := c.Commit("init: Initialize budget for " + name)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized budget repository at %s (%s)\n", dir, hash)
	return nil
}
