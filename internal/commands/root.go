package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/budgetctl/budgetctl/internal/buildinfo"
	"github.com/budgetctl/budgetctl/internal/config"
	"github.com/budgetctl/budgetctl/internal/logging"
	"github.com/budgetctl/budgetctl/internal/service"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	repo     string
	logLevel string
	env      config.Env
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{env: config.FromEnv()}

	rootCmd := &cobra.Command{
		Use:     "budgetctl",
		Short:   "Categorize bank statement exports and report weekly spending",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	repoDefault := opts.env.Repo
	if repoDefault == "" {
		repoDefault = "."
	}
	rootCmd.PersistentFlags().StringVar(&opts.repo, "repo", repoDefault, "budget repository directory (env "+config.EnvRepo+")")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (env "+config.EnvLogLevel+")")

	rootCmd.AddCommand(
		newInitCommand(),
		newAnalyzeCommand(opts),
		newHistoryCommand(opts),
		newShowCommand(opts),
		newCompareCommand(opts),
		newUnassignedCommand(opts),
		newAssignCommand(opts),
		newRulesCommand(opts),
		newCategoriesCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}

// loadConfig reads budget.yaml from the repository and applies environment
// and flag overrides, in that order.
func (o *globalOptions) loadConfig(repoRoot string) (*config.Config, error) {
	cfg, err := config.LoadRepo(repoRoot)
	if err != nil {
		return nil, err
	}
	o.env.Apply(cfg)
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// open resolves the repository and opens a Service over it. The returned
// logger must be synced by the caller.
func (o *globalOptions) open(actor string) (*service.Service, *zap.Logger, error) {
	repoRoot, err := filepath.Abs(o.repo)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := o.loadConfig(repoRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	svc, err := service.Open(repoRoot, cfg, logger, service.WithActor(actor))
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return svc, logger, nil
}
