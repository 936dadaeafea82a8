package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/accrual/internal/buildinfo"
	"github.com/cleared-dev/accrual/internal/config"
)

type globalOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "accrual",
		Short:   "Account ledger with monthly interest accrual",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "path to accrual.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(),
		newTxnCommand(opts),
		newRuleCommand(opts),
		newRulesCommand(opts),
		newStatementCommand(opts),
		newBalanceCommand(opts),
		newImportCommand(opts),
	)

	return rootCmd
}
