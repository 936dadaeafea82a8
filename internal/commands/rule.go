package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/accrual/internal/app"
	"github.com/cleared-dev/accrual/internal/auditlog"
)

func newRuleCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rule <YYYYMMDD> <ruleId> <rate>",
		Short: "Define an interest rule effective from a date",
		Long: "Define an interest rule effective from a date. The rate is an annual\n" +
			"percentage between 0 and 100 exclusive. A rule already effective on the\n" +
			"same date is replaced.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				rule, err := a.Rules.DefineLine(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if err := a.Record(auditlog.ActionRule, "", rule.Rate.StringFixed(2)+"%", rule.RuleID); err != nil {
					return err
				}
				all, err := a.Rules.All(ctx)
				if err != nil {
					return err
				}
				return printRules(cmd.OutOrStdout(), all)
			})
		},
	}
}

func newRulesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List interest rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				all, err := a.Rules.All(ctx)
				if err != nil {
					return err
				}
				return printRules(cmd.OutOrStdout(), all)
			})
		},
	}
}
