package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/accrual/internal/app"
	"github.com/cleared-dev/accrual/internal/auditlog"
	"github.com/cleared-dev/accrual/internal/input"
)

func newStatementCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "statement <account> <YYYYMM>",
		Short: "Print a monthly statement and accrue its interest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := input.ParsePeriod(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				st, err := a.Statements.Generate(ctx, args[0], year, month)
				if err != nil {
					return err
				}
				if st.Changed() {
					details, ref := "no interest for "+st.Period(), ""
					if st.Interest != nil {
						details = "INTEREST " + st.Interest.Amount.StringFixed(2) + " for " + st.Period()
						ref = st.Interest.ID
					}
					if err := a.Record(auditlog.ActionStatement, st.Account, details, ref); err != nil {
						return err
					}
				}
				return printStatement(cmd.OutOrStdout(), st)
			})
		},
	}
}
