package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/accrual/internal/app"
	"github.com/cleared-dev/accrual/internal/auditlog"
)

func newTxnCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "txn <YYYYMMDD> <account> <D|W> <amount>",
		Short: "Record a deposit or withdrawal",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				txn, err := a.Processor.SubmitLine(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				details := fmt.Sprintf("%s %s", txn.Type.Name(), txn.Amount.StringFixed(2))
				if err := a.Record(auditlog.ActionTransaction, txn.AccountNumber, details, txn.ID); err != nil {
					return err
				}

				history, err := a.Processor.History(ctx, txn.AccountNumber)
				if err != nil {
					return err
				}
				return printHistory(cmd.OutOrStdout(), txn.AccountNumber, history)
			})
		},
	}
}

func newBalanceCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Show the current balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				bal, err := a.Accounts.CurrentBalance(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account: %s\n", args[0])
				printBalance(cmd.OutOrStdout(), bal)
				return nil
			})
		},
	}
}
