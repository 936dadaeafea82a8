package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/model"
	"github.com/cleared-dev/accrual/internal/statement"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
}

func printHistory(w io.Writer, account string, txns []model.Transaction) error {
	fmt.Fprintf(w, "\nAccount: %s\n", account)
	tw := newTable(w)
	fmt.Fprintln(tw, "| Date\t| Txn Id\t| Type\t| Amount\t|")
	for _, t := range txns {
		fmt.Fprintf(tw, "| %s\t| %s\t| %s\t| %s\t|\n",
			t.Date.Format(model.DateFormat), t.ID, t.Type, t.Amount.StringFixed(2))
	}
	return tw.Flush()
}

func printRules(w io.Writer, rules []model.InterestRule) error {
	fmt.Fprintln(w, "\nInterest rules:")
	tw := newTable(w)
	fmt.Fprintln(tw, "| Date\t| RuleId\t| Rate (%)\t|")
	for _, r := range rules {
		fmt.Fprintf(tw, "| %s\t| %s\t| %s\t|\n",
			r.EffectiveDate.Format(model.DateFormat), r.RuleID, r.Rate.StringFixed(2))
	}
	return tw.Flush()
}

func printStatement(w io.Writer, st statement.Statement) error {
	fmt.Fprintf(w, "\nAccount: %s\n", st.Account)
	tw := newTable(w)
	fmt.Fprintln(tw, "| Date\t| Txn Id\t| Type\t| Amount\t| Balance\t|")
	for _, t := range st.Transactions {
		fmt.Fprintf(tw, "| %s\t| %s\t| %s\t| %s\t| %s\t|\n",
			t.Date.Format(model.DateFormat), t.ID, t.Type, t.Amount.StringFixed(2), t.Balance.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printBalance(w, st.CurrentBalance)
	return nil
}

func printBalance(w io.Writer, balance decimal.Decimal) {
	fmt.Fprintf(w, "\nCurrent Balance: %s\n", balance.StringFixed(2))
}
