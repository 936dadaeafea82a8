package transactions

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/model"
)

// Request holds the raw fields of a transaction submission.
type Request struct {
	Date     time.Time
	Account  string
	TypeCode string
	Amount   decimal.Decimal
}

// ValidateRequest checks the fields of req in a fixed order (date, account,
// type, amount) and returns the first failure. today is the current date.
func ValidateRequest(req Request, today time.Time) (model.TransactionType, error) {
	if req.Date.IsZero() {
		return "", ledgererr.Field(ledgererr.ErrInvalidDate, "date", "", "transaction date is required")
	}
	if model.Day(req.Date).After(today) {
		return "", ledgererr.Field(ledgererr.ErrInvalidDate, "date", req.Date.Format(model.DateFormat), "transaction date cannot be in the future")
	}

	if strings.TrimSpace(req.Account) == "" {
		return "", ledgererr.Field(ledgererr.ErrInvalidAccount, "account", req.Account, "account number cannot be empty")
	}

	typ, err := model.ParseTransactionType(req.TypeCode)
	if err != nil {
		return "", err
	}

	if !model.RoundAmount(req.Amount).IsPositive() {
		return "", ledgererr.Field(ledgererr.ErrInvalidAmount, "amount", req.Amount.String(), "transaction amount must be positive")
	}

	return typ, nil
}

// checkAccountRules enforces the business rules that depend on account
// state: no withdrawal as the first transaction, and no overdraft.
func checkAccountRules(account string, typ model.TransactionType, amount decimal.Decimal, priorCount int, balance decimal.Decimal) error {
	if typ != model.TypeWithdrawal {
		return nil
	}
	if priorCount == 0 {
		return ledgererr.ErrFirstTransactionWithdrawal
	}
	if balance.LessThan(amount) {
		return ledgererr.InsufficientFunds(account, balance, amount)
	}
	return nil
}
