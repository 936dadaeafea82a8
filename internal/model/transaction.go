package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/ledgererr"
)

// TransactionType classifies a ledger entry by its single-letter code.
type TransactionType string

const (
	TypeDeposit    TransactionType = "D"
	TypeWithdrawal TransactionType = "W"
	TypeInterest   TransactionType = "I"
)

// ParseTransactionType maps a code (case-insensitive) to a TransactionType.
func ParseTransactionType(code string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(code))) {
	case TypeDeposit:
		return TypeDeposit, nil
	case TypeWithdrawal:
		return TypeWithdrawal, nil
	case TypeInterest:
		return TypeInterest, nil
	}
	return "", ledgererr.Field(ledgererr.ErrInvalidType, "type", code, "must be D, W or I")
}

// Valid reports whether t is one of the known types.
func (t TransactionType) Valid() bool {
	return t == TypeDeposit || t == TypeWithdrawal || t == TypeInterest
}

// Name returns the long form, e.g. "DEPOSIT".
func (t TransactionType) Name() string {
	switch t {
	case TypeDeposit:
		return "DEPOSIT"
	case TypeWithdrawal:
		return "WITHDRAWAL"
	case TypeInterest:
		return "INTEREST"
	}
	return string(t)
}

// Apply returns balance after an entry of this type for amount.
// Deposits and interest credit the balance; withdrawals debit it.
// The result may be negative; callers enforce the non-negative invariant.
func (t TransactionType) Apply(balance, amount decimal.Decimal) decimal.Decimal {
	switch t {
	case TypeWithdrawal:
		return balance.Sub(amount)
	default:
		return balance.Add(amount)
	}
}

// Transaction is one ledger entry. Balance is the account balance
// immediately after the entry was applied.
type Transaction struct {
	ID            string
	Date          time.Time
	AccountNumber string
	Type          TransactionType
	Amount        decimal.Decimal
	Balance       decimal.Decimal
}

// RoundAmount rounds an amount to 2 decimal places, half-up.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NewTransaction validates the entry fields and returns a Transaction with
// the amount rounded to 2 decimal places.
func NewTransaction(id string, date time.Time, account string, typ TransactionType, amount, balance decimal.Decimal) (Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return Transaction{}, ledgererr.ErrDuplicateID
	}
	if date.IsZero() {
		return Transaction{}, ledgererr.Field(ledgererr.ErrInvalidDate, "date", "", "transaction date cannot be empty")
	}
	if strings.TrimSpace(account) == "" {
		return Transaction{}, ledgererr.Field(ledgererr.ErrInvalidAccount, "account", account, "account number cannot be empty")
	}
	if !typ.Valid() {
		return Transaction{}, ledgererr.Field(ledgererr.ErrInvalidType, "type", string(typ), "must be D, W or I")
	}
	rounded := RoundAmount(amount)
	if !rounded.IsPositive() {
		return Transaction{}, ledgererr.Field(ledgererr.ErrInvalidAmount, "amount", amount.String(), "amount must be positive")
	}
	return Transaction{
		ID:            id,
		Date:          Day(date),
		AccountNumber: account,
		Type:          typ,
		Amount:        rounded,
		Balance:       balance,
	}, nil
}

// Less orders transactions by date, then id.
func (t Transaction) Less(o Transaction) bool {
	if !t.Date.Equal(o.Date) {
		return t.Date.Before(o.Date)
	}
	return t.ID < o.ID
}
