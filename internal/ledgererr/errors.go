// Package ledgererr defines the error conditions raised by the ledger core.
//
// Each condition is a sentinel so callers can branch with errors.Is. Errors
// that need context (offending field, account, amounts) wrap a sentinel in
// FieldError or FundsError.
package ledgererr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation errors.
var (
	ErrInvalidInput   = errors.New("invalid input format")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAccount = errors.New("invalid account")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidRate    = errors.New("invalid interest rate")
	ErrInvalidRuleID  = errors.New("invalid rule id")
	ErrInvalidPeriod  = errors.New("invalid year or month")
	ErrFuturePeriod   = errors.New("year and month cannot be in the future")
)

// Business-rule violations.
var (
	ErrFirstTransactionWithdrawal = errors.New("first transaction for an account cannot be a withdrawal")
	ErrInsufficientFunds          = errors.New("insufficient funds")
)

// Storage errors.
var (
	ErrDuplicateID    = errors.New("transaction must have an id")
	ErrNotFound       = errors.New("not found")
	ErrPersistence    = errors.New("transaction creation failed")
	ErrRollbackFailed = errors.New("transaction failed and could not be rolled back")
)

// FieldError reports a rejected input field.
type FieldError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	msg := e.Err.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Value != "" {
		return fmt.Sprintf("%s (%s=%q)", msg, e.Field, e.Value)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Field)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Field returns a FieldError wrapping sentinel.
func Field(sentinel error, field, value, reason string) error {
	return &FieldError{Field: field, Value: value, Reason: reason, Err: sentinel}
}

// FundsError reports a withdrawal that would take an account below zero.
type FundsError struct {
	Account string
	Balance decimal.Decimal
	Amount  decimal.Decimal
}

func (e *FundsError) Error() string {
	return fmt.Sprintf("%s: account %s has %s, cannot withdraw %s",
		ErrInsufficientFunds, e.Account, e.Balance.StringFixed(2), e.Amount.StringFixed(2))
}

func (e *FundsError) Unwrap() error { return ErrInsufficientFunds }

// InsufficientFunds returns a FundsError for account.
func InsufficientFunds(account string, balance, amount decimal.Decimal) error {
	return &FundsError{Account: account, Balance: balance, Amount: amount}
}
