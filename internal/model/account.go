package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/ledgererr"
)

// Account is a customer account keyed by its account number.
type Account struct {
	Number      string
	Balance     decimal.Decimal
	CreatedDate time.Time
}

// NewAccount returns an empty account opened on created.
func NewAccount(number string, created time.Time) (Account, error) {
	if strings.TrimSpace(number) == "" {
		return Account{}, ledgererr.Field(ledgererr.ErrInvalidAccount, "account", number, "account number cannot be empty")
	}
	return Account{Number: number, Balance: decimal.Zero, CreatedDate: Day(created)}, nil
}
