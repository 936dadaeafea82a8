// Package input converts whitespace-split text fields into ledger values.
package input

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/model"
)

// Fields splits line on whitespace and requires exactly n fields.
func Fields(line string, n int) ([]string, error) {
	parts := strings.Fields(line)
	if len(parts) != n {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ledgererr.ErrInvalidInput, n, len(parts))
	}
	return parts, nil
}

// ParseDate parses a strict 8-digit YYYYMMDD date.
func ParseDate(s string) (time.Time, error) {
	if len(s) != 8 || !allDigits(s) {
		return time.Time{}, ledgererr.Field(ledgererr.ErrInvalidDate, "date", s, "date must be in YYYYMMDD format")
	}
	d, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return time.Time{}, ledgererr.Field(ledgererr.ErrInvalidDate, "date", s, "not a calendar date")
	}
	return d, nil
}

// ParseAmount parses a decimal amount. Sign and size are checked by the
// transaction processor.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ledgererr.Field(ledgererr.ErrInvalidAmount, "amount", s, "not a number")
	}
	return d, nil
}

// ParseRate parses an interest rate in percent.
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ledgererr.Field(ledgererr.ErrInvalidRate, "rate", s, "not a number")
	}
	return d, nil
}

// ParsePeriod parses a YYYYMM statement period. The month is not range
// checked here; the statement engine rejects month 0 or 13.
func ParsePeriod(s string) (year, month int, err error) {
	if len(s) != 6 || !allDigits(s) {
		return 0, 0, ledgererr.Field(ledgererr.ErrInvalidPeriod, "period", s, "period must be in YYYYMM format")
	}
	year, _ = strconv.Atoi(s[:4])
	month, _ = strconv.Atoi(s[4:])
	return year, month, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
