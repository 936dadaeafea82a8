package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/ledgererr"
)

var hundred = decimal.NewFromInt(100)

// InterestRule sets the annual interest rate (in percent) from
// EffectiveDate onward, until a later rule takes over.
type InterestRule struct {
	EffectiveDate time.Time
	RuleID        string
	Rate          decimal.Decimal
}

// NewInterestRule validates the rule fields and stores the rate at 2dp.
func NewInterestRule(effective time.Time, ruleID string, rate decimal.Decimal) (InterestRule, error) {
	if effective.IsZero() {
		return InterestRule{}, ledgererr.Field(ledgererr.ErrInvalidDate, "date", "", "effective date cannot be empty")
	}
	if strings.TrimSpace(ruleID) == "" {
		return InterestRule{}, ledgererr.Field(ledgererr.ErrInvalidRuleID, "rule_id", ruleID, "rule id cannot be empty")
	}
	if err := ValidateRate(rate); err != nil {
		return InterestRule{}, err
	}
	return InterestRule{
		EffectiveDate: Day(effective),
		RuleID:        ruleID,
		Rate:          rate.Round(2),
	}, nil
}

// ValidateRate enforces 0 < rate < 100 with no significant digits past
// the second decimal place.
func ValidateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return ledgererr.Field(ledgererr.ErrInvalidRate, "rate", rate.String(), "interest rate must be positive")
	}
	if rate.GreaterThanOrEqual(hundred) {
		return ledgererr.Field(ledgererr.ErrInvalidRate, "rate", rate.String(), "interest rate must be less than 100")
	}
	if !rate.Equal(rate.Truncate(2)) {
		return ledgererr.Field(ledgererr.ErrInvalidRate, "rate", rate.String(), "interest rate cannot have more than 2 decimal places")
	}
	return nil
}
