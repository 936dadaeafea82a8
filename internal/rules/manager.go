// Package rules manages the effective-dated interest rate table.
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/input"
	"github.com/cleared-dev/accrual/internal/model"
	"github.com/cleared-dev/accrual/internal/store"
)

// Request holds the fields of a rate-change definition.
type Request struct {
	EffectiveDate time.Time
	RuleID        string
	Rate          decimal.Decimal
}

// Manager validates and records interest rules. At most one rule exists
// per effective date; defining a second one replaces the first.
type Manager struct {
	rules store.RuleStore
	log   zerolog.Logger
}

// NewManager creates a rule Manager.
func NewManager(rules store.RuleStore, log zerolog.Logger) *Manager {
	return &Manager{rules: rules, log: log}
}

// DefineLine parses "<YYYYMMDD> <ruleId> <rate>" and defines the rule.
func (m *Manager) DefineLine(ctx context.Context, line string) (model.InterestRule, error) {
	parts, err := input.Fields(line, 3)
	if err != nil {
		return model.InterestRule{}, err
	}
	date, err := input.ParseDate(parts[0])
	if err != nil {
		return model.InterestRule{}, err
	}
	rate, err := input.ParseRate(parts[2])
	if err != nil {
		return model.InterestRule{}, err
	}
	return m.Define(ctx, Request{EffectiveDate: date, RuleID: parts[1], Rate: rate})
}

// Define validates req, removes any rule already effective on the same
// date and stores the new rule with its rate rounded to 2 decimals.
func (m *Manager) Define(ctx context.Context, req Request) (model.InterestRule, error) {
	rule, err := model.NewInterestRule(req.EffectiveDate, req.RuleID, req.Rate)
	if err != nil {
		m.log.Debug().Err(err).Str("rule_id", req.RuleID).Msg("interest rule rejected")
		return model.InterestRule{}, err
	}

	if err := m.removeSameDate(ctx, rule.EffectiveDate); err != nil {
		return model.InterestRule{}, err
	}

	if _, err := m.rules.Save(ctx, rule); err != nil {
		return model.InterestRule{}, fmt.Errorf("saving interest rule %s: %w", rule.RuleID, err)
	}

	m.log.Info().
		Str("rule_id", rule.RuleID).
		Str("effective", rule.EffectiveDate.Format(model.DateFormat)).
		Str("rate", rule.Rate.StringFixed(2)).
		Msg("interest rule defined")
	return rule, nil
}

// removeSameDate deletes every rule effective on date. The invariant
// allows at most one, but all rules are scanned.
func (m *Manager) removeSameDate(ctx context.Context, date time.Time) error {
	all, err := m.rules.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("reading interest rules: %w", err)
	}
	for _, r := range all {
		if !r.EffectiveDate.Equal(date) {
			continue
		}
		if _, err := m.rules.DeleteByID(ctx, r.RuleID); err != nil {
			return fmt.Errorf("replacing interest rule %s: %w", r.RuleID, err)
		}
		m.log.Debug().Str("rule_id", r.RuleID).Msg("interest rule replaced")
	}
	return nil
}

// All returns every rule ordered by effective date.
func (m *Manager) All(ctx context.Context) ([]model.InterestRule, error) {
	all, err := m.rules.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading interest rules: %w", err)
	}
	return all, nil
}

// ApplicableRuleFor returns the rule in force on date: the one with the
// latest effective date not after date.
func (m *Manager) ApplicableRuleFor(ctx context.Context, date time.Time) (model.InterestRule, bool, error) {
	r, ok, err := m.rules.FindMostRecentAtOrBefore(ctx, model.Day(date))
	if err != nil {
		return model.InterestRule{}, false, fmt.Errorf("finding interest rule for %s: %w", date.Format(model.DateFormat), err)
	}
	return r, ok, nil
}

// Between returns the rules whose effective date falls strictly after
// start and on or before end, ordered by effective date.
func (m *Manager) Between(ctx context.Context, start, end time.Time) ([]model.InterestRule, error) {
	all, err := m.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.InterestRule
	for _, r := range all {
		if r.EffectiveDate.After(start) && !r.EffectiveDate.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}
