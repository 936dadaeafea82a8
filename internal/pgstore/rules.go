package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/model"
)

const ruleColumns = `effective_date, rule_id, rate::text`

// Rules is a store.RuleStore over the interest_rules table.
type Rules struct {
	pool *pgxpool.Pool
}

func (s *Rules) Save(ctx context.Context, rule model.InterestRule) (model.InterestRule, error) {
	if strings.TrimSpace(rule.RuleID) == "" {
		return model.InterestRule{}, ledgererr.Field(ledgererr.ErrInvalidRuleID, "rule_id", rule.RuleID, "rule id cannot be empty")
	}
	rule.EffectiveDate = model.Day(rule.EffectiveDate)
	query := `
		INSERT INTO interest_rules (rule_id, effective_date, rate)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (rule_id) DO UPDATE SET
			effective_date = EXCLUDED.effective_date,
			rate = EXCLUDED.rate`
	if _, err := s.pool.Exec(ctx, query, rule.RuleID, rule.EffectiveDate, rule.Rate.StringFixed(2)); err != nil {
		return model.InterestRule{}, fmt.Errorf("saving interest rule %s: %w", rule.RuleID, err)
	}
	return rule, nil
}

func (s *Rules) FindByID(ctx context.Context, ruleID string) (model.InterestRule, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM interest_rules WHERE rule_id = $1`, ruleID)
	return s.one(row, ruleID)
}

func (s *Rules) FindAll(ctx context.Context) ([]model.InterestRule, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+ruleColumns+` FROM interest_rules ORDER BY effective_date, rule_id`)
	if err != nil {
		return nil, fmt.Errorf("querying interest rules: %w", err)
	}
	defer rows.Close()

	var out []model.InterestRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Rules) FindMostRecentAtOrBefore(ctx context.Context, date time.Time) (model.InterestRule, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM interest_rules
		WHERE effective_date <= $1 ORDER BY effective_date DESC LIMIT 1`, model.Day(date))
	return s.one(row, date.Format(model.DateFormat))
}

func (s *Rules) DeleteByID(ctx context.Context, ruleID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM interest_rules WHERE rule_id = $1`, ruleID)
	if err != nil {
		return false, fmt.Errorf("deleting interest rule %s: %w", ruleID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Rules) one(row pgx.Row, key string) (model.InterestRule, bool, error) {
	r, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.InterestRule{}, false, nil
	}
	if err != nil {
		return model.InterestRule{}, false, fmt.Errorf("finding interest rule %s: %w", key, err)
	}
	return r, true, nil
}

func scanRule(row pgx.Row) (model.InterestRule, error) {
	var (
		r    model.InterestRule
		date time.Time
		rate string
	)
	if err := row.Scan(&date, &r.RuleID, &rate); err != nil {
		return model.InterestRule{}, err
	}
	d, err := parseNumeric("rate", rate)
	if err != nil {
		return model.InterestRule{}, err
	}
	r.EffectiveDate = utcDate(date)
	r.Rate = d
	return r, nil
}
