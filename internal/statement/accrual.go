package statement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/model"
)

// Segment is a run of days within a statement month under one rule.
type Segment struct {
	Start time.Time
	End   time.Time
	Rule  model.InterestRule
}

// Days returns the number of calendar days in the segment.
func (s Segment) Days() int {
	return int(s.End.Sub(s.Start).Hours()/24) + 1
}

// DayBalance is the principal balance at the end of one day.
type DayBalance struct {
	Date    time.Time
	Balance decimal.Decimal
}

// Segments splits [start, end] at each rule change. The first segment
// uses the rule in force on start; every rule effective after start and
// no later than end opens a new segment. When no rule is in force on
// start the month accrues nothing and no segments are returned.
func (e *Engine) Segments(ctx context.Context, start, end time.Time) ([]Segment, error) {
	first, ok, err := e.rules.ApplicableRuleFor(ctx, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	changes, err := e.rules.Between(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading rule changes: %w", err)
	}

	segments := make([]Segment, 0, len(changes)+1)
	cur := Segment{Start: start, Rule: first}
	for _, r := range changes {
		cur.End = r.EffectiveDate.AddDate(0, 0, -1)
		segments = append(segments, cur)
		cur = Segment{Start: r.EffectiveDate, Rule: r}
	}
	cur.End = end
	return append(segments, cur), nil
}

// HistoricalBalance replays txns in date-then-id order from zero.
func HistoricalBalance(txns []model.Transaction) decimal.Decimal {
	bal := decimal.Zero
	for _, t := range txns {
		bal = t.Type.Apply(bal, t.Amount)
	}
	return bal
}

// DailyBalances returns the closing principal of every day in
// [start, end]. txns must be ordered by date; interest entries are
// skipped so interest never earns interest.
func DailyBalances(txns []model.Transaction, start, end time.Time) []DayBalance {
	var out []DayBalance
	bal := decimal.Zero
	i := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for ; i < len(txns) && !txns[i].Date.After(day); i++ {
			if txns[i].Type == model.TypeInterest {
				continue
			}
			bal = txns[i].Type.Apply(bal, txns[i].Amount)
		}
		out = append(out, DayBalance{Date: day, Balance: bal})
	}
	return out
}

// Accrue sums daily interest across segments. Each day contributes
// balance * rate / 100 / dayCount rounded to 10 places; the total is
// rounded to 2 places. Balances and rates carry at most 2 places, so
// balance * rate / 100 is exact and needs no rounding of its own.
func Accrue(segments []Segment, daily []DayBalance, dayCount int64) decimal.Decimal {
	denom := decimal.NewFromInt(100 * dayCount)
	total := decimal.Zero
	for _, seg := range segments {
		for _, d := range daily {
			if d.Date.Before(seg.Start) || d.Date.After(seg.End) {
				continue
			}
			total = total.Add(d.Balance.Mul(seg.Rule.Rate).DivRound(denom, 10))
		}
	}
	return total.Round(2)
}
