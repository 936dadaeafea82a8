// Package statement builds monthly account statements and keeps exactly
// one interest entry per account and month.
package statement

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/accounts"
	"github.com/cleared-dev/accrual/internal/clock"
	"github.com/cleared-dev/accrual/internal/id"
	"github.com/cleared-dev/accrual/internal/keylock"
	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/model"
	"github.com/cleared-dev/accrual/internal/rules"
	"github.com/cleared-dev/accrual/internal/store"
)

// DefaultDayCount is the annual denominator for daily interest. It stays
// 365 in leap years.
const DefaultDayCount = 365

// Statement is the result of generating one account month.
type Statement struct {
	Account string
	Start   time.Time
	End     time.Time

	// Transactions holds the month's entries ordered by date then id,
	// including the interest entry when one was accrued.
	Transactions []model.Transaction
	Interest     *model.Transaction
	Segments     []Segment

	// Removed holds the interest entries deleted before recomputing.
	Removed []model.Transaction

	// ClosingBalance is the replayed balance at End plus accrued interest.
	ClosingBalance decimal.Decimal
	CurrentBalance decimal.Decimal
}

// Period returns the statement month as YYYYMM.
func (s Statement) Period() string {
	return s.Start.Format("200601")
}

// Engine generates statements. It shares its lock map with the
// transaction processor so a statement never interleaves with a
// submission for the same account.
type Engine struct {
	txns     store.TransactionStore
	rules    *rules.Manager
	accounts *accounts.Service
	clock    clock.Clock
	locks    *keylock.Map
	log      zerolog.Logger

	dayCount int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithDayCount overrides the annual day-count denominator.
func WithDayCount(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.dayCount = int64(days)
		}
	}
}

// NewEngine creates a statement Engine.
func NewEngine(txns store.TransactionStore, rm *rules.Manager, accts *accounts.Service, clk clock.Clock, locks *keylock.Map, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		txns:     txns,
		rules:    rm,
		accounts: accts,
		clock:    clk,
		locks:    locks,
		log:      log,
		dayCount: DefaultDayCount,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidatePeriod checks year and month and returns the first and last day
// of the month. A month that starts after today is rejected.
func (e *Engine) ValidatePeriod(year, month int) (start, end time.Time, err error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, ledgererr.Field(ledgererr.ErrInvalidPeriod, "period",
			fmt.Sprintf("%04d%02d", year, month), "month must be between 01 and 12")
	}
	start, end = model.MonthBounds(year, time.Month(month))
	if start.After(clock.Today(e.clock)) {
		return time.Time{}, time.Time{}, ledgererr.Field(ledgererr.ErrFuturePeriod, "period", start.Format("200601"), "")
	}
	return start, end, nil
}

// Generate recomputes the interest for account in the given month,
// replaces any earlier interest entry for that month and returns the
// month's statement. Re-running it without new transactions yields the
// same interest id and amount.
func (e *Engine) Generate(ctx context.Context, account string, year, month int) (Statement, error) {
	if account == "" {
		return Statement{}, ledgererr.Field(ledgererr.ErrInvalidAccount, "account", account, "account number cannot be empty")
	}
	start, end, err := e.ValidatePeriod(year, month)
	if err != nil {
		return Statement{}, err
	}
	log := e.log.With().Str("account", account).Str("period", start.Format("200601")).Logger()

	unlock := e.locks.Lock(account)
	defer unlock()

	monthTxns, err := e.txns.FindByAccountAndRange(ctx, account, start, end)
	if err != nil {
		return Statement{}, fmt.Errorf("reading transactions for %s: %w", account, err)
	}

	prior, removed, entries, err := e.removeInterest(ctx, monthTxns, end)
	if err != nil {
		return Statement{}, err
	}

	history, err := e.txns.FindByAccountAndRange(ctx, account, model.MinDate, end)
	if err != nil {
		return Statement{}, fmt.Errorf("reading history for %s: %w", account, err)
	}
	closing := HistoricalBalance(history)

	segments, err := e.Segments(ctx, start, end)
	if err != nil {
		return Statement{}, err
	}
	daily := DailyBalances(history, start, end)
	interest := Accrue(segments, daily, e.dayCount)

	st := Statement{
		Account:        account,
		Start:          start,
		End:            end,
		Transactions:   entries,
		Segments:       segments,
		Removed:        removed,
		ClosingBalance: closing,
	}

	if interest.IsPositive() {
		txnID := id.NewInterestID(end)
		if prior != nil {
			txnID = prior.ID
		}
		entry, err := model.NewTransaction(txnID, end, account, model.TypeInterest, interest, closing.Add(interest))
		if err != nil {
			return Statement{}, err
		}
		if _, err := e.txns.Save(ctx, entry); err != nil {
			return Statement{}, fmt.Errorf("saving interest for %s: %w", account, err)
		}
		st.Interest = &entry
		st.ClosingBalance = entry.Balance
		st.Transactions = append(st.Transactions, entry)
		store.SortTransactions(st.Transactions)
		log.Info().Str("txn_id", entry.ID).Str("interest", interest.StringFixed(2)).Bool("replaced", prior != nil).Msg("interest accrued")
	} else {
		log.Debug().Msg("no interest accrued")
	}

	if err := e.syncBalance(ctx, account, start, st); err != nil {
		return Statement{}, err
	}

	current, err := e.accounts.CurrentBalance(ctx, account)
	if err != nil {
		return Statement{}, err
	}
	st.CurrentBalance = current
	return st, nil
}

// Changed reports whether generating the statement wrote or deleted an
// entry.
func (s Statement) Changed() bool {
	return s.Interest != nil || len(s.Removed) > 0
}

// removeInterest deletes the month's interest entries. It returns the
// entry whose id is reused, which is only ever an accrued entry dated
// end, along with the deleted entries and the remaining ones.
func (e *Engine) removeInterest(ctx context.Context, monthTxns []model.Transaction, end time.Time) (*model.Transaction, []model.Transaction, []model.Transaction, error) {
	var prior *model.Transaction
	var removed []model.Transaction
	entries := make([]model.Transaction, 0, len(monthTxns))
	for _, t := range monthTxns {
		if t.Type != model.TypeInterest {
			entries = append(entries, t)
			continue
		}
		if _, err := e.txns.DeleteByID(ctx, t.ID); err != nil {
			return nil, nil, nil, fmt.Errorf("removing interest %s: %w", t.ID, err)
		}
		removed = append(removed, t)
		if prior == nil && t.Date.Equal(end) && id.IsInterestID(t.ID) {
			found := t
			prior = &found
		}
	}
	return prior, removed, entries, nil
}

// syncBalance carries the recomputed interest into the account record.
// For the current month the balance is restated to the closing balance.
// For earlier months the new interest less everything removed is applied,
// so the account keeps matching the sum of its entries.
func (e *Engine) syncBalance(ctx context.Context, account string, start time.Time, st Statement) error {
	if !st.Changed() {
		return nil
	}
	if model.SameMonth(start, clock.Today(e.clock)) {
		_, err := e.accounts.Restate(ctx, account, st.ClosingBalance)
		return err
	}

	delta := decimal.Zero
	if st.Interest != nil {
		delta = st.Interest.Amount
	}
	for _, r := range st.Removed {
		delta = delta.Sub(r.Amount)
	}
	if delta.IsZero() {
		return nil
	}
	current, err := e.accounts.CurrentBalance(ctx, account)
	if err != nil {
		return err
	}
	_, err = e.accounts.Restate(ctx, account, current.Add(delta))
	return err
}
