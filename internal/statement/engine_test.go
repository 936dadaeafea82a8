package statement

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/accrual/internal/accounts"
	"github.com/cleared-dev/accrual/internal/clock"
	"github.com/cleared-dev/accrual/internal/id"
	"github.com/cleared-dev/accrual/internal/keylock"
	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/model"
	"github.com/cleared-dev/accrual/internal/rules"
	"github.com/cleared-dev/accrual/internal/store"
	"github.com/cleared-dev/accrual/internal/transactions"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	txns     *store.MemoryTransactions
	accounts *accounts.Service
	proc     *transactions.Processor
	rules    *rules.Manager
	engine   *Engine
}

func newFixture() *fixture {
	log := zerolog.Nop()
	clk := clock.Fixed(time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC))
	locks := &keylock.Map{}
	txns := store.NewMemoryTransactions()
	accts := accounts.NewService(store.NewMemoryAccounts(), txns, clk, log)
	rm := rules.NewManager(store.NewMemoryRules(), log)
	return &fixture{
		txns:     txns,
		accounts: accts,
		proc:     transactions.NewProcessor(txns, accts, clk, locks, log),
		rules:    rm,
		engine:   NewEngine(txns, rm, accts, clk, locks, log),
	}
}

func (f *fixture) submit(t *testing.T, d time.Time, account, code, amount string) {
	t.Helper()
	_, err := f.proc.Submit(context.Background(), transactions.Request{Date: d, Account: account, TypeCode: code, Amount: dec(amount)})
	require.NoError(t, err)
}

func (f *fixture) rule(t *testing.T, d time.Time, ruleID, rate string) {
	t.Helper()
	_, err := f.rules.Define(context.Background(), rules.Request{EffectiveDate: d, RuleID: ruleID, Rate: dec(rate)})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, account string) string {
	t.Helper()
	b, err := f.accounts.CurrentBalance(context.Background(), account)
	require.NoError(t, err)
	return b.StringFixed(2)
}

func TestGenerate_FullMonthSingleRule(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "100000.00")
	f.rule(t, date(2025, 1, 1), "R1", "3.65")

	st, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)

	require.NotNil(t, st.Interest)
	assert.Equal(t, "310.00", st.Interest.Amount.StringFixed(2))
	assert.Equal(t, "100310.00", st.Interest.Balance.StringFixed(2))
	assert.Equal(t, date(2025, 1, 31), st.Interest.Date)
	assert.Equal(t, model.TypeInterest, st.Interest.Type)
	assert.True(t, id.IsInterestID(st.Interest.ID))

	require.Len(t, st.Transactions, 2)
	assert.Equal(t, "20250101-01", st.Transactions[0].ID)
	assert.Equal(t, st.Interest.ID, st.Transactions[1].ID)
	assert.Equal(t, "202501", st.Period())
	assert.Equal(t, "100310.00", st.ClosingBalance.StringFixed(2))
	assert.Equal(t, "100310.00", st.CurrentBalance.StringFixed(2))
	assert.Equal(t, "100310.00", f.balance(t, "ACC1"))
}

func TestGenerate_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "100000.00")
	f.rule(t, date(2025, 1, 1), "R1", "3.65")

	first, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)
	second, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)

	require.NotNil(t, first.Interest)
	require.NotNil(t, second.Interest)
	assert.Equal(t, first.Interest.ID, second.Interest.ID)
	assert.True(t, first.Interest.Amount.Equal(second.Interest.Amount))
	assert.Equal(t, "100310.00", f.balance(t, "ACC1"))

	month, err := f.txns.FindByAccountAndRange(ctx, "ACC1", date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	interest := 0
	for _, txn := range month {
		if txn.Type == model.TypeInterest {
			interest++
		}
	}
	assert.Equal(t, 1, interest)
}

func TestGenerate_BackdatedTransactionUpdatesInterest(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "100000.00")
	f.rule(t, date(2025, 1, 1), "R1", "3.65")

	first, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)

	f.submit(t, date(2025, 1, 22), "ACC1", "W", "50000.00")
	second, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)

	// 21 days at 10.00 plus 10 days at 5.00.
	require.NotNil(t, second.Interest)
	assert.Equal(t, first.Interest.ID, second.Interest.ID)
	assert.Equal(t, "260.00", second.Interest.Amount.StringFixed(2))
	assert.Equal(t, "50260.00", second.Interest.Balance.StringFixed(2))
	assert.Equal(t, "50260.00", f.balance(t, "ACC1"))
}

func TestGenerate_MidMonthRuleChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "100000.00")
	f.rule(t, date(2025, 1, 1), "R1", "3.65")
	f.rule(t, date(2025, 1, 16), "R2", "7.30")

	st, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)

	require.Len(t, st.Segments, 2)
	assert.Equal(t, date(2025, 1, 15), st.Segments[0].End)
	assert.Equal(t, 15, st.Segments[0].Days())
	assert.Equal(t, "R2", st.Segments[1].Rule.RuleID)
	assert.Equal(t, 16, st.Segments[1].Days())

	// 15 days at 10.00 plus 16 days at 20.00.
	require.NotNil(t, st.Interest)
	assert.Equal(t, "470.00", st.Interest.Amount.StringFixed(2))
}

func TestGenerate_WithdrawalMidMonth(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "1000")
	f.submit(t, date(2025, 1, 11), "ACC1", "W", "500")
	f.rule(t, date(2024, 6, 1), "R1", "3.65")

	st, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)

	// 10 days at 0.10 plus 21 days at 0.05.
	require.NotNil(t, st.Interest)
	assert.Equal(t, "2.05", st.Interest.Amount.StringFixed(2))
	assert.Equal(t, "502.05", st.Interest.Balance.StringFixed(2))
}

func TestGenerate_NoRuleAtMonthStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "100000.00")
	f.rule(t, date(2025, 1, 16), "R1", "3.65")

	st, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)
	assert.Nil(t, st.Interest)
	assert.Empty(t, st.Segments)
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, "100000.00", f.balance(t, "ACC1"))
}

func TestGenerate_InterestDoesNotCompound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "100000.00")
	f.rule(t, date(2025, 1, 1), "R1", "3.65")

	_, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)
	feb, err := f.engine.Generate(ctx, "ACC1", 2025, 2)
	require.NoError(t, err)

	require.NotNil(t, feb.Interest)
	assert.Equal(t, "280.00", feb.Interest.Amount.StringFixed(2))
	assert.Equal(t, "100590.00", feb.Interest.Balance.StringFixed(2))
	assert.Empty(t, feb.Transactions[:len(feb.Transactions)-1])
	assert.Equal(t, "100590.00", f.balance(t, "ACC1"))
}

func TestGenerate_CurrentMonthRestatesBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 3, 1), "ACC1", "D", "100000.00")
	f.rule(t, date(2025, 3, 1), "R1", "3.65")

	st, err := f.engine.Generate(ctx, "ACC1", 2025, 3)
	require.NoError(t, err)
	require.NotNil(t, st.Interest)
	assert.Equal(t, "310.00", st.Interest.Amount.StringFixed(2))
	assert.Equal(t, "100310.00", f.balance(t, "ACC1"))
}

func TestGenerate_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.rule(t, date(2025, 1, 1), "R1", "3.65")

	st, err := f.engine.Generate(ctx, "NOPE", 2025, 3)
	require.NoError(t, err)
	assert.Nil(t, st.Interest)
	assert.Empty(t, st.Transactions)

	_, ok, err := f.accounts.Get(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerate_InvalidPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	tests := []struct {
		name        string
		year, month int
		want        error
	}{
		{"month 13", 2025, 13, ledgererr.ErrInvalidPeriod},
		{"month 0", 2025, 0, ledgererr.ErrInvalidPeriod},
		{"next month", 2025, 4, ledgererr.ErrFuturePeriod},
		{"next year", 2026, 1, ledgererr.ErrFuturePeriod},
	}
	for _, tt := range tests {
		_, err := f.engine.Generate(ctx, "ACC1", tt.year, tt.month)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}

	_, err := f.engine.Generate(ctx, "", 2025, 1)
	assert.ErrorIs(t, err, ledgererr.ErrInvalidAccount)
}

func TestValidatePeriod_CurrentMonthAllowed(t *testing.T) {
	f := newFixture()
	start, end, err := f.engine.ValidatePeriod(2025, 3)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 1), start)
	assert.Equal(t, date(2025, 3, 31), end)
}

// requireBalanceMatchesEntries checks that the stored balance equals the
// signed sum of every entry of account.
func (f *fixture) requireBalanceMatchesEntries(t *testing.T, account string) {
	t.Helper()
	all, err := f.txns.FindByAccount(context.Background(), account)
	require.NoError(t, err)
	require.Equal(t, HistoricalBalance(all).StringFixed(2), f.balance(t, account), "balance drifted from entries")
}

func TestGenerate_PastMonthRerunRemovesEveryInterestEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "1000.00")
	f.rule(t, date(2025, 1, 1), "R1", "3.65")

	first, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)
	require.NotNil(t, first.Interest)
	assert.Equal(t, "3.10", first.Interest.Amount.StringFixed(2))
	f.requireBalanceMatchesEntries(t, "ACC1")

	f.submit(t, date(2025, 1, 10), "ACC1", "I", "5.00")
	assert.Equal(t, "1008.10", f.balance(t, "ACC1"))
	f.requireBalanceMatchesEntries(t, "ACC1")

	for i := 0; i < 2; i++ {
		st, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
		require.NoError(t, err)
		require.NotNil(t, st.Interest)
		assert.Equal(t, first.Interest.ID, st.Interest.ID, "accrued id is kept")
		assert.Equal(t, "3.10", st.Interest.Amount.StringFixed(2))
		assert.Equal(t, "1003.10", f.balance(t, "ACC1"))
		f.requireBalanceMatchesEntries(t, "ACC1")
	}
}

func TestGenerate_DoesNotReuseSubmittedInterestID(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "1000.00")
	f.rule(t, date(2025, 1, 1), "R1", "3.65")
	f.submit(t, date(2025, 1, 5), "ACC1", "I", "5.00")

	st, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)
	require.NotNil(t, st.Interest)
	assert.NotEqual(t, "20250105-01", st.Interest.ID)
	assert.True(t, id.IsInterestID(st.Interest.ID))
	require.Len(t, st.Removed, 1)
	assert.Equal(t, "20250105-01", st.Removed[0].ID)

	f.submit(t, date(2025, 1, 5), "ACC1", "D", "1.00")
	_, ok, err := f.txns.FindByID(ctx, st.Interest.ID)
	require.NoError(t, err)
	assert.True(t, ok, "accrued interest survives a later submission")
	assert.Equal(t, "1004.10", f.balance(t, "ACC1"))
	f.requireBalanceMatchesEntries(t, "ACC1")
}

func TestGenerate_RemovesInterestWithoutAccruing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, date(2025, 1, 1), "ACC1", "D", "1000.00")
	f.submit(t, date(2025, 1, 10), "ACC1", "I", "5.00")

	st, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)
	assert.Nil(t, st.Interest)
	assert.True(t, st.Changed())
	require.Len(t, st.Removed, 1)
	assert.Equal(t, "1000.00", f.balance(t, "ACC1"))
	f.requireBalanceMatchesEntries(t, "ACC1")

	again, err := f.engine.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)
	assert.False(t, again.Changed())
}
