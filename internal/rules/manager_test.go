package rules

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/store"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newManager() *Manager {
	return NewManager(store.NewMemoryRules(), zerolog.Nop())
}

func TestDefine(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	r, err := m.Define(ctx, Request{EffectiveDate: date(2025, 1, 1), RuleID: "RULE01", Rate: dec("1.95")})
	require.NoError(t, err)
	assert.Equal(t, "1.95", r.Rate.StringFixed(2))

	all, err := m.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "RULE01", all[0].RuleID)
}

func TestDefine_SameDateOverrides(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	_, err := m.Define(ctx, Request{EffectiveDate: date(2025, 1, 1), RuleID: "R1", Rate: dec("3")})
	require.NoError(t, err)
	_, err = m.Define(ctx, Request{EffectiveDate: date(2025, 1, 1), RuleID: "R2", Rate: dec("5")})
	require.NoError(t, err)

	all, err := m.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "R2", all[0].RuleID)
	assert.Equal(t, "5.00", all[0].Rate.StringFixed(2))

	// Last write wins by insertion order, even with a lower rate.
	_, err = m.Define(ctx, Request{EffectiveDate: date(2025, 1, 1), RuleID: "R3", Rate: dec("1")})
	require.NoError(t, err)
	active, ok, err := m.ApplicableRuleFor(ctx, date(2025, 1, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "R3", active.RuleID)
}

func TestDefine_Invalid(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"zero rate", Request{EffectiveDate: date(2025, 1, 1), RuleID: "R", Rate: dec("0")}, ledgererr.ErrInvalidRate},
		{"negative rate", Request{EffectiveDate: date(2025, 1, 1), RuleID: "R", Rate: dec("-2")}, ledgererr.ErrInvalidRate},
		{"hundred", Request{EffectiveDate: date(2025, 1, 1), RuleID: "R", Rate: dec("100")}, ledgererr.ErrInvalidRate},
		{"three decimals", Request{EffectiveDate: date(2025, 1, 1), RuleID: "R", Rate: dec("2.125")}, ledgererr.ErrInvalidRate},
		{"missing id", Request{EffectiveDate: date(2025, 1, 1), RuleID: "", Rate: dec("2")}, ledgererr.ErrInvalidRuleID},
		{"missing date", Request{RuleID: "R", Rate: dec("2")}, ledgererr.ErrInvalidDate},
	}
	for _, tt := range tests {
		m := newManager()
		_, err := m.Define(ctx, tt.req)
		assert.ErrorIs(t, err, tt.want, tt.name)
		all, _ := m.All(ctx)
		assert.Empty(t, all, tt.name)
	}
}

func TestApplicableRuleFor(t *testing.T) {
	ctx := context.Background()
	m := newManager()
	for _, req := range []Request{
		{EffectiveDate: date(2025, 1, 1), RuleID: "RULE01", Rate: dec("1.95")},
		{EffectiveDate: date(2025, 5, 20), RuleID: "RULE02", Rate: dec("1.90")},
		{EffectiveDate: date(2025, 6, 15), RuleID: "RULE03", Rate: dec("2.20")},
	} {
		_, err := m.Define(ctx, req)
		require.NoError(t, err)
	}

	_, ok, err := m.ApplicableRuleFor(ctx, date(2024, 12, 31))
	require.NoError(t, err)
	assert.False(t, ok)

	r, ok, err := m.ApplicableRuleFor(ctx, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "RULE02", r.RuleID)

	between, err := m.Between(ctx, date(2025, 6, 1), date(2025, 6, 30))
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, "RULE03", between[0].RuleID)

	between, err = m.Between(ctx, date(2025, 5, 20), date(2025, 5, 31))
	require.NoError(t, err)
	assert.Empty(t, between, "a rule effective on the start day is not inside the range")
}

func TestDefineLine(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	r, err := m.DefineLine(ctx, "20250520 RULE02 1.90")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 5, 20), r.EffectiveDate)
	assert.Equal(t, "1.90", r.Rate.StringFixed(2))

	_, err = m.DefineLine(ctx, "20250520 RULE02")
	assert.ErrorIs(t, err, ledgererr.ErrInvalidInput)
	_, err = m.DefineLine(ctx, "20250520 RULE02 abc")
	assert.ErrorIs(t, err, ledgererr.ErrInvalidRate)
}
