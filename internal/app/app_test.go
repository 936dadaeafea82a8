package app

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/accrual/internal/auditlog"
	"github.com/cleared-dev/accrual/internal/clock"
	"github.com/cleared-dev/accrual/internal/config"
	"github.com/cleared-dev/accrual/internal/gitops"
	"github.com/cleared-dev/accrual/internal/rules"
	"github.com/cleared-dev/accrual/internal/transactions"
)

var today = clock.Fixed(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))

func csvConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.ResolvePaths(t.TempDir())
	return cfg
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "sqlite"
	_, err := Build(context.Background(), cfg, today, zerolog.Nop())
	assert.Error(t, err)
}

func TestBuild_CSVPersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	cfg := csvConfig(t)

	a, err := Build(ctx, cfg, today, zerolog.Nop())
	require.NoError(t, err)
	txn, err := a.Processor.Submit(ctx, transactions.Request{
		Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Account: "ACC1", TypeCode: "D", Amount: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)
	require.NoError(t, a.Record(auditlog.ActionTransaction, "ACC1", "DEPOSIT", txn.ID))
	_, err = a.Rules.Define(ctx, rules.Request{
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), RuleID: "R1", Rate: decimal.RequireFromString("3.65"),
	})
	require.NoError(t, err)
	require.NoError(t, a.Flush(ctx))
	a.Close()

	b, err := Build(ctx, cfg, today, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	st, err := b.Statements.Generate(ctx, "ACC1", 2025, 1)
	require.NoError(t, err)
	require.NotNil(t, st.Interest)
	assert.Equal(t, "310.00", st.Interest.Amount.StringFixed(2))

	entries, err := auditlog.Read(cfg.Audit.Path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, txn.ID, entries[0].Ref)
}

func TestFlush_NoChanges(t *testing.T) {
	ctx := context.Background()
	cfg := csvConfig(t)

	a, err := Build(ctx, cfg, today, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Flush(ctx))
	assert.NoFileExists(t, filepath.Join(cfg.Storage.Dir, "transactions.csv"))
}

func TestBuild_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	cfg.Audit.Enabled = false

	a, err := Build(ctx, cfg, today, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Record(auditlog.ActionRule, "", "", "R1"))
	require.NoError(t, a.Flush(ctx))
	assert.NotNil(t, a.Importers.Get("ledger"))
}

func TestCommit_RecordsLedgerFiles(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available, skipping")
	}
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, gitops.Init(ctx, root))
	cfg := config.Default()
	cfg.ResolvePaths(root)

	a, err := Build(ctx, cfg, today, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	hash, err := a.Commit(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, hash, "no changes recorded yet")

	txn, err := a.Processor.Submit(ctx, transactions.Request{
		Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Account: "ACC1", TypeCode: "D", Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	require.NoError(t, a.Record(auditlog.ActionTransaction, "ACC1", "DEPOSIT", txn.ID))
	require.NoError(t, a.Flush(ctx))

	hash, err = a.Commit(ctx, root)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	out, err := exec.Command("git", "-C", root, "log", "-1", "--format=%s").Output()
	require.NoError(t, err)
	assert.Equal(t, auditlog.ActionTransaction+" ACC1 "+txn.ID, strings.TrimSpace(string(out)))
}

func TestCommitMessage(t *testing.T) {
	assert.Equal(t, "rule R1", commitMessage([]string{"rule R1"}))
	assert.Equal(t, "rule R1 (+1 more)\n\nrule R1\nrule R2", commitMessage([]string{"rule R1", "rule R2"}))
	assert.Equal(t, "import ledger.csv", summarize("import", "", "ledger.csv"))
}
