// Package app wires the ledger services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/accrual/internal/accounts"
	"github.com/cleared-dev/accrual/internal/auditlog"
	"github.com/cleared-dev/accrual/internal/clock"
	"github.com/cleared-dev/accrual/internal/config"
	"github.com/cleared-dev/accrual/internal/csvstore"
	"github.com/cleared-dev/accrual/internal/gitops"
	"github.com/cleared-dev/accrual/internal/importer"
	"github.com/cleared-dev/accrual/internal/keylock"
	"github.com/cleared-dev/accrual/internal/pgstore"
	"github.com/cleared-dev/accrual/internal/rules"
	"github.com/cleared-dev/accrual/internal/statement"
	"github.com/cleared-dev/accrual/internal/store"
	"github.com/cleared-dev/accrual/internal/transactions"
)

// App holds the constructed services for one process.
type App struct {
	Config     *config.Config
	Clock      clock.Clock
	Accounts   *accounts.Service
	Processor  *transactions.Processor
	Rules      *rules.Manager
	Statements *statement.Engine
	Importers  *importer.Registry

	log     zerolog.Logger
	csv     *csvstore.Store
	pg      *pgstore.Store
	dirty   bool
	changes []string
}

type stores struct {
	txns  store.TransactionStore
	accts store.AccountStore
	rules store.RuleStore
}

// Build opens the configured backend and constructs the services in
// dependency order.
func Build(ctx context.Context, cfg *config.Config, clk clock.Clock, log zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	a := &App{Config: cfg, Clock: clk, log: log}

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	locks := &keylock.Map{}
	a.Accounts = accounts.NewService(st.accts, st.txns, clk, log.With().Str("component", "accounts").Logger())
	a.Processor = transactions.NewProcessor(st.txns, a.Accounts, clk, locks, log.With().Str("component", "transactions").Logger())
	a.Rules = rules.NewManager(st.rules, log.With().Str("component", "rules").Logger())
	a.Statements = statement.NewEngine(st.txns, a.Rules, a.Accounts, clk, locks,
		log.With().Str("component", "statement").Logger(),
		statement.WithDayCount(cfg.Interest.DayCount))
	a.Importers = importer.DefaultRegistry()
	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	switch a.Config.Storage.Backend {
	case config.BackendCSV:
		s, err := csvstore.Open(ctx, a.Config.Storage.Dir)
		if err != nil {
			return stores{}, fmt.Errorf("opening csv store: %w", err)
		}
		a.csv = s
		return stores{txns: s.Transactions, accts: s.Accounts, rules: s.Rules}, nil
	case config.BackendPostgres:
		s, err := pgstore.Connect(ctx, a.Config.Storage.PostgresURL, a.log)
		if err != nil {
			return stores{}, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return stores{}, err
		}
		a.pg = s
		return stores{txns: s.Transactions(), accts: s.Accounts(), rules: s.Rules()}, nil
	default:
		return stores{
			txns:  store.NewMemoryTransactions(),
			accts: store.NewMemoryAccounts(),
			rules: store.NewMemoryRules(),
		}, nil
	}
}

// Record appends an audit entry when auditing is enabled and marks the
// ledger as changed.
func (a *App) Record(action, account, details, ref string) error {
	a.dirty = true
	a.changes = append(a.changes, summarize(action, account, ref))
	if !a.Config.Audit.Enabled {
		return nil
	}
	e := auditlog.NewEntry(a.Clock.Now(), action, account, details, ref)
	if err := auditlog.Append(a.Config.Audit.Path, []auditlog.Entry{e}); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// Flush writes the csv snapshot if anything changed. Other backends
// persist on every write.
func (a *App) Flush(ctx context.Context) error {
	if a.csv == nil || !a.dirty {
		return nil
	}
	if err := a.csv.Save(ctx); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	a.dirty = false
	a.log.Debug().Str("dir", a.csv.Dir()).Msg("ledger saved")
	return nil
}

// Commit records the ledger files in git when auto-commit is on and root is
// a repository. Returns the short hash, or "" when nothing was committed.
func (a *App) Commit(ctx context.Context, root string) (string, error) {
	if !a.Config.Git.AutoCommit || len(a.changes) == 0 || !gitops.IsRepo(root) {
		return "", nil
	}
	paths := a.trackedPaths(root)
	if len(paths) == 0 {
		return "", nil
	}
	author := gitops.Author{Name: a.Config.Git.AuthorName, Email: a.Config.Git.AuthorEmail}
	hash, err := gitops.Commit(ctx, root, commitMessage(a.changes), author, paths...)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		a.changes = nil
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("committing ledger: %w", err)
	}
	a.changes = nil
	a.log.Debug().Str("commit", hash).Msg("ledger committed")
	return hash, nil
}

// trackedPaths lists the ledger files under root, relative to it.
func (a *App) trackedPaths(root string) []string {
	var candidates []string
	if a.csv != nil {
		candidates = append(candidates, a.csv.Dir())
	}
	if a.Config.Audit.Enabled {
		candidates = append(candidates, a.Config.Audit.Path)
	}
	var paths []string
	for _, p := range candidates {
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		paths = append(paths, rel)
	}
	return paths
}

func summarize(action, account, ref string) string {
	parts := []string{action}
	if account != "" {
		parts = append(parts, account)
	}
	if ref != "" {
		parts = append(parts, ref)
	}
	return strings.Join(parts, " ")
}

func commitMessage(changes []string) string {
	if len(changes) == 1 {
		return changes[0]
	}
	return fmt.Sprintf("%s (+%d more)\n\n%s", changes[0], len(changes)-1, strings.Join(changes, "\n"))
}

// Close releases backend resources.
func (a *App) Close() {
	if a.pg != nil {
		a.pg.Close()
	}
}
