// Package pgstore implements the ledger stores on PostgreSQL.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/store"
)

//go:embed schema.sql
var schema string

var (
	_ store.TransactionStore = (*Transactions)(nil)
	_ store.AccountStore     = (*Accounts)(nil)
	_ store.RuleStore        = (*Rules)(nil)
)

// Store holds the connection pool shared by the three table stores.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// Connect opens a pool for url and checks it with a ping.
func Connect(ctx context.Context, url string, log zerolog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	log.Debug().Str("host", cfg.ConnConfig.Host).Str("database", cfg.ConnConfig.Database).Msg("postgres connected")
	return &Store{pool: pool, log: log}, nil
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Transactions returns the transactions table store.
func (s *Store) Transactions() *Transactions { return &Transactions{pool: s.pool} }

// Accounts returns the accounts table store.
func (s *Store) Accounts() *Accounts { return &Accounts{pool: s.pool} }

// Rules returns the interest_rules table store.
func (s *Store) Rules() *Rules { return &Rules{pool: s.pool} }

// Numeric columns are selected as text and parsed here, so no precision
// is lost to float conversion.
func parseNumeric(column, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", column, s, err)
	}
	return d, nil
}

func utcDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
