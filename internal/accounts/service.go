// Package accounts owns account balances. It is the only writer of
// model.Account.Balance.
package accounts

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/clock"
	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/model"
	"github.com/cleared-dev/accrual/internal/store"
)

// Service applies transaction effects to accounts.
type Service struct {
	accounts store.AccountStore
	txns     store.TransactionStore
	clock    clock.Clock
	log      zerolog.Logger
}

// NewService creates an account Service.
func NewService(accounts store.AccountStore, txns store.TransactionStore, clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{accounts: accounts, txns: txns, clock: clk, log: log}
}

// FindOrCreate returns the account, opening it with a zero balance if it
// does not exist yet.
func (s *Service) FindOrCreate(ctx context.Context, number string) (model.Account, error) {
	acct, ok, err := s.accounts.FindByNumber(ctx, number)
	if err != nil {
		return model.Account{}, fmt.Errorf("looking up account %s: %w", number, err)
	}
	if ok {
		return acct, nil
	}

	acct, err = model.NewAccount(number, s.clock.Now())
	if err != nil {
		return model.Account{}, err
	}
	if _, err := s.accounts.Save(ctx, acct); err != nil {
		return model.Account{}, fmt.Errorf("creating account %s: %w", number, err)
	}
	s.log.Info().Str("account", number).Msg("account opened")
	return acct, nil
}

// Get returns the account if it exists.
func (s *Service) Get(ctx context.Context, number string) (model.Account, bool, error) {
	return s.accounts.FindByNumber(ctx, number)
}

// All returns every account ordered by number.
func (s *Service) All(ctx context.Context) ([]model.Account, error) {
	return s.accounts.All(ctx)
}

// NextBalance returns the balance acct would have after txn, failing with
// ledgererr.ErrInsufficientFunds if a withdrawal would overdraw it.
func NextBalance(acct model.Account, txn model.Transaction) (decimal.Decimal, error) {
	next := txn.Type.Apply(acct.Balance, txn.Amount)
	if next.IsNegative() {
		return decimal.Zero, ledgererr.InsufficientFunds(acct.Number, acct.Balance, txn.Amount)
	}
	return next, nil
}

// ApplyTransaction credits or debits acct by txn and stores the result.
func (s *Service) ApplyTransaction(ctx context.Context, acct model.Account, txn model.Transaction) (model.Account, error) {
	next, err := NextBalance(acct, txn)
	if err != nil {
		return model.Account{}, err
	}
	acct.Balance = next
	if _, err := s.accounts.Save(ctx, acct); err != nil {
		return model.Account{}, fmt.Errorf("updating account %s: %w", acct.Number, err)
	}
	s.log.Debug().
		Str("account", acct.Number).
		Str("txn_id", txn.ID).
		Str("type", txn.Type.Name()).
		Str("balance", acct.Balance.StringFixed(2)).
		Msg("balance updated")
	return acct, nil
}

// Restate overwrites the stored balance of an account. The statement
// engine uses it after recomputing interest for the current month.
func (s *Service) Restate(ctx context.Context, number string, balance decimal.Decimal) (model.Account, error) {
	if balance.IsNegative() {
		return model.Account{}, ledgererr.Field(ledgererr.ErrInvalidAmount, "balance", balance.String(), "balance cannot be negative")
	}
	acct, err := s.FindOrCreate(ctx, number)
	if err != nil {
		return model.Account{}, err
	}
	acct.Balance = balance
	if _, err := s.accounts.Save(ctx, acct); err != nil {
		return model.Account{}, fmt.Errorf("updating account %s: %w", number, err)
	}
	s.log.Debug().Str("account", number).Str("balance", balance.StringFixed(2)).Msg("balance restated")
	return acct, nil
}

// TransactionCount returns how many transactions the account has.
func (s *Service) TransactionCount(ctx context.Context, number string) (int, error) {
	txns, err := s.txns.FindByAccount(ctx, number)
	if err != nil {
		return 0, fmt.Errorf("counting transactions for %s: %w", number, err)
	}
	return len(txns), nil
}

// CurrentBalance returns the stored balance, or zero for an unknown
// account. It never creates the account.
func (s *Service) CurrentBalance(ctx context.Context, number string) (decimal.Decimal, error) {
	acct, ok, err := s.accounts.FindByNumber(ctx, number)
	if err != nil {
		return decimal.Zero, fmt.Errorf("looking up account %s: %w", number, err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	return acct.Balance, nil
}
