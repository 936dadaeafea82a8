// Package store defines the persistence contracts for the ledger and an
// in-memory implementation of them.
//
// Reads always return copies; mutating a returned record never changes the
// stored one.
package store

import (
	"context"
	"time"

	"github.com/cleared-dev/accrual/internal/model"
)

// TransactionStore holds ledger transactions keyed by id.
type TransactionStore interface {
	// Save stores txn, replacing any record with the same id. It fails with
	// ledgererr.ErrDuplicateID only when txn.ID is blank.
	Save(ctx context.Context, txn model.Transaction) (model.Transaction, error)
	FindByID(ctx context.Context, id string) (model.Transaction, bool, error)
	// FindByAccount returns every transaction of account ordered by date then id.
	FindByAccount(ctx context.Context, account string) ([]model.Transaction, error)
	// FindByAccountAndRange returns transactions of account dated within
	// [start, end], ordered by date then id.
	FindByAccountAndRange(ctx context.Context, account string, start, end time.Time) ([]model.Transaction, error)
	// FindByDate returns every transaction dated on date across all accounts.
	FindByDate(ctx context.Context, date time.Time) ([]model.Transaction, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	All(ctx context.Context) ([]model.Transaction, error)
}

// AccountStore holds accounts keyed by account number.
type AccountStore interface {
	Save(ctx context.Context, acct model.Account) (model.Account, error)
	FindByNumber(ctx context.Context, number string) (model.Account, bool, error)
	All(ctx context.Context) ([]model.Account, error)
	DeleteByNumber(ctx context.Context, number string) (bool, error)
}

// RuleStore holds interest rules keyed by rule id.
type RuleStore interface {
	Save(ctx context.Context, rule model.InterestRule) (model.InterestRule, error)
	FindByID(ctx context.Context, ruleID string) (model.InterestRule, bool, error)
	// FindAll returns every rule ordered by effective date ascending.
	FindAll(ctx context.Context) ([]model.InterestRule, error)
	// FindMostRecentAtOrBefore returns the rule with the greatest effective
	// date not after date.
	FindMostRecentAtOrBefore(ctx context.Context, date time.Time) (model.InterestRule, bool, error)
	DeleteByID(ctx context.Context, ruleID string) (bool, error)
}
