// Package transactions validates and records deposits and withdrawals.
package transactions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/accrual/internal/accounts"
	"github.com/cleared-dev/accrual/internal/clock"
	"github.com/cleared-dev/accrual/internal/id"
	"github.com/cleared-dev/accrual/internal/input"
	"github.com/cleared-dev/accrual/internal/keylock"
	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/model"
	"github.com/cleared-dev/accrual/internal/store"
)

// Processor records new transactions.
//
// Ids are "<YYYYMMDD>-<NN>" where NN counts the transactions already dated
// that day across all accounts. seqMu keeps the count and the write that
// consumes it together; locks serializes work on one account with the
// statement engine.
type Processor struct {
	txns     store.TransactionStore
	accounts *accounts.Service
	clock    clock.Clock
	locks    *keylock.Map
	log      zerolog.Logger

	seqMu sync.Mutex
}

// NewProcessor creates a transaction Processor. locks must be shared with
// the statement engine.
func NewProcessor(txns store.TransactionStore, accts *accounts.Service, clk clock.Clock, locks *keylock.Map, log zerolog.Logger) *Processor {
	return &Processor{txns: txns, accounts: accts, clock: clk, locks: locks, log: log}
}

// SubmitLine parses "<YYYYMMDD> <account> <D|W> <amount>" and submits it.
func (p *Processor) SubmitLine(ctx context.Context, line string) (model.Transaction, error) {
	parts, err := input.Fields(line, 4)
	if err != nil {
		return model.Transaction{}, err
	}
	date, err := input.ParseDate(parts[0])
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := input.ParseAmount(parts[3])
	if err != nil {
		return model.Transaction{}, err
	}
	return p.Submit(ctx, Request{Date: date, Account: parts[1], TypeCode: parts[2], Amount: amount})
}

// Submit validates req, assigns the next id for its date, stores the
// transaction with its post-transaction balance and updates the account.
func (p *Processor) Submit(ctx context.Context, req Request) (model.Transaction, error) {
	typ, err := ValidateRequest(req, clock.Today(p.clock))
	if err != nil {
		p.log.Debug().Err(err).Str("account", req.Account).Msg("transaction rejected")
		return model.Transaction{}, err
	}

	unlock := p.locks.Lock(req.Account)
	defer unlock()
	p.seqMu.Lock()
	defer p.seqMu.Unlock()

	amount := model.RoundAmount(req.Amount)

	count, err := p.accounts.TransactionCount(ctx, req.Account)
	if err != nil {
		return model.Transaction{}, err
	}
	balance, err := p.accounts.CurrentBalance(ctx, req.Account)
	if err != nil {
		return model.Transaction{}, err
	}
	if err := checkAccountRules(req.Account, typ, amount, count, balance); err != nil {
		p.log.Debug().Err(err).Str("account", req.Account).Msg("transaction rejected")
		return model.Transaction{}, err
	}

	seq, err := p.NextSequence(ctx, req.Date)
	if err != nil {
		return model.Transaction{}, err
	}
	txnID := id.FormatTransactionID(req.Date, seq)

	txn, err := model.NewTransaction(txnID, req.Date, req.Account, typ, amount, typ.Apply(balance, amount))
	if err != nil {
		return model.Transaction{}, err
	}

	outcome, cause := p.persist(ctx, txn)
	switch outcome {
	case OutcomeSuccess:
	case OutcomeFailed:
		p.log.Error().Err(cause).Str("txn_id", txnID).Msg("transaction not recorded")
		return model.Transaction{}, fmt.Errorf("%w: %w", ledgererr.ErrPersistence, cause)
	default:
		p.log.Error().Err(cause).Str("txn_id", txnID).Bool("rollback_failed", true).Msg("transaction not recorded")
		return model.Transaction{}, fmt.Errorf("%w: %w", ledgererr.ErrRollbackFailed, cause)
	}

	p.log.Info().
		Str("txn_id", txn.ID).
		Str("account", txn.AccountNumber).
		Str("type", txn.Type.Name()).
		Str("amount", txn.Amount.StringFixed(2)).
		Msg("transaction recorded")
	return txn, nil
}

// NextSequence returns the day-sequence number the next transaction dated
// on date would get. Numbers whose id is already stored are skipped, since
// saving under an existing id would overwrite that entry.
func (p *Processor) NextSequence(ctx context.Context, date time.Time) (int, error) {
	sameDay, err := p.txns.FindByDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("reading transactions for %s: %w", date.Format(model.DateFormat), err)
	}
	seq := len(sameDay) + 1
	for {
		_, taken, err := p.txns.FindByID(ctx, id.FormatTransactionID(date, seq))
		if err != nil {
			return 0, fmt.Errorf("checking transaction id: %w", err)
		}
		if !taken {
			return seq, nil
		}
		seq++
	}
}

// History returns every transaction of account ordered by date then id.
func (p *Processor) History(ctx context.Context, account string) ([]model.Transaction, error) {
	txns, err := p.txns.FindByAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("reading transactions for %s: %w", account, err)
	}
	return txns, nil
}
