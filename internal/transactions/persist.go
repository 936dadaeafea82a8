package transactions

import (
	"context"
	"fmt"

	"github.com/cleared-dev/accrual/internal/model"
)

// Outcome is the result of writing a transaction and its balance effect.
type Outcome int

const (
	// OutcomeSuccess means the transaction and the balance were both stored.
	OutcomeSuccess Outcome = iota
	// OutcomeFailed means nothing was left behind.
	OutcomeFailed
	// OutcomeFailedUnrecoverable means the write failed and the compensating
	// delete failed too; the store may hold an orphan transaction.
	OutcomeFailedUnrecoverable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeFailedUnrecoverable:
		return "failed-unrecoverable"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// persist saves txn and applies it to its account. On any failure it makes
// a single attempt to delete txn and reports whether that succeeded.
func (p *Processor) persist(ctx context.Context, txn model.Transaction) (Outcome, error) {
	_, err := p.txns.Save(ctx, txn)
	if err == nil {
		var acct model.Account
		acct, err = p.accounts.FindOrCreate(ctx, txn.AccountNumber)
		if err == nil {
			_, err = p.accounts.ApplyTransaction(ctx, acct, txn)
		}
		if err == nil {
			return OutcomeSuccess, nil
		}
	}

	if _, delErr := p.txns.DeleteByID(ctx, txn.ID); delErr != nil {
		return OutcomeFailedUnrecoverable, fmt.Errorf("%w (rollback: %v)", err, delErr)
	}
	return OutcomeFailed, err
}
