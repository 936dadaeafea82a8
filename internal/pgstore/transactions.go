package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/model"
)

const txnColumns = `txn_id, txn_date, account_number, txn_type, amount::text, balance::text`

// Transactions is a store.TransactionStore over the transactions table.
type Transactions struct {
	pool *pgxpool.Pool
}

func (s *Transactions) Save(ctx context.Context, txn model.Transaction) (model.Transaction, error) {
	if strings.TrimSpace(txn.ID) == "" {
		return model.Transaction{}, ledgererr.ErrDuplicateID
	}
	txn.Date = model.Day(txn.Date)
	query := `
		INSERT INTO transactions (txn_id, txn_date, account_number, txn_type, amount, balance)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric)
		ON CONFLICT (txn_id) DO UPDATE SET
			txn_date = EXCLUDED.txn_date,
			account_number = EXCLUDED.account_number,
			txn_type = EXCLUDED.txn_type,
			amount = EXCLUDED.amount,
			balance = EXCLUDED.balance`
	_, err := s.pool.Exec(ctx, query,
		txn.ID, txn.Date, txn.AccountNumber, string(txn.Type),
		txn.Amount.StringFixed(2), txn.Balance.StringFixed(2))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("saving transaction %s: %w", txn.ID, err)
	}
	return txn, nil
}

func (s *Transactions) FindByID(ctx context.Context, id string) (model.Transaction, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE txn_id = $1`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Transaction{}, false, nil
	}
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("finding transaction %s: %w", id, err)
	}
	return txn, true, nil
}

func (s *Transactions) FindByAccount(ctx context.Context, account string) ([]model.Transaction, error) {
	return s.query(ctx, `SELECT `+txnColumns+` FROM transactions
		WHERE account_number = $1 ORDER BY txn_date, txn_id`, account)
}

func (s *Transactions) FindByAccountAndRange(ctx context.Context, account string, start, end time.Time) ([]model.Transaction, error) {
	return s.query(ctx, `SELECT `+txnColumns+` FROM transactions
		WHERE account_number = $1 AND txn_date BETWEEN $2 AND $3
		ORDER BY txn_date, txn_id`, account, model.Day(start), model.Day(end))
}

func (s *Transactions) FindByDate(ctx context.Context, date time.Time) ([]model.Transaction, error) {
	return s.query(ctx, `SELECT `+txnColumns+` FROM transactions
		WHERE txn_date = $1 ORDER BY txn_id`, model.Day(date))
}

func (s *Transactions) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE txn_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting transaction %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Transactions) All(ctx context.Context) ([]model.Transaction, error) {
	return s.query(ctx, `SELECT `+txnColumns+` FROM transactions ORDER BY txn_date, txn_id`)
}

func (s *Transactions) query(ctx context.Context, sql string, args ...any) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (model.Transaction, error) {
	var (
		txn             model.Transaction
		date            time.Time
		typ             string
		amount, balance string
	)
	if err := row.Scan(&txn.ID, &date, &txn.AccountNumber, &typ, &amount, &balance); err != nil {
		return model.Transaction{}, err
	}
	txn.Date = utcDate(date)
	txn.Type = model.TransactionType(typ)

	var err error
	if txn.Amount, err = parseNumeric("amount", amount); err != nil {
		return model.Transaction{}, err
	}
	if txn.Balance, err = parseNumeric("balance", balance); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}
