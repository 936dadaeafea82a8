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

// Accounts is a store.AccountStore over the accounts table.
type Accounts struct {
	pool *pgxpool.Pool
}

func (s *Accounts) Save(ctx context.Context, acct model.Account) (model.Account, error) {
	if strings.TrimSpace(acct.Number) == "" {
		return model.Account{}, ledgererr.Field(ledgererr.ErrInvalidAccount, "account", acct.Number, "account number cannot be empty")
	}
	query := `
		INSERT INTO accounts (account_number, balance, created_date)
		VALUES ($1, $2::numeric, $3)
		ON CONFLICT (account_number) DO UPDATE SET
			balance = EXCLUDED.balance,
			created_date = EXCLUDED.created_date`
	if _, err := s.pool.Exec(ctx, query, acct.Number, acct.Balance.StringFixed(2), model.Day(acct.CreatedDate)); err != nil {
		return model.Account{}, fmt.Errorf("saving account %s: %w", acct.Number, err)
	}
	return acct, nil
}

func (s *Accounts) FindByNumber(ctx context.Context, number string) (model.Account, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT account_number, balance::text, created_date
		FROM accounts WHERE account_number = $1`, number)
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, false, nil
	}
	if err != nil {
		return model.Account{}, false, fmt.Errorf("finding account %s: %w", number, err)
	}
	return acct, true, nil
}

func (s *Accounts) All(ctx context.Context) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT account_number, balance::text, created_date
		FROM accounts ORDER BY account_number`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func (s *Accounts) DeleteByNumber(ctx context.Context, number string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE account_number = $1`, number)
	if err != nil {
		return false, fmt.Errorf("deleting account %s: %w", number, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		acct    model.Account
		balance string
		created time.Time
	)
	if err := row.Scan(&acct.Number, &balance, &created); err != nil {
		return model.Account{}, err
	}
	b, err := parseNumeric("balance", balance)
	if err != nil {
		return model.Account{}, err
	}
	acct.Balance = b
	acct.CreatedDate = utcDate(created)
	return acct, nil
}
