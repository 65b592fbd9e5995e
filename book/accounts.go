package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

// AddAccount creates an account.
func (b *Book) AddAccount(ctx context.Context, a budget.Account) (budget.Account, error) {
	a, err := a.Validate()
	if err != nil {
		return a, err
	}
	stamp := b.stamp()
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO accounts (name, type, institution, created_at) VALUES (?, ?, ?, ?)`,
		a.Name, a.Type, a.Institution, stamp)
	if err != nil {
		return a, fmt.Errorf("cannot add account %q: %w", a.Name, err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return a, fmt.Errorf("cannot add account %q: %w", a.Name, err)
	}
	a.CreatedAt, _ = parseStamp(stamp)
	b.log.Info().Int64("account", a.ID).Str("name", a.Name).Msg("account added")
	return a, nil
}

const accountColumns = `id, name, type, institution, created_at`

func scanAccount(s interface{ Scan(...any) error }) (budget.Account, error) {
	var a budget.Account
	var created string
	if err := s.Scan(&a.ID, &a.Name, &a.Type, &a.Institution, &created); err != nil {
		return a, err
	}
	var err error
	a.CreatedAt, err = parseStamp(created)
	return a, err
}

// Accounts returns all accounts by name.
func (b *Book) Accounts(ctx context.Context) ([]budget.Account, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("cannot list accounts: %w", err)
	}
	defer rows.Close()
	var accounts []budget.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot list accounts: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Account returns the account with the given id.
func (b *Book) Account(ctx context.Context, id int64) (budget.Account, error) {
	return account(ctx, b.db, `id = ?`, id)
}

// AccountByName returns the account with the given name.
func (b *Book) AccountByName(ctx context.Context, name string) (budget.Account, error) {
	return account(ctx, b.db, `name = ?`, name)
}

func account(ctx context.Context, q querier, where string, arg any) (budget.Account, error) {
	a, err := scanAccount(q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return a, fmt.Errorf("account %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return a, fmt.Errorf("cannot read account %v: %w", arg, err)
	}
	return a, nil
}

// Balance returns the balance of an account at the end of day on: the sum of
// its stored rows posted on or before it.
func (b *Book) Balance(ctx context.Context, accountID int64, on date.Date) (budget.Cents, error) {
	var sum int64
	err := b.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE account_id = ? AND posted_date <= ?`,
		accountID, on).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("cannot compute balance of account %d: %w", accountID, err)
	}
	return budget.Cents(sum), nil
}
