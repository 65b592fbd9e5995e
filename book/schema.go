package book

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables of a new book. Columns added later are listed in
// additions so that older books get them on open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL DEFAULT 'checking',
		institution TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS payees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		patterns TEXT NOT NULL DEFAULT '[]',
		default_category_id INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS recurring_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		payee_id INTEGER NOT NULL UNIQUE REFERENCES payees(id) ON DELETE CASCADE,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		frequency TEXT NOT NULL,
		step INTEGER NOT NULL DEFAULT 1,
		day_of_month INTEGER NOT NULL,
		amount_method TEXT NOT NULL,
		amount_cents INTEGER NOT NULL DEFAULT 0,
		start_date TEXT NOT NULL,
		end_date TEXT,
		active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		posted_date TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		payee_raw TEXT NOT NULL DEFAULT '',
		payee TEXT,
		memo TEXT NOT NULL DEFAULT '',
		category_id INTEGER,
		kind TEXT NOT NULL DEFAULT 'actual',
		source TEXT NOT NULL DEFAULT 'manual',
		created_at TEXT NOT NULL,
		external_id TEXT,
		transfer_link_id INTEGER REFERENCES transactions(id)
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_account ON transactions(account_id, posted_date)`,
	`CREATE INDEX IF NOT EXISTS transactions_link ON transactions(transfer_link_id)`,
	`CREATE TABLE IF NOT EXISTS forecast_dismissals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		payee_id INTEGER NOT NULL REFERENCES payees(id) ON DELETE CASCADE,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		period TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(payee_id, account_id, period)
	)`,
	`CREATE TABLE IF NOT EXISTS plans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS plan_accounts (
		plan_id INTEGER NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		PRIMARY KEY(plan_id, account_id)
	)`,
	`CREATE TABLE IF NOT EXISTS plan_items (
		plan_id INTEGER NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		category_id INTEGER NOT NULL,
		amount_cents INTEGER NOT NULL,
		PRIMARY KEY(plan_id, category_id)
	)`,
}

// additions are the columns added to the first schema, in order.
var additions = []struct{ table, column, decl string }{
	{"transactions", "import_batch", "TEXT"},
	{"recurring_templates", "average_count", "INTEGER NOT NULL DEFAULT 3"},
	{"recurring_templates", "category_id", "INTEGER"},
}

// migrate creates missing tables and adds missing columns. It never drops or
// rewrites anything.
func (b *Book) migrate(ctx context.Context) error {
	return b.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("cannot create schema: %w", err)
			}
		}
		for _, a := range additions {
			ok, err := hasColumn(ctx, tx, a.table, a.column)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", a.table, a.column, a.decl)
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("cannot add column %s.%s: %w", a.table, a.column, err)
			}
			b.log.Debug().Str("table", a.table).Str("column", a.column).Msg("column added")
		}
		return nil
	})
}

func hasColumn(ctx context.Context, q querier, table, column string) (bool, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, fmt.Errorf("cannot read columns of %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("cannot read columns of %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
