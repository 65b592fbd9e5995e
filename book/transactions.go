package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

const txColumns = `id, account_id, posted_date, amount_cents, payee_raw, payee, memo, category_id,
	kind, source, created_at, external_id, transfer_link_id, import_batch`

func scanTransaction(s interface{ Scan(...any) error }) (budget.Transaction, error) {
	var t budget.Transaction
	var payee, external, batch sql.NullString
	var category, linkID sql.NullInt64
	var kind, source, created string
	err := s.Scan(&t.ID, &t.AccountID, &t.Posted, &t.Amount, &t.PayeeRaw, &payee, &t.Memo, &category,
		&kind, &source, &created, &external, &linkID, &batch)
	if err != nil {
		return t, err
	}
	t.Payee, t.ExternalID, t.ImportBatch = payee.String, external.String, batch.String
	if category.Valid {
		t.CategoryID = budget.Int64(category.Int64)
	}
	if linkID.Valid {
		t.TransferLinkID = budget.Int64(linkID.Int64)
	}
	t.Kind, t.Source = budget.Kind(kind), budget.Source(source)
	t.CreatedAt, err = parseStamp(created)
	return t, err
}

func queryTransactions(ctx context.Context, q querier, where string, args ...any) ([]budget.Transaction, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot query transactions: %w", err)
	}
	defer rows.Close()
	var list []budget.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot read transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func transaction(ctx context.Context, q querier, id int64) (budget.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return t, fmt.Errorf("cannot read transaction %d: %w", id, err)
	}
	return t, nil
}

// Transaction returns the stored row with the given id.
func (b *Book) Transaction(ctx context.Context, id int64) (budget.Transaction, error) {
	return transaction(ctx, b.db, id)
}

// Transactions returns the stored rows of an account posted in r, in ledger
// order.
func (b *Book) Transactions(ctx context.Context, accountID int64, r date.Range) ([]budget.Transaction, error) {
	list, err := queryTransactions(ctx, b.db, `account_id = ? AND posted_date >= ? AND posted_date <= ?`, accountID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	budget.SortLedger(list)
	return list, nil
}

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

// insert stores t and returns it with its id and creation time.
func (b *Book) insert(ctx context.Context, q querier, t budget.Transaction) (budget.Transaction, error) {
	stamp := b.stamp()
	res, err := q.ExecContext(ctx, `
		INSERT INTO transactions (account_id, posted_date, amount_cents, payee_raw, payee, memo, category_id,
			kind, source, created_at, external_id, transfer_link_id, import_batch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.AccountID, t.Posted, int64(t.Amount), t.PayeeRaw, nullString(t.Payee), t.Memo, t.CategoryID,
		string(t.Kind), string(t.Source), stamp, nullString(t.ExternalID), t.TransferLinkID, nullString(t.ImportBatch))
	if err != nil {
		return t, fmt.Errorf("cannot insert transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return t, fmt.Errorf("cannot insert transaction: %w", err)
	}
	t.CreatedAt, _ = parseStamp(stamp)
	return t, nil
}

// update writes the mutable fields of t but its transfer link, which only
// link sets: SQLite checks the foreign key of every column an UPDATE sets.
func update(ctx context.Context, q querier, t budget.Transaction) error {
	res, err := q.ExecContext(ctx, `
		UPDATE transactions SET posted_date = ?, amount_cents = ?, payee_raw = ?, payee = ?, memo = ?,
			category_id = ?, kind = ?
		WHERE id = ?`,
		t.Posted, int64(t.Amount), t.PayeeRaw, nullString(t.Payee), t.Memo,
		t.CategoryID, string(t.Kind), t.ID)
	if err != nil {
		return fmt.Errorf("cannot update transaction %d: %w", t.ID, err)
	}
	return mustAffect(res, fmt.Sprintf("transaction %d", t.ID))
}

// link sets the transfer link of row id.
func link(ctx context.Context, q querier, id int64, to *int64) error {
	res, err := q.ExecContext(ctx, `UPDATE transactions SET transfer_link_id = ? WHERE id = ?`, to, id)
	if err != nil {
		return fmt.Errorf("cannot link transaction %d: %w", id, err)
	}
	return mustAffect(res, fmt.Sprintf("transaction %d", id))
}

// Add validates t, applies the payee rules and stores it.
func (b *Book) Add(ctx context.Context, t budget.Transaction) (budget.Transaction, error) {
	t, err := t.Validate()
	if err != nil {
		return t, err
	}
	if t.Kind == budget.KindTransfer || t.TransferLinkID != nil {
		return t, errors.New("transfers are created with CreateTransfer")
	}
	err = b.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := account(ctx, tx, `id = ?`, t.AccountID); err != nil {
			return err
		}
		list, err := payees(ctx, tx)
		if err != nil {
			return err
		}
		t, err = b.insert(ctx, tx, budget.ApplyPayee(list, t))
		return err
	})
	if err != nil {
		return t, err
	}
	b.log.Debug().Int64("id", t.ID).Int64("account", t.AccountID).Msg("transaction added")
	return t, nil
}

// Rematch applies the payee rules again to every row but transfers, and
// returns the number of rows whose display payee or category changed. A row
// no rule matches keeps its display payee: confirmed forecasts carry the
// payee name, not bank text.
func (b *Book) Rematch(ctx context.Context) (int, error) {
	changed := 0
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		list, err := payees(ctx, tx)
		if err != nil {
			return err
		}
		rows, err := queryTransactions(ctx, tx, `kind <> ?`, string(budget.KindTransfer))
		if err != nil {
			return err
		}
		for _, t := range rows {
			fresh := budget.ApplyPayee(list, t)
			if fresh.Payee == t.Payee && budget.SameRef(fresh.CategoryID, t.CategoryID) {
				continue
			}
			if err := update(ctx, tx, fresh); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	b.log.Info().Int("changed", changed).Msg("payees rematched")
	return changed, nil
}
