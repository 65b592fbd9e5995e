package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

// TransferPair is the two linked rows of a transfer.
type TransferPair struct {
	From budget.Transaction // the origin row
	To   budget.Transaction // its counterpart in the target account
}

// CreateTransfer turns src into a transfer to the target account. src is
// either a new row (zero ID) or an existing unlinked one. The counterpart is
// posted the same day in the target account with the opposite amount, no
// payee and no category. Both rows are linked to each other, or nothing is
// stored.
func (b *Book) CreateTransfer(ctx context.Context, src budget.Transaction, target int64) (TransferPair, error) {
	var pair TransferPair
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		pair, err = b.createTransfer(ctx, tx, src, target)
		return err
	})
	if err != nil {
		return pair, err
	}
	b.log.Info().Int64("from", pair.From.ID).Int64("to", pair.To.ID).Msg("transfer created")
	return pair, nil
}

func (b *Book) createTransfer(ctx context.Context, q querier, src budget.Transaction, target int64) (TransferPair, error) {
	if src.ID != 0 {
		existing, err := transaction(ctx, q, src.ID)
		if err != nil {
			return TransferPair{}, err
		}
		src = existing
	}
	if src.IsLinked() {
		return TransferPair{}, fmt.Errorf("transaction %d: %w", src.ID, ErrLinked)
	}
	src.Kind = budget.KindTransfer
	src, err := src.Validate()
	if err != nil {
		return TransferPair{}, err
	}
	if target == src.AccountID {
		return TransferPair{}, errors.New("a transfer needs two different accounts")
	}
	if _, err := account(ctx, q, `id = ?`, target); err != nil {
		return TransferPair{}, err
	}
	if src.ID == 0 {
		if src, err = b.insert(ctx, q, src); err != nil {
			return TransferPair{}, err
		}
	}

	to, err := b.insert(ctx, q, budget.Transaction{
		AccountID:      target,
		Posted:         src.Posted,
		Amount:         -src.Amount,
		Kind:           budget.KindTransfer,
		Source:         budget.SourceSystem,
		TransferLinkID: budget.Int64(src.ID),
	})
	if err != nil {
		return TransferPair{}, err
	}
	src.TransferLinkID = budget.Int64(to.ID)
	if err := update(ctx, q, src); err != nil {
		return TransferPair{}, err
	}
	if err := link(ctx, q, src.ID, src.TransferLinkID); err != nil {
		return TransferPair{}, err
	}
	return TransferPair{From: src, To: to}, nil
}

// TransferCandidates returns the rows of the target account that could be
// the other side of row id: unlinked, same magnitude, posted within
// budget.TransferWindow days.
func (b *Book) TransferCandidates(ctx context.Context, id, target int64) ([]budget.Transaction, error) {
	t, err := transaction(ctx, b.db, id)
	if err != nil {
		return nil, err
	}
	return transferCandidates(ctx, b.db, t, target)
}

func transferCandidates(ctx context.Context, q querier, t budget.Transaction, target int64) ([]budget.Transaction, error) {
	from, to := t.Posted.Add(-budget.TransferWindow), t.Posted.Add(budget.TransferWindow)
	rows, err := queryTransactions(ctx, q, `account_id = ? AND posted_date >= ? AND posted_date <= ?`, target, from, to)
	if err != nil {
		return nil, err
	}
	var candidates []budget.Transaction
	for _, c := range rows {
		if budget.InTransferWindow(t, c) {
			candidates = append(candidates, c)
		}
	}
	budget.SortLedger(candidates)
	return candidates, nil
}

// ConvertToTransfer turns the existing row id into a transfer to the target
// account. When replace names one of its TransferCandidates, that row is
// deleted and replaced by the new counterpart, in the same SQL transaction.
func (b *Book) ConvertToTransfer(ctx context.Context, id, target int64, replace *int64) (TransferPair, error) {
	var pair TransferPair
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if replace != nil {
			t, err := transaction(ctx, tx, id)
			if err != nil {
				return err
			}
			candidates, err := transferCandidates(ctx, tx, t, target)
			if err != nil {
				return err
			}
			found := false
			for _, c := range candidates {
				found = found || c.ID == *replace
			}
			if !found {
				return fmt.Errorf("transaction %d is not a transfer candidate for %d", *replace, id)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, *replace); err != nil {
				return fmt.Errorf("cannot delete transaction %d: %w", *replace, err)
			}
		}
		var err error
		pair, err = b.createTransfer(ctx, tx, budget.Transaction{ID: id}, target)
		return err
	})
	if err != nil {
		return pair, err
	}
	ev := b.log.Info().Int64("from", pair.From.ID).Int64("to", pair.To.ID)
	if replace != nil {
		ev = ev.Int64("replaced", *replace)
	}
	ev.Msg("transaction converted to transfer")
	return pair, nil
}

// Edit lists the changes to a stored row. Nil fields are left unchanged.
type Edit struct {
	Posted   *date.Date
	Amount   *budget.Cents
	PayeeRaw *string
	Memo     *string
	Category *int64
	// Unsynced keeps the transfer counterpart untouched, to correct one side
	// only. Resync restores the symmetry.
	Unsynced bool
}

// EditResult is the outcome of an Edit.
type EditResult struct {
	Transaction budget.Transaction
	Counterpart *budget.Transaction // the updated counterpart, if any
	Orphan      *int64              // the missing counterpart the row was linked to
}

// Edit changes a stored row. The date and amount of a transfer are copied to
// its counterpart, with the amount negated; other fields are not.
//
// A link to a missing counterpart does not fail the edit: it is logged and
// reported in EditResult.Orphan.
func (b *Book) Edit(ctx context.Context, id int64, e Edit) (EditResult, error) {
	var res EditResult
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		t, err := transaction(ctx, tx, id)
		if err != nil {
			return err
		}
		synced := false
		if e.Posted != nil {
			if e.Posted.IsZero() {
				return fmt.Errorf("%w: posted date is missing", budget.ErrInvalidDate)
			}
			synced = synced || *e.Posted != t.Posted
			t.Posted = *e.Posted
		}
		if e.Amount != nil {
			synced = synced || *e.Amount != t.Amount
			t.Amount = *e.Amount
		}
		if e.Memo != nil {
			t.Memo = *e.Memo
		}
		if e.Category != nil && t.Kind != budget.KindTransfer {
			t.CategoryID = budget.Int64(*e.Category)
		}
		if e.PayeeRaw != nil && *e.PayeeRaw != t.PayeeRaw {
			t.PayeeRaw, t.Payee = *e.PayeeRaw, ""
			list, err := payees(ctx, tx)
			if err != nil {
				return err
			}
			t = budget.ApplyPayee(list, t)
		}
		if err := update(ctx, tx, t); err != nil {
			return err
		}
		res.Transaction = t
		if !t.IsLinked() || !synced || e.Unsynced {
			return nil
		}
		other, err := b.syncCounterpart(ctx, tx, t)
		if errors.Is(err, ErrNotFound) {
			res.Orphan = budget.Int64(*t.TransferLinkID)
			return nil
		}
		if err != nil {
			return err
		}
		res.Counterpart = &other
		return nil
	})
	if err != nil {
		return res, err
	}
	if res.Orphan != nil {
		b.log.Warn().Int64("id", id).Int64("link", *res.Orphan).Msg("transfer counterpart is missing")
	}
	return res, nil
}

// Resync copies the date and the negated amount of row id to its transfer
// counterpart, and returns the updated counterpart.
func (b *Book) Resync(ctx context.Context, id int64) (budget.Transaction, error) {
	var other budget.Transaction
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		t, err := transaction(ctx, tx, id)
		if err != nil {
			return err
		}
		if !t.IsLinked() {
			return fmt.Errorf("transaction %d is not a transfer", id)
		}
		other, err = b.syncCounterpart(ctx, tx, t)
		return err
	})
	return other, err
}

func (b *Book) syncCounterpart(ctx context.Context, q querier, t budget.Transaction) (budget.Transaction, error) {
	other, err := transaction(ctx, q, *t.TransferLinkID)
	if err != nil {
		return other, err
	}
	other.Posted, other.Amount = t.Posted, -t.Amount
	return other, update(ctx, q, other)
}

// Delete removes a stored row in two committed steps. First the row and
// every row referencing it are unlinked, and transfer rows left without a
// counterpart become actual rows. Then the row is deleted. Failing between
// the two steps leaves both rows in the book, unlinked.
func (b *Book) Delete(ctx context.Context, id int64) error {
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := transaction(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET transfer_link_id = NULL,
				kind = CASE WHEN kind = ? THEN ? ELSE kind END
			WHERE id = ? OR transfer_link_id = ?`,
			string(budget.KindTransfer), string(budget.KindActual), id, id)
		if err != nil {
			return fmt.Errorf("cannot unlink transaction %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if b.afterUnlink != nil {
		if err := b.afterUnlink(id); err != nil {
			return err
		}
	}
	res, err := b.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("cannot delete transaction %d: %w", id, err)
	}
	if err := mustAffect(res, fmt.Sprintf("transaction %d", id)); err != nil {
		return err
	}
	b.log.Debug().Int64("id", id).Msg("transaction deleted")
	return nil
}
