package book

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/etnz/budget"
	"github.com/google/uuid"
)

// Preview is the classification of an import batch against an account, with
// the transfer counterparts suggested for its new rows.
type Preview struct {
	AccountID int64
	budget.Classification
	// Transfers maps the line of a new row to the unlinked rows of other
	// accounts that could be its counterpart.
	Transfers map[int][]budget.Transaction
}

func preview(ctx context.Context, q querier, accountID int64, rows []budget.ParsedRow) (Preview, error) {
	if _, err := account(ctx, q, `id = ?`, accountID); err != nil {
		return Preview{}, err
	}
	all, err := history(ctx, q)
	if err != nil {
		return Preview{}, err
	}
	var own, others []budget.Transaction
	for _, t := range all {
		if t.AccountID == accountID {
			own = append(own, t)
		} else {
			others = append(others, t)
		}
	}
	c := budget.Classify(rows, own)
	return Preview{
		AccountID:      accountID,
		Classification: c,
		Transfers:      budget.SuggestTransfers(accountID, c.New, others),
	}, nil
}

// PreviewImport classifies rows against the stored rows of an account. It
// changes nothing.
func (b *Book) PreviewImport(ctx context.Context, accountID int64, rows []budget.ParsedRow) (Preview, error) {
	return preview(ctx, b.db, accountID, rows)
}

// ImportResult is the outcome of CommitImport.
type ImportResult struct {
	Batch    string // id shared by the rows of the batch
	Inserted []budget.Transaction
	Skipped  []budget.Duplicate
	Errors   []budget.RowError
}

// CommitImport inserts the new rows of a batch, plus the duplicates whose
// line is listed in accept, in one SQL transaction. Payee rules are applied to
// the inserted rows. Rows in error are reported and skipped.
func (b *Book) CommitImport(ctx context.Context, accountID int64, rows []budget.ParsedRow, accept []int) (ImportResult, error) {
	res := ImportResult{Batch: uuid.NewString()}
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		p, err := preview(ctx, tx, accountID, rows)
		if err != nil {
			return err
		}
		list, err := payees(ctx, tx)
		if err != nil {
			return err
		}
		selected := slices.Clone(p.New)
		for _, d := range p.Duplicates {
			if slices.Contains(accept, d.Row.Line) {
				selected = append(selected, d.Row)
			} else {
				res.Skipped = append(res.Skipped, d)
			}
		}
		slices.SortFunc(selected, func(a, b budget.ParsedRow) int { return a.Line - b.Line })
		for _, r := range selected {
			t := r.Transaction(accountID)
			t.ImportBatch = res.Batch
			t, err := b.insert(ctx, tx, budget.ApplyPayee(list, t))
			if err != nil {
				return fmt.Errorf("cannot import line %d: %w", r.Line, err)
			}
			res.Inserted = append(res.Inserted, t)
		}
		res.Errors = p.Errors
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	b.log.Info().
		Str("batch", res.Batch).
		Int64("account", accountID).
		Int("inserted", len(res.Inserted)).
		Int("skipped", len(res.Skipped)).
		Int("errors", len(res.Errors)).
		Msg("import committed")
	return res, nil
}
