package book

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

// history returns every stored row of the book.
func history(ctx context.Context, q querier) ([]budget.Transaction, error) {
	return queryTransactions(ctx, q, `1 = 1`)
}

func dismissals(ctx context.Context, q querier) (budget.DismissalSet, error) {
	rows, err := q.QueryContext(ctx, `SELECT payee_id, account_id, period FROM forecast_dismissals`)
	if err != nil {
		return nil, fmt.Errorf("cannot list dismissals: %w", err)
	}
	defer rows.Close()
	var list []budget.Dismissal
	for rows.Next() {
		var d budget.Dismissal
		if err := rows.Scan(&d.PayeeID, &d.AccountID, &d.Period); err != nil {
			return nil, fmt.Errorf("cannot read dismissal: %w", err)
		}
		list = append(list, d)
	}
	return budget.NewDismissalSet(list...), rows.Err()
}

// project returns the pending forecasts of an account in r, which is not
// clipped.
func project(ctx context.Context, q querier, accountID int64, r date.Range) ([]budget.Forecast, error) {
	list, err := templates(ctx, q, true)
	if err != nil {
		return nil, err
	}
	rows, err := history(ctx, q)
	if err != nil {
		return nil, err
	}
	dismissed, err := dismissals(ctx, q)
	if err != nil {
		return nil, err
	}
	return budget.Project(list, accountID, r, rows, dismissed), nil
}

// Forecasts returns the pending forecasts of an account in r, from the
// current month on.
func (b *Book) Forecasts(ctx context.Context, accountID int64, r date.Range) ([]budget.Forecast, error) {
	return project(ctx, b.db, accountID, budget.ForecastWindow(r, b.Today()))
}

// Confirmation overrides the values of a confirmed forecast.
type Confirmation struct {
	Posted *date.Date
	Amount *budget.Cents
}

// Confirm records the payment of the forecast of a payee in the month of
// period: a new actual row pre-filled from the forecast. The forecast is no
// longer pending afterwards unless the overrides changed its month or amount.
func (b *Book) Confirm(ctx context.Context, payeeID int64, period date.Date, c Confirmation) (budget.Transaction, error) {
	var t budget.Transaction
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		tmpl, err := templateOf(ctx, tx, payeeID)
		if err != nil {
			return err
		}
		forecasts, err := project(ctx, tx, tmpl.AccountID, date.NewRange(period, date.Monthly))
		if err != nil {
			return err
		}
		var f *budget.Forecast
		for i := range forecasts {
			if forecasts[i].TemplateID == tmpl.ID {
				f = &forecasts[i]
			}
		}
		if f == nil {
			return fmt.Errorf("pending forecast of %s in %s: %w", tmpl.Payee, date.NewRange(period, date.Monthly), ErrNotFound)
		}
		t = f.Transaction()
		t.ID, t.TemplateID = 0, nil
		t.PayeeRaw = f.Payee
		t.Kind, t.Source = budget.KindActual, budget.SourceManual
		if c.Posted != nil {
			t.Posted = *c.Posted
		}
		if c.Amount != nil {
			t.Amount = *c.Amount
		}
		if t, err = t.Validate(); err != nil {
			return err
		}
		t, err = b.insert(ctx, tx, t)
		return err
	})
	if err != nil {
		return t, err
	}
	b.log.Info().Int64("id", t.ID).Int64("payee", payeeID).Str("period", period.StartOf(date.Monthly).String()).Msg("forecast confirmed")
	return t, nil
}

// Dismiss hides the forecast of a payee in an account for the month of
// period. Dismissing twice is harmless.
func (b *Book) Dismiss(ctx context.Context, payeeID, accountID int64, period date.Date) error {
	d := budget.NewDismissal(payeeID, accountID, period)
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO forecast_dismissals (payee_id, account_id, period, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(payee_id, account_id, period) DO NOTHING`,
		d.PayeeID, d.AccountID, d.Period, b.stamp())
	if err != nil {
		return fmt.Errorf("cannot dismiss forecast of payee %d: %w", payeeID, err)
	}
	b.log.Debug().Int64("payee", payeeID).Int64("account", accountID).Str("period", d.Period.String()).Msg("forecast dismissed")
	return nil
}

// ClearDismissals removes every dismissal of a payee and returns how many
// were removed.
func (b *Book) ClearDismissals(ctx context.Context, payeeID int64) (int64, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM forecast_dismissals WHERE payee_id = ?`, payeeID)
	if err != nil {
		return 0, fmt.Errorf("cannot clear dismissals of payee %d: %w", payeeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cannot clear dismissals of payee %d: %w", payeeID, err)
	}
	return n, nil
}

// CountDismissals returns the number of dismissals of a payee from the
// current month on.
func (b *Book) CountDismissals(ctx context.Context, payeeID int64) (int, error) {
	var n int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM forecast_dismissals WHERE payee_id = ? AND period >= ?`,
		payeeID, b.Today().StartOf(date.Monthly)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cannot count dismissals of payee %d: %w", payeeID, err)
	}
	return n, nil
}

// cleanupDismissals drops the dismissals of past months: their forecasts are
// never shown anyway.
func (b *Book) cleanupDismissals(ctx context.Context) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM forecast_dismissals WHERE period < ?`, b.Today().StartOf(date.Monthly))
	if err != nil {
		return fmt.Errorf("cannot clean up dismissals: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		b.log.Debug().Int64("count", n).Msg("past dismissals removed")
	}
	return nil
}

// Ledger returns the ledger of an account over period: stored rows and
// pending forecasts from the month of today on, with a running balance
// starting from the balance before the period.
func (b *Book) Ledger(ctx context.Context, accountID int64, period date.Range, today date.Date) (budget.LedgerView, error) {
	if _, err := account(ctx, b.db, `id = ?`, accountID); err != nil {
		return budget.LedgerView{}, err
	}
	list, err := templates(ctx, b.db, true)
	if err != nil {
		return budget.LedgerView{}, err
	}
	rows, err := history(ctx, b.db)
	if err != nil {
		return budget.LedgerView{}, err
	}
	dismissed, err := dismissals(ctx, b.db)
	if err != nil {
		return budget.LedgerView{}, err
	}

	var own []budget.Transaction
	for _, t := range rows {
		if t.AccountID == accountID {
			own = append(own, t)
		}
	}
	opening := budget.OpeningBalance(own, period.From)
	forecasts := budget.Project(list, accountID, budget.ForecastWindow(period, today), rows, dismissed)
	return budget.NewLedgerView(accountID, period, opening, own, forecasts), nil
}
