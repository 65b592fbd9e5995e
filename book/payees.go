package book

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/etnz/budget"
)

// AddPayee creates a payee with its matching patterns.
func (b *Book) AddPayee(ctx context.Context, p budget.Payee) (budget.Payee, error) {
	p, err := p.Validate()
	if err != nil {
		return p, err
	}
	patterns, err := json.Marshal(nonNil(p.Patterns))
	if err != nil {
		return p, fmt.Errorf("cannot encode patterns of %q: %w", p.Name, err)
	}
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO payees (name, patterns, default_category_id) VALUES (?, ?, ?)`,
		p.Name, string(patterns), p.DefaultCategoryID)
	if err != nil {
		return p, fmt.Errorf("cannot add payee %q: %w", p.Name, err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return p, fmt.Errorf("cannot add payee %q: %w", p.Name, err)
	}
	b.log.Info().Int64("payee", p.ID).Str("name", p.Name).Msg("payee added")
	return p, nil
}

// SetPatterns replaces the matching patterns of a payee.
func (b *Book) SetPatterns(ctx context.Context, payeeID int64, patterns []budget.Pattern) error {
	if _, err := (budget.Payee{Name: "_", Patterns: patterns}).Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(nonNil(patterns))
	if err != nil {
		return fmt.Errorf("cannot encode patterns: %w", err)
	}
	res, err := b.db.ExecContext(ctx, `UPDATE payees SET patterns = ? WHERE id = ?`, string(raw), payeeID)
	if err != nil {
		return fmt.Errorf("cannot update payee %d: %w", payeeID, err)
	}
	return mustAffect(res, fmt.Sprintf("payee %d", payeeID))
}

func nonNil(patterns []budget.Pattern) []budget.Pattern {
	if patterns == nil {
		return []budget.Pattern{}
	}
	return patterns
}

const payeeColumns = `id, name, patterns, default_category_id`

func scanPayee(s interface{ Scan(...any) error }) (budget.Payee, error) {
	var p budget.Payee
	var patterns string
	var category sql.NullInt64
	if err := s.Scan(&p.ID, &p.Name, &patterns, &category); err != nil {
		return p, err
	}
	if category.Valid {
		p.DefaultCategoryID = budget.Int64(category.Int64)
	}
	if err := json.Unmarshal([]byte(patterns), &p.Patterns); err != nil {
		return p, fmt.Errorf("invalid patterns of payee %q: %w", p.Name, err)
	}
	return p, nil
}

// Payees returns all payees in creation order, which is the order their
// patterns are tried in.
func (b *Book) Payees(ctx context.Context) ([]budget.Payee, error) {
	return payees(ctx, b.db)
}

func payees(ctx context.Context, q querier) ([]budget.Payee, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+payeeColumns+` FROM payees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("cannot list payees: %w", err)
	}
	defer rows.Close()
	var list []budget.Payee
	for rows.Next() {
		p, err := scanPayee(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot list payees: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// PayeeByName returns the payee with the given name, ignoring case.
func (b *Book) PayeeByName(ctx context.Context, name string) (budget.Payee, error) {
	p, err := scanPayee(b.db.QueryRowContext(ctx, `SELECT `+payeeColumns+` FROM payees WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("payee %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("cannot read payee %q: %w", name, err)
	}
	return p, nil
}

// SetTemplate creates or replaces the recurring rule of a payee.
func (b *Book) SetTemplate(ctx context.Context, t budget.Template) (budget.Template, error) {
	t, err := t.Validate()
	if err != nil {
		return t, err
	}
	err = b.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := account(ctx, tx, `id = ?`, t.AccountID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recurring_templates (payee_id, account_id, frequency, step, day_of_month,
				amount_method, amount_cents, average_count, category_id, start_date, end_date, active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(payee_id) DO UPDATE SET
				account_id = excluded.account_id, frequency = excluded.frequency, step = excluded.step,
				day_of_month = excluded.day_of_month, amount_method = excluded.amount_method,
				amount_cents = excluded.amount_cents, average_count = excluded.average_count,
				category_id = excluded.category_id, start_date = excluded.start_date,
				end_date = excluded.end_date, active = excluded.active`,
			t.PayeeID, t.AccountID, string(t.Frequency), t.Step, t.Day,
			string(t.Method), int64(t.Amount), t.Count, t.CategoryID, t.Start, t.End, t.Active)
		if err != nil {
			return fmt.Errorf("cannot save template of payee %d: %w", t.PayeeID, err)
		}
		saved, err := templateOf(ctx, tx, t.PayeeID)
		t = saved
		return err
	})
	if err != nil {
		return t, err
	}
	b.log.Info().Int64("template", t.ID).Str("payee", t.Payee).Msg("template saved")
	return t, nil
}

// DeleteTemplate removes the recurring rule of a payee. Its forecasts vanish
// from the next projection.
func (b *Book) DeleteTemplate(ctx context.Context, payeeID int64) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM recurring_templates WHERE payee_id = ?`, payeeID)
	if err != nil {
		return fmt.Errorf("cannot delete template of payee %d: %w", payeeID, err)
	}
	return mustAffect(res, fmt.Sprintf("template of payee %d", payeeID))
}

const templateColumns = `t.id, t.payee_id, p.name, t.account_id, t.frequency, t.step, t.day_of_month,
	t.amount_method, t.amount_cents, t.average_count, t.category_id, p.default_category_id,
	t.start_date, t.end_date, t.active`

// scanTemplate reads a template and the default category of its payee.
func scanTemplate(s interface{ Scan(...any) error }) (budget.Template, *int64, error) {
	var t budget.Template
	var frequency, method string
	var category, payeeCategory sql.NullInt64
	err := s.Scan(&t.ID, &t.PayeeID, &t.Payee, &t.AccountID, &frequency, &t.Step, &t.Day,
		&method, &t.Amount, &t.Count, &category, &payeeCategory, &t.Start, &t.End, &t.Active)
	if err != nil {
		return t, nil, err
	}
	t.Frequency, t.Method = budget.Frequency(frequency), budget.AmountMethod(method)
	if category.Valid {
		t.CategoryID = budget.Int64(category.Int64)
	}
	var fallback *int64
	if payeeCategory.Valid {
		fallback = budget.Int64(payeeCategory.Int64)
	}
	return t, fallback, nil
}

func templateOf(ctx context.Context, q querier, payeeID int64) (budget.Template, error) {
	row := q.QueryRowContext(ctx, `SELECT `+templateColumns+`
		FROM recurring_templates t JOIN payees p ON p.id = t.payee_id WHERE t.payee_id = ?`, payeeID)
	t, _, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("template of payee %d: %w", payeeID, ErrNotFound)
	}
	if err != nil {
		return t, fmt.Errorf("cannot read template of payee %d: %w", payeeID, err)
	}
	return t, nil
}

// Template returns the recurring rule of a payee.
func (b *Book) Template(ctx context.Context, payeeID int64) (budget.Template, error) {
	return templateOf(ctx, b.db, payeeID)
}

// Templates returns all templates by id.
func (b *Book) Templates(ctx context.Context) ([]budget.Template, error) {
	return templates(ctx, b.db, false)
}

// templates lists the templates. When resolve is set, templates without a
// category inherit the default category of their payee, as their forecasts
// do.
func templates(ctx context.Context, q querier, resolve bool) ([]budget.Template, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+templateColumns+`
		FROM recurring_templates t JOIN payees p ON p.id = t.payee_id ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("cannot list templates: %w", err)
	}
	defer rows.Close()
	var list []budget.Template
	for rows.Next() {
		t, fallback, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot list templates: %w", err)
		}
		if resolve && t.CategoryID == nil {
			t.CategoryID = fallback
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// mustAffect returns ErrNotFound when res changed no row.
func mustAffect(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cannot update %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
