package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

// SetPlan creates the plan, or replaces the accounts, items and active flag
// of the plan with the same name.
func (b *Book) SetPlan(ctx context.Context, p budget.Plan) (budget.Plan, error) {
	p, err := p.Validate()
	if err != nil {
		return p, err
	}
	err = b.inTx(ctx, func(tx *sql.Tx) error {
		p, err = savePlan(ctx, tx, p)
		return err
	})
	if err != nil {
		return p, err
	}
	b.log.Info().Int64("plan", p.ID).Str("name", p.Name).Int("items", len(p.Items)).Msg("plan saved")
	return p, nil
}

func savePlan(ctx context.Context, q querier, p budget.Plan) (budget.Plan, error) {
	for _, id := range p.AccountIDs {
		if _, err := account(ctx, q, `id = ?`, id); err != nil {
			return p, err
		}
	}
	_, err := q.ExecContext(ctx, `INSERT INTO plans (name, active) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET name = excluded.name, active = excluded.active`, p.Name, p.Active)
	if err != nil {
		return p, fmt.Errorf("cannot save plan %q: %w", p.Name, err)
	}
	if err := q.QueryRowContext(ctx, `SELECT id FROM plans WHERE name = ?`, p.Name).Scan(&p.ID); err != nil {
		return p, fmt.Errorf("cannot read plan %q: %w", p.Name, err)
	}
	for _, table := range []string{"plan_accounts", "plan_items"} {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE plan_id = ?`, p.ID); err != nil {
			return p, fmt.Errorf("cannot clear %s of plan %q: %w", table, p.Name, err)
		}
	}
	for _, id := range p.AccountIDs {
		if _, err := q.ExecContext(ctx, `INSERT INTO plan_accounts (plan_id, account_id) VALUES (?, ?)`, p.ID, id); err != nil {
			return p, fmt.Errorf("cannot save accounts of plan %q: %w", p.Name, err)
		}
	}
	for _, it := range p.Items {
		if _, err := q.ExecContext(ctx, `INSERT INTO plan_items (plan_id, category_id, amount_cents) VALUES (?, ?, ?)`,
			p.ID, it.CategoryID, int64(it.Amount)); err != nil {
			return p, fmt.Errorf("cannot save items of plan %q: %w", p.Name, err)
		}
	}
	return planOf(ctx, q, p.Name)
}

// planOf reads a plan by name, ignoring case.
func planOf(ctx context.Context, q querier, name string) (budget.Plan, error) {
	var p budget.Plan
	err := q.QueryRowContext(ctx, `SELECT id, name, active FROM plans WHERE name = ?`, name).Scan(&p.ID, &p.Name, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("plan %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("cannot read plan %q: %w", name, err)
	}

	rows, err := q.QueryContext(ctx, `SELECT account_id FROM plan_accounts WHERE plan_id = ? ORDER BY account_id`, p.ID)
	if err != nil {
		return p, fmt.Errorf("cannot read accounts of plan %q: %w", name, err)
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return p, fmt.Errorf("cannot read accounts of plan %q: %w", name, err)
		}
		p.AccountIDs = append(p.AccountIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return p, err
	}

	rows, err = q.QueryContext(ctx, `SELECT category_id, amount_cents FROM plan_items WHERE plan_id = ? ORDER BY category_id`, p.ID)
	if err != nil {
		return p, fmt.Errorf("cannot read items of plan %q: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it budget.PlanItem
		if err := rows.Scan(&it.CategoryID, &it.Amount); err != nil {
			return p, fmt.Errorf("cannot read items of plan %q: %w", name, err)
		}
		p.Items = append(p.Items, it)
	}
	return p, rows.Err()
}

// Plan returns the plan with the given name, ignoring case.
func (b *Book) Plan(ctx context.Context, name string) (budget.Plan, error) {
	return planOf(ctx, b.db, name)
}

// Plans returns all plans by name.
func (b *Book) Plans(ctx context.Context) ([]budget.Plan, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT name FROM plans ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("cannot list plans: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("cannot list plans: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// the pool has a single connection: plans are read once the list is closed
	list := make([]budget.Plan, 0, len(names))
	for _, name := range names {
		p, err := planOf(ctx, b.db, name)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

// DeletePlan removes a plan with its accounts and items.
func (b *Book) DeletePlan(ctx context.Context, name string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM plans WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("cannot delete plan %q: %w", name, err)
	}
	return mustAffect(res, fmt.Sprintf("plan %q", name))
}

// TransactionsIn returns the stored rows of every account posted in r, by id.
func (b *Book) TransactionsIn(ctx context.Context, r date.Range) ([]budget.Transaction, error) {
	return queryTransactions(ctx, b.db, `posted_date >= ? AND posted_date <= ?`, r.From, r.To)
}

// AutoPopulate replaces the items of a plan with the average monthly amount
// of every category over the months of r, measured on the plan accounts.
func (b *Book) AutoPopulate(ctx context.Context, name string, r date.Range) (budget.Plan, error) {
	var p budget.Plan
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if p, err = planOf(ctx, tx, name); err != nil {
			return err
		}
		rows, err := queryTransactions(ctx, tx, `posted_date >= ? AND posted_date <= ?`, r.From, r.To)
		if err != nil {
			return err
		}
		p.Items = budget.AveragePlan(rows, p.AccountIDs, r)
		p, err = savePlan(ctx, tx, p)
		return err
	})
	if err != nil {
		return p, err
	}
	b.log.Info().Str("name", p.Name).Str("range", r.String()).Int("items", len(p.Items)).Msg("plan populated")
	return p, nil
}

// ComparePlan compares a plan to the rows of every month of r.
func (b *Book) ComparePlan(ctx context.Context, name string, r date.Range) (budget.Plan, []budget.PlanMonth, error) {
	p, err := planOf(ctx, b.db, name)
	if err != nil {
		return p, nil, err
	}
	rows, err := b.TransactionsIn(ctx, r)
	if err != nil {
		return p, nil, err
	}
	return p, budget.ComparePlan(p, rows, r), nil
}
