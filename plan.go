package budget

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/budget/date"
	"github.com/shopspring/decimal"
)

// Plan is a monthly spending plan: a target amount per category, measured
// on a set of accounts.
type Plan struct {
	ID         int64
	Name       string
	Active     bool
	AccountIDs []int64 // empty means every account
	Items      []PlanItem
}

// PlanItem is the monthly target of a category. Expenses are negative,
// income positive, like the rows they are compared to.
type PlanItem struct {
	CategoryID int64 `json:"categoryId"`
	Amount     Cents `json:"amount"`
}

// Validate normalizes the plan: trimmed name, sorted unique accounts and
// items sorted by category.
func (p Plan) Validate() (Plan, error) {
	var errs error
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		errs = errors.Join(errs, errors.New("plan name is missing"))
	}
	p.AccountIDs = slices.Clone(p.AccountIDs)
	slices.Sort(p.AccountIDs)
	p.AccountIDs = slices.Compact(p.AccountIDs)

	p.Items = slices.Clone(p.Items)
	slices.SortFunc(p.Items, func(a, b PlanItem) int { return cmp.Compare(a.CategoryID, b.CategoryID) })
	for i := 1; i < len(p.Items); i++ {
		if p.Items[i].CategoryID == p.Items[i-1].CategoryID {
			errs = errors.Join(errs, fmt.Errorf("category %d has two targets", p.Items[i].CategoryID))
		}
	}
	return p, errs
}

// Target returns the monthly target of a category, zero when the plan has
// none.
func (p Plan) Target(categoryID int64) Cents {
	for _, it := range p.Items {
		if it.CategoryID == categoryID {
			return it.Amount
		}
	}
	return 0
}

// planFilter selects the rows measured against a plan: actual rows and
// transfers of the plan accounts.
func planFilter(accountIDs []int64, r date.Range) ReportFilter {
	return ReportFilter{Range: r, AccountIDs: accountIDs, IncludeTransfers: true}
}

// AveragePlan returns the average monthly amount of every category over the
// months of r, rounded to the nearest minor unit with ties away from zero.
// Uncategorized rows and categories averaging zero get no item.
func AveragePlan(txs []Transaction, accountIDs []int64, r date.Range) []PlanItem {
	months := 0
	for range r.Months() {
		months++
	}
	if months == 0 {
		return nil
	}
	f := planFilter(accountIDs, r)
	totals := make(map[int64]Cents)
	for _, t := range txs {
		if f.Selects(t) && t.CategoryID != nil {
			totals[*t.CategoryID] += t.Amount
		}
	}
	var items []PlanItem
	for id, total := range totals {
		avg := decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(months))).Round(0)
		if avg.IsZero() {
			continue
		}
		items = append(items, PlanItem{CategoryID: id, Amount: Cents(avg.IntPart())})
	}
	slices.SortFunc(items, func(a, b PlanItem) int { return cmp.Compare(a.CategoryID, b.CategoryID) })
	return items
}

// PlanLine compares the target and the actual amount of a category in one
// month. Difference is Actual - Target: positive is favorable, for income
// (more received) as well as for expenses (less spent).
type PlanLine struct {
	CategoryID int64
	Target     Cents
	Actual     Cents
	Difference Cents
	Income     bool
}

// PlanMonth is the comparison of one calendar month.
type PlanMonth struct {
	Month date.Date // first day of the month
	Lines []PlanLine
}

// PlanTotals sums the lines of a month by direction.
type PlanTotals struct {
	TargetIncome, ActualIncome   Cents
	TargetExpense, ActualExpense Cents
}

// Totals returns the income and expense totals of the month.
func (m PlanMonth) Totals() PlanTotals {
	var t PlanTotals
	for _, l := range m.Lines {
		if l.Income {
			t.TargetIncome += l.Target
			t.ActualIncome += l.Actual
		} else {
			t.TargetExpense += l.Target
			t.ActualExpense += l.Actual
		}
	}
	return t
}

// ComparePlan compares the plan to the categorized rows of every month of r.
// A line is income when its target is positive, or when it has no target
// and its actual amount is positive. Lines are sorted income first, then by
// category.
func ComparePlan(p Plan, txs []Transaction, r date.Range) []PlanMonth {
	f := planFilter(p.AccountIDs, r)
	actuals := make(map[date.Date]map[int64]Cents)
	for _, t := range txs {
		if !f.Selects(t) || t.CategoryID == nil {
			continue
		}
		m := t.Posted.StartOf(date.Monthly)
		if actuals[m] == nil {
			actuals[m] = make(map[int64]Cents)
		}
		actuals[m][*t.CategoryID] += t.Amount
	}

	var months []PlanMonth
	for m := range r.Months() {
		categories := make(map[int64]bool)
		for _, it := range p.Items {
			categories[it.CategoryID] = true
		}
		for id := range actuals[m] {
			categories[id] = true
		}
		month := PlanMonth{Month: m}
		for id := range categories {
			l := PlanLine{CategoryID: id, Target: p.Target(id), Actual: actuals[m][id]}
			l.Difference = l.Actual - l.Target
			if l.Target != 0 {
				l.Income = l.Target > 0
			} else {
				l.Income = l.Actual > 0
			}
			month.Lines = append(month.Lines, l)
		}
		slices.SortFunc(month.Lines, func(a, b PlanLine) int {
			if a.Income != b.Income {
				if a.Income {
					return -1
				}
				return 1
			}
			return cmp.Compare(a.CategoryID, b.CategoryID)
		})
		months = append(months, month)
	}
	return months
}
