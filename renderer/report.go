package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

// category labels a category group, "Uncategorized" for nil.
func category(id *int64) string {
	if id == nil {
		return "Uncategorized"
	}
	return ref(id)
}

// SpendingMarkdown renders the spending groups of a report. Groups carrying
// a category are labelled by category, the others by payee.
func SpendingMarkdown(title string, groups []budget.Spending, r date.Range, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s, %s\n\n", title, periodName(r))
	if len(groups) == 0 {
		fmt.Fprintf(&b, "No spending.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Group | Spent | Count |")
	fmt.Fprintln(&b, "|:---|---:|---:|")
	var total budget.Cents
	count := 0
	for _, s := range groups {
		label := s.Label
		if label == "" {
			label = category(s.CategoryID)
		}
		total += s.Total
		count += s.Count
		fmt.Fprintf(&b, "| %s | %s | %d |\n", cell(label), s.Total.Format(currency), s.Count)
	}
	fmt.Fprintf(&b, "\nTotal: **%s** in %d transactions\n", total.Format(currency), count)
	return b.String()
}

// TrendMarkdown renders the spending of every month of a report.
func TrendMarkdown(months []budget.MonthSpending, r date.Range, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Spending trend, %s\n\n", periodName(r))
	fmt.Fprintln(&b, "| Month | Spent | Count |")
	fmt.Fprintln(&b, "|:---|---:|---:|")
	var total budget.Cents
	totals := make([]budget.Cents, len(months))
	for i, m := range months {
		total += m.Total
		totals[i] = m.Total
		fmt.Fprintf(&b, "| %s | %s | %d |\n", m.Month.Format("2006-01"), m.Total.Format(currency), m.Count)
	}
	if avg, ok := budget.Mean(totals); ok {
		fmt.Fprintf(&b, "\nTotal: **%s**, monthly average: **%s**\n", total.Format(currency), avg.Format(currency))
	}
	return b.String()
}

// PlansMarkdown renders the plans of a book.
func PlansMarkdown(plans []budget.Plan, accounts map[int64]string, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Budgets\n\n")
	if len(plans) == 0 {
		fmt.Fprintf(&b, "No budgets yet.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| ID | Name | Accounts | Monthly income | Monthly expenses | Status |")
	fmt.Fprintln(&b, "|---:|:---|:---|---:|---:|:---|")
	for _, p := range plans {
		names := make([]string, len(p.AccountIDs))
		for i, id := range p.AccountIDs {
			names[i] = accounts[id]
		}
		scope := strings.Join(names, ", ")
		if scope == "" {
			scope = "all"
		}
		var income, expenses budget.Cents
		for _, it := range p.Items {
			if it.Amount > 0 {
				income += it.Amount
			} else {
				expenses += it.Amount
			}
		}
		status := "active"
		if !p.Active {
			status = "inactive"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n", p.ID, cell(p.Name), cell(scope), income.Format(currency), expenses.Format(currency), status)
	}
	return b.String()
}

// PlanMarkdown renders the monthly targets of a plan.
func PlanMarkdown(p budget.Plan, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Budget %s\n\n", p.Name)
	if len(p.Items) == 0 {
		fmt.Fprintf(&b, "No targets.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Category | Monthly target |")
	fmt.Fprintln(&b, "|:---|---:|")
	for _, it := range p.Items {
		fmt.Fprintf(&b, "| %s | %s |\n", ref(&it.CategoryID), it.Amount.SignedFormat(currency))
	}
	return b.String()
}

// PlanComparisonMarkdown renders a plan against the actual amounts of each
// month, income first. Differences are positive when favorable.
func PlanComparisonMarkdown(p budget.Plan, months []budget.PlanMonth, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Budget %s vs actual\n", p.Name)
	for _, m := range months {
		fmt.Fprintf(&b, "\n## %s\n\n", m.Month.Format("January 2006"))
		if len(m.Lines) == 0 {
			fmt.Fprintf(&b, "Nothing planned or spent.\n")
			continue
		}
		fmt.Fprintln(&b, "| Category | Target | Actual | Difference |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|")
		for _, l := range m.Lines {
			label := ref(&l.CategoryID)
			if l.Income {
				label += " (income)"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", label, l.Target.SignedFormat(currency), l.Actual.SignedFormat(currency), l.Difference.SignedFormat(currency))
		}
		t := m.Totals()
		fmt.Fprintln(&b)
		ConditionalBlock(&b, func(w io.Writer) bool {
			fmt.Fprintf(w, "- Income: %s of %s\n", t.ActualIncome.SignedFormat(currency), t.TargetIncome.SignedFormat(currency))
			return t.TargetIncome != 0 || t.ActualIncome != 0
		})
		fmt.Fprintf(&b, "- Expenses: %s of %s\n", t.ActualExpense.SignedFormat(currency), t.TargetExpense.SignedFormat(currency))
	}
	return b.String()
}
