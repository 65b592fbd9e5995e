package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/budget"
)

// AccountsMarkdown renders the accounts of a book with their balance.
func AccountsMarkdown(accounts []budget.Account, balances map[int64]budget.Cents, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Accounts\n\n")
	if len(accounts) == 0 {
		fmt.Fprintf(&b, "No accounts yet.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| ID | Name | Type | Institution | Balance |")
	fmt.Fprintln(&b, "|---:|:---|:---|:---|---:|")
	var total budget.Cents
	for _, a := range accounts {
		total += balances[a.ID]
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n", a.ID, cell(a.Name), a.Type, cell(a.Institution), balances[a.ID].Format(currency))
	}
	fmt.Fprintf(&b, "\nTotal: **%s**\n", total.Format(currency))
	return b.String()
}

// PayeesMarkdown renders the payees with their matching rules and recurring
// schedule, if any.
func PayeesMarkdown(payees []budget.Payee, templates map[int64]budget.Template, accounts map[int64]string, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Payees\n\n")
	if len(payees) == 0 {
		fmt.Fprintf(&b, "No payees yet.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| ID | Name | Patterns | Category | Recurring |")
	fmt.Fprintln(&b, "|---:|:---|:---|:---|:---|")
	for _, p := range payees {
		patterns := make([]string, len(p.Patterns))
		for i, pat := range p.Patterns {
			patterns[i] = "`" + pat.String() + "`"
		}
		recurring := ""
		if t, ok := templates[p.ID]; ok {
			recurring = Schedule(t, accounts[t.AccountID], currency)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n", p.ID, cell(p.Name), cell(strings.Join(patterns, " ")), ref(p.DefaultCategoryID), cell(recurring))
	}
	return b.String()
}

// Schedule describes a recurring template in one line, e.g.
// "monthly on day 31 in Checking, fixed -$50.00".
func Schedule(t budget.Template, account string, currency string) string {
	var b strings.Builder
	switch t.Frequency {
	case budget.EveryNMonths:
		fmt.Fprintf(&b, "every %d months", t.Step)
	default:
		fmt.Fprintf(&b, "%s", t.Frequency)
	}
	fmt.Fprintf(&b, " on day %d", t.Day)
	if account != "" {
		fmt.Fprintf(&b, " in %s", account)
	}
	switch t.Method {
	case budget.Fixed:
		fmt.Fprintf(&b, ", fixed %s", t.Amount.SignedFormat(currency))
	case budget.Average:
		fmt.Fprintf(&b, ", average of the last %d", t.Count)
	default:
		fmt.Fprintf(&b, ", %s", t.Method)
	}
	fmt.Fprintf(&b, ", from %s", t.Start)
	if !t.End.IsZero() {
		fmt.Fprintf(&b, " to %s", t.End)
	}
	if !t.Active {
		fmt.Fprintf(&b, " (paused)")
	}
	return b.String()
}
