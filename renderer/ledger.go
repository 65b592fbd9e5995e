package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

// LedgerMarkdown renders the ledger of an account over a period: committed
// rows and forecasts with the running balance, then the balances at the end
// of the period.
func LedgerMarkdown(v budget.LedgerView, account string, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s, %s\n\n", account, periodName(v.Period))
	fmt.Fprintf(&b, "Opening balance: **%s**\n\n", v.Opening.Format(currency))

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintln(w, "| Date | ID | Payee | Memo | Amount | Balance |")
		fmt.Fprintln(w, "|:---|---:|:---|:---|---:|---:|")
		for _, r := range v.Rows {
			id, label := fmt.Sprint(r.ID), cell(payee(r.Transaction))
			switch {
			case r.IsForecast():
				id, label = "", "_"+label+"_ (forecast)"
			case r.IsLinked():
				label += fmt.Sprintf(" ⇄ #%d", *r.TransferLinkID)
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
				r.Posted, id, label, cell(r.Memo), r.Amount.SignedFormat(currency), r.Balance.Format(currency))
		}
		fmt.Fprintln(w)
		return len(v.Rows) > 0
	})
	if len(v.Rows) == 0 {
		fmt.Fprintf(&b, "No transactions.\n\n")
	}

	fmt.Fprintf(&b, "- Actual balance: **%s**\n", v.Actual().Format(currency))
	if f := v.RemainingForecast(); f != 0 {
		fmt.Fprintf(&b, "- Remaining forecast: %s\n", f.SignedFormat(currency))
	}
	fmt.Fprintf(&b, "- Closing balance: **%s**\n", v.Closing().Format(currency))
	return b.String()
}

// ForecastsMarkdown renders the pending forecasts of an account.
func ForecastsMarkdown(fs []budget.Forecast, account string, r date.Range, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Forecasts for %s, %s\n\n", account, periodName(r))
	if len(fs) == 0 {
		fmt.Fprintf(&b, "Nothing pending.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Date | Month | Payee | Amount |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|")
	var total budget.Cents
	for _, f := range fs {
		total += f.Amount
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", f.Date, f.Period.Format("2006-01"), cell(f.Payee), f.Amount.SignedFormat(currency))
	}
	fmt.Fprintf(&b, "\nTotal: **%s**\n", total.SignedFormat(currency))
	return b.String()
}

// periodName returns "March 2024" for a calendar month, the bounds otherwise.
func periodName(r date.Range) string {
	if r.From.Day() == 1 && r.From.EndOf(date.Monthly) == r.To {
		return r.From.Format("January 2006")
	}
	return fmt.Sprintf("%s to %s", r.From, r.To)
}
