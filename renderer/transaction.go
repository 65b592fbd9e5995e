package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/budget"
)

// Transaction renders a transaction to a one line string.
func Transaction(tx budget.Transaction, currency string) string {
	var b strings.Builder
	if tx.ID > 0 {
		fmt.Fprintf(&b, "#%d ", tx.ID)
	}
	fmt.Fprintf(&b, "%s %s %s", tx.Posted, payee(tx), tx.Amount.Format(currency))
	switch {
	case tx.IsLinked():
		fmt.Fprintf(&b, " (transfer with #%d)", *tx.TransferLinkID)
	case tx.Kind != budget.KindActual:
		fmt.Fprintf(&b, " (%s)", tx.Kind)
	}
	if tx.Memo != "" {
		fmt.Fprintf(&b, ": %s", tx.Memo)
	}
	return b.String()
}

// TransferMarkdown renders both sides of a transfer.
func TransferMarkdown(from, to budget.Transaction, accounts map[int64]string, currency string) string {
	var b strings.Builder
	fmt.Fprintln(&b, "| Side | ID | Account | Date | Amount |")
	fmt.Fprintln(&b, "|:---|---:|:---|:---|---:|")
	for _, side := range []struct {
		name string
		tx   budget.Transaction
	}{{"from", from}, {"to", to}} {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n", side.name, side.tx.ID, cell(accounts[side.tx.AccountID]), side.tx.Posted, side.tx.Amount.Format(currency))
	}
	return b.String()
}

// payee returns the label of a row in a ledger: its display payee, or a
// transfer mention for counterparts that have none.
func payee(tx budget.Transaction) string {
	if p := tx.DisplayPayee(); p != "" {
		return p
	}
	if tx.Kind == budget.KindTransfer {
		return "Transfer"
	}
	return "-"
}
