package budget

import (
	"cmp"
	"slices"

	"github.com/etnz/budget/date"
)

// compareRows orders ledger rows by posted date, committed rows before
// forecasts, then creation time and id. Forecasts of the same day follow
// their template order.
func compareRows(a, b Transaction) int {
	if c := a.Posted.Compare(b.Posted); c != 0 {
		return c
	}
	if a.IsForecast() != b.IsForecast() {
		if a.IsForecast() {
			return 1
		}
		return -1
	}
	if a.IsForecast() {
		var ta, tb int64
		if a.TemplateID != nil {
			ta = *a.TemplateID
		}
		if b.TemplateID != nil {
			tb = *b.TemplateID
		}
		if c := cmp.Compare(ta, tb); c != 0 {
			return c
		}
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortLedger sorts rows in ledger order. The order is total, so the running
// balance of a ledger is stable across reads.
func SortLedger(rows []Transaction) { slices.SortStableFunc(rows, compareRows) }

// OpeningBalance returns the balance before start: the sum of the persisted
// rows posted strictly before it. Forecast rows are ignored.
func OpeningBalance(txs []Transaction, start date.Date) Cents {
	var sum Cents
	for _, tx := range txs {
		if !tx.IsForecast() && tx.Posted.Before(start) {
			sum += tx.Amount
		}
	}
	return sum
}

// Row is a ledger row with the account balance right after it.
type Row struct {
	Transaction
	Balance Cents
}

// LedgerView is the ledger of one account over a period: committed rows and
// forecasts merged in ledger order with a running balance.
type LedgerView struct {
	AccountID int64
	Period    date.Range
	Opening   Cents
	Rows      []Row
}

// NewLedgerView merges the committed rows and forecasts of accountID posted
// in period, and computes the running balance from opening.
func NewLedgerView(accountID int64, period date.Range, opening Cents, committed []Transaction, forecasts []Forecast) LedgerView {
	rows := make([]Transaction, 0, len(committed)+len(forecasts))
	for _, tx := range committed {
		if tx.AccountID == accountID && !tx.IsForecast() && period.Contains(tx.Posted) {
			rows = append(rows, tx)
		}
	}
	for _, f := range forecasts {
		if f.AccountID == accountID && period.Contains(f.Date) {
			rows = append(rows, f.Transaction())
		}
	}
	SortLedger(rows)

	v := LedgerView{AccountID: accountID, Period: period, Opening: opening, Rows: make([]Row, len(rows))}
	balance := opening
	for i, tx := range rows {
		balance += tx.Amount
		v.Rows[i] = Row{Transaction: tx, Balance: balance}
	}
	return v
}

// Closing returns the balance after the last row of the view.
func (v LedgerView) Closing() Cents {
	if len(v.Rows) == 0 {
		return v.Opening
	}
	return v.Rows[len(v.Rows)-1].Balance
}

// RemainingForecast returns the sum of the forecast rows of the view.
func (v LedgerView) RemainingForecast() Cents {
	var sum Cents
	for _, r := range v.Rows {
		if r.IsForecast() {
			sum += r.Amount
		}
	}
	return sum
}

// Actual returns the balance after the last committed row of the view.
func (v LedgerView) Actual() Cents {
	return v.Closing() - v.RemainingForecast()
}
