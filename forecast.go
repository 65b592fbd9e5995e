package budget

import (
	"cmp"
	"slices"

	"github.com/etnz/budget/date"
)

// Forecast is a projected instance of a recurring template. It is computed on
// every read and never stored.
type Forecast struct {
	TemplateID int64
	PayeeID    int64
	AccountID  int64
	Payee      string
	Date       date.Date // scheduled date
	Period     date.Date // first day of the scheduled month
	Amount     Cents
	CategoryID *int64
}

// ID returns the synthetic, negative identifier of the forecast row. It is
// stable for a given (template, period).
func (f Forecast) ID() int64 {
	return -(f.TemplateID*100000 + int64(f.Period.Year())*100 + int64(f.Period.Month()))
}

// Dismissal returns the record that would suppress this forecast.
func (f Forecast) Dismissal() Dismissal { return NewDismissal(f.PayeeID, f.AccountID, f.Period) }

// Transaction renders the forecast as a ledger row of kind forecast.
func (f Forecast) Transaction() Transaction {
	return Transaction{
		ID:         f.ID(),
		AccountID:  f.AccountID,
		Posted:     f.Date,
		Amount:     f.Amount,
		Payee:      f.Payee,
		CategoryID: f.CategoryID,
		Kind:       KindForecast,
		Source:     SourceSystem,
		TemplateID: Int64(f.TemplateID),
	}
}

// ForecastWindow clips r to the periods forecasts are shown for: the current
// month and later. The result may be empty.
func ForecastWindow(r date.Range, today date.Date) date.Range {
	if first := today.StartOf(date.Monthly); r.From.Before(first) {
		r.From = first
	}
	return r
}

// payments indexes the actual rows of each payee identity, most recent first.
type payments map[string][]Transaction

func newPayments(history []Transaction) payments {
	p := make(payments)
	for _, tx := range history {
		if tx.Kind != KindActual {
			continue
		}
		if id := tx.PayeeIdentity(); id != "" {
			p[id] = append(p[id], tx)
		}
	}
	for _, txs := range p {
		slices.SortFunc(txs, func(a, b Transaction) int { return -compareRows(a, b) })
	}
	return p
}

// before returns up to n amounts of payee posted strictly before day, most
// recent first.
func (p payments) before(payee string, day date.Date, n int) []Cents {
	var amounts []Cents
	for _, tx := range p[NormalizePayee(payee)] {
		if len(amounts) == n {
			break
		}
		if tx.Posted.Before(day) {
			amounts = append(amounts, tx.Amount)
		}
	}
	return amounts
}

// amount computes the forecast amount of t for the given period.
func (p payments) amount(t Template, period date.Date) (Cents, bool) {
	switch t.Method {
	case CopyLast:
		last := p.before(t.Payee, period, 1)
		if len(last) == 0 {
			return 0, false
		}
		return last[0], true
	case Average:
		n := t.Count
		if n < 1 {
			n = DefaultAverageCount
		}
		return Mean(p.before(t.Payee, period, n))
	default:
		return t.Amount, true
	}
}

// TemplateAmount returns the amount t forecasts for the month of period,
// learnt from history when the template copies or averages past payments.
func TemplateAmount(t Template, history []Transaction, period date.Date) (Cents, bool) {
	return newPayments(history).amount(t, period.StartOf(date.Monthly))
}

// Project expands the active templates of an account into the forecast
// instances scheduled in r.
//
// history holds the committed rows of the book; it is used both to compute
// copy_last and average amounts and to drop instances already fulfilled by an
// actual payment. Dismissed instances are dropped as well. The result is
// sorted by date then template.
//
// Project does not know about "today": callers restrict r with ForecastWindow.
func Project(templates []Template, accountID int64, r date.Range, history []Transaction, dismissed DismissalSet) []Forecast {
	if r.IsEmpty() {
		return nil
	}
	pays := newPayments(history)
	var forecasts []Forecast
	for _, t := range templates {
		if !t.Active || t.AccountID != accountID || !r.Intersects(t.Start, t.End) {
			continue
		}
		for month := range r.Months() {
			on, ok := NextOccurrence(t, month.Year(), month.Month())
			if !ok || !r.Contains(on) {
				continue
			}
			amount, ok := pays.amount(t, month)
			if !ok {
				continue
			}
			f := Forecast{
				TemplateID: t.ID,
				PayeeID:    t.PayeeID,
				AccountID:  t.AccountID,
				Payee:      t.Payee,
				Date:       on,
				Period:     month,
				Amount:     amount,
				CategoryID: t.CategoryID,
			}
			if dismissed.Contains(f.Dismissal()) || pays.fulfilled(f) {
				continue
			}
			forecasts = append(forecasts, f)
		}
	}
	slices.SortFunc(forecasts, func(a, b Forecast) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.TemplateID, b.TemplateID)
	})
	return forecasts
}

// fulfilled reports whether an actual payment already satisfies f.
func (p payments) fulfilled(f Forecast) bool {
	for _, tx := range p[NormalizePayee(f.Payee)] {
		if Fulfills(tx, f) {
			return true
		}
	}
	return false
}

// Fulfills reports whether the actual row tx satisfies the forecast f: same
// account and payee identity, posted in the same calendar month, and exactly
// the same amount.
func Fulfills(tx Transaction, f Forecast) bool {
	return tx.Kind == KindActual &&
		tx.AccountID == f.AccountID &&
		tx.PayeeIdentity() != "" &&
		tx.PayeeIdentity() == NormalizePayee(f.Payee) &&
		tx.Posted.Year() == f.Period.Year() && tx.Posted.Month() == f.Period.Month() &&
		tx.Amount == f.Amount
}

// MatchForecast returns the forecast instance that the actual row tx fulfills
// among the active templates, if any. Dismissals are not considered: a
// payment fulfills its period whether or not the forecast was dismissed.
func MatchForecast(tx Transaction, templates []Template, history []Transaction) (Forecast, bool) {
	if tx.Kind != KindActual || tx.PayeeIdentity() == "" {
		return Forecast{}, false
	}
	period := tx.Posted.StartOf(date.Monthly)
	pays := newPayments(history)
	for _, t := range templates {
		if !t.Active || t.AccountID != tx.AccountID || NormalizePayee(t.Payee) != tx.PayeeIdentity() {
			continue
		}
		on, ok := NextOccurrence(t, period.Year(), period.Month())
		if !ok {
			continue
		}
		amount, ok := pays.amount(t, period)
		if !ok {
			continue
		}
		f := Forecast{
			TemplateID: t.ID,
			PayeeID:    t.PayeeID,
			AccountID:  t.AccountID,
			Payee:      t.Payee,
			Date:       on,
			Period:     period,
			Amount:     amount,
			CategoryID: t.CategoryID,
		}
		if Fulfills(tx, f) {
			return f, true
		}
	}
	return Forecast{}, false
}
