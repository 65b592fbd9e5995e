package budget

import "github.com/etnz/budget/date"

// Dismissal suppresses the forecast of a payee in an account for one period,
// until it is cleared.
type Dismissal struct {
	PayeeID   int64
	AccountID int64
	Period    date.Date // first day of the dismissed month
}

// NewDismissal returns the dismissal of the month containing on.
func NewDismissal(payeeID, accountID int64, on date.Date) Dismissal {
	return Dismissal{PayeeID: payeeID, AccountID: accountID, Period: on.StartOf(date.Monthly)}
}

// DismissalSet indexes dismissals. The nil set is empty.
type DismissalSet map[Dismissal]struct{}

// NewDismissalSet returns a set holding ds.
func NewDismissalSet(ds ...Dismissal) DismissalSet {
	s := make(DismissalSet, len(ds))
	for _, d := range ds {
		s[NewDismissal(d.PayeeID, d.AccountID, d.Period)] = struct{}{}
	}
	return s
}

// Contains reports whether d is dismissed.
func (s DismissalSet) Contains(d Dismissal) bool {
	_, ok := s[NewDismissal(d.PayeeID, d.AccountID, d.Period)]
	return ok
}
