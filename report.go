package budget

import (
	"cmp"
	"slices"

	"github.com/etnz/budget/date"
)

// ReportFilter selects the rows of a spending report. Only actual rows are
// reported, and transfers when IncludeTransfers is set: forecasts and
// balance adjustments are never spending.
type ReportFilter struct {
	Range            date.Range
	AccountIDs       []int64 // empty means every account
	CategoryIDs      []int64 // empty means every category, uncategorized rows included
	IncludeTransfers bool
}

// Selects reports whether t enters a report filtered by f.
func (f ReportFilter) Selects(t Transaction) bool {
	switch t.Kind {
	case KindActual:
	case KindTransfer:
		if !f.IncludeTransfers {
			return false
		}
	default:
		return false
	}
	if !f.Range.Contains(t.Posted) {
		return false
	}
	if len(f.AccountIDs) > 0 && !slices.Contains(f.AccountIDs, t.AccountID) {
		return false
	}
	if len(f.CategoryIDs) > 0 && (t.CategoryID == nil || !slices.Contains(f.CategoryIDs, *t.CategoryID)) {
		return false
	}
	return true
}

// Spending is the total of a group of rows. Outflows count positive, so a
// group of refunds or income has a negative total.
type Spending struct {
	Label      string // payee of a payee group
	CategoryID *int64 // category of a category group, nil for uncategorized rows
	Total      Cents
	Count      int
}

// UnknownPayee labels rows with no payee at all.
const UnknownPayee = "Unknown"

// SpendingByCategory groups the rows selected by f by category, largest
// magnitude first.
func SpendingByCategory(txs []Transaction, f ReportFilter) []Spending {
	groups := make(map[int64]*Spending)
	var uncategorized *Spending
	for _, t := range txs {
		if !f.Selects(t) {
			continue
		}
		var s *Spending
		if t.CategoryID == nil {
			if uncategorized == nil {
				uncategorized = &Spending{}
			}
			s = uncategorized
		} else {
			if groups[*t.CategoryID] == nil {
				groups[*t.CategoryID] = &Spending{CategoryID: Int64(*t.CategoryID)}
			}
			s = groups[*t.CategoryID]
		}
		s.Total -= t.Amount
		s.Count++
	}
	list := make([]Spending, 0, len(groups)+1)
	for _, s := range groups {
		list = append(list, *s)
	}
	if uncategorized != nil {
		list = append(list, *uncategorized)
	}
	slices.SortFunc(list, func(a, b Spending) int {
		if c := cmp.Compare(b.Total.Abs(), a.Total.Abs()); c != 0 {
			return c
		}
		return compareCategory(a.CategoryID, b.CategoryID)
	})
	return list
}

// compareCategory orders category ids, uncategorized last.
func compareCategory(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

// SpendingByPayee groups the rows selected by f by display payee, largest
// magnitude first.
func SpendingByPayee(txs []Transaction, f ReportFilter) []Spending {
	groups := make(map[string]*Spending)
	for _, t := range txs {
		if !f.Selects(t) {
			continue
		}
		label := t.DisplayPayee()
		if label == "" {
			label = UnknownPayee
		}
		if groups[label] == nil {
			groups[label] = &Spending{Label: label}
		}
		groups[label].Total -= t.Amount
		groups[label].Count++
	}
	list := make([]Spending, 0, len(groups))
	for _, s := range groups {
		list = append(list, *s)
	}
	slices.SortFunc(list, func(a, b Spending) int {
		if c := cmp.Compare(b.Total.Abs(), a.Total.Abs()); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return list
}

// MonthSpending is the spending of one calendar month.
type MonthSpending struct {
	Month date.Date // first day of the month
	Total Cents
	Count int
}

// SpendingTrend returns the spending of every month of the filter range, in
// chronological order. Months without rows are included with a zero total.
func SpendingTrend(txs []Transaction, f ReportFilter) []MonthSpending {
	var list []MonthSpending
	index := make(map[date.Date]int)
	for m := range f.Range.Months() {
		index[m] = len(list)
		list = append(list, MonthSpending{Month: m})
	}
	for _, t := range txs {
		if !f.Selects(t) {
			continue
		}
		i := index[t.Posted.StartOf(date.Monthly)]
		list[i].Total -= t.Amount
		list[i].Count++
	}
	return list
}
