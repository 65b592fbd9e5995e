package date

import (
	"fmt"
	"iter"
	"time"
)

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// NewRange return a well known period
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// Month returns the range covering a whole calendar month.
func Month(year int, month time.Month) Range {
	return NewRange(New(year, month, 1), Monthly)
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// IsEmpty reports whether the range contains no day at all.
func (r Range) IsEmpty() bool { return r.To.Before(r.From) }

// Intersects reports whether r and [from, to] share at least one day. A zero
// `to` means open-ended.
func (r Range) Intersects(from, to Date) bool {
	if r.IsEmpty() {
		return false
	}
	if !to.IsZero() && to.Before(r.From) {
		return false
	}
	return !from.After(r.To)
}

// Months yields the first day of every calendar month the range touches, in
// chronological order.
func (r Range) Months() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		if r.IsEmpty() {
			return
		}
		last := r.To.StartOf(Monthly)
		for m := r.From.StartOf(Monthly); !m.After(last); m = m.AddMonth(1) {
			if !yield(m) {
				return
			}
		}
	}
}

// Identifier compute a unique identifier for the Range.
// If the range is a month, use a short insighful name.
func (r Range) Identifier() string {
	if r.From.Day() == 1 && r.From.EndOf(Monthly) == r.To {
		return r.From.Format("2006-01")
	}
	return fmt.Sprintf("%s_%s", r.From, r.To)
}

func (r Range) String() string { return r.Identifier() }
