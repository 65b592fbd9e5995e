package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/etnz/budget/date"
)

// Frequency is how often a recurring payment happens.
type Frequency string

// Supported frequencies.
const (
	Monthly      Frequency = "monthly"
	EveryNMonths Frequency = "every_n_months"
	Annual       Frequency = "annual"
)

// ParseFrequency parses a Frequency from its string representation.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case Monthly, EveryNMonths, Annual:
		return f, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

// AmountMethod is how a template computes the amount of its forecasts.
type AmountMethod string

// Supported amount methods.
const (
	Fixed    AmountMethod = "fixed"
	CopyLast AmountMethod = "copy_last"
	Average  AmountMethod = "average"
)

// ParseAmountMethod parses an AmountMethod from its string representation.
func ParseAmountMethod(s string) (AmountMethod, error) {
	switch m := AmountMethod(s); m {
	case Fixed, CopyLast, Average:
		return m, nil
	default:
		return "", fmt.Errorf("unknown amount method %q", s)
	}
}

// DefaultAverageCount is the number of past payments averaged when a template
// does not say otherwise.
const DefaultAverageCount = 3

// Template is the recurring rule of a payee: it projects forecast instances
// into an account ledger.
type Template struct {
	ID         int64
	PayeeID    int64
	Payee      string // payee name, the identity of the payments it forecasts
	AccountID  int64
	Frequency  Frequency
	Step       int // months between occurrences, for EveryNMonths
	Day        int // anchor day of month, 1..31
	Method     AmountMethod
	Amount     Cents // signed amount, for Fixed
	Count      int   // number of payments averaged, for Average
	CategoryID *int64
	Start      date.Date
	End        date.Date // zero for open-ended templates
	Active     bool
}

// DefaultStart returns the start date of a template created on day: the first
// day of the following month.
func DefaultStart(day date.Date) date.Date { return day.StartOf(date.Monthly).AddMonth(1) }

// Validate checks the template and applies defaults.
func (t Template) Validate() (Template, error) {
	var errs error
	if t.AccountID == 0 {
		errs = errors.Join(errs, errors.New("template account is missing"))
	}
	if t.PayeeID == 0 {
		errs = errors.Join(errs, errors.New("template payee is missing"))
	}
	if t.Frequency == "" {
		t.Frequency = Monthly
	}
	if t.Frequency == EveryNMonths && t.Step < 1 {
		errs = errors.Join(errs, fmt.Errorf("every_n_months requires a step of at least 1, got %d", t.Step))
	}
	if t.Frequency != EveryNMonths {
		t.Step = 1
	}
	if t.Day < 1 || t.Day > 31 {
		errs = errors.Join(errs, fmt.Errorf("day of month must be in [1, 31], got %d", t.Day))
	}
	if t.Method == "" {
		t.Method = Fixed
	}
	if t.Method == Average && t.Count < 1 {
		t.Count = DefaultAverageCount
	}
	if t.Start.IsZero() {
		errs = errors.Join(errs, fmt.Errorf("%w: template start date is missing", ErrInvalidDate))
	}
	if !t.End.IsZero() && t.End.Before(t.Start) {
		errs = errors.Join(errs, fmt.Errorf("template ends %s before it starts %s", t.End, t.Start))
	}
	return t, errs
}

// step returns the number of months between two occurrences.
func (t Template) step() int {
	switch t.Frequency {
	case EveryNMonths:
		if t.Step < 1 {
			return 1
		}
		return t.Step
	case Annual:
		return 12
	default:
		return 1
	}
}

// NextOccurrence returns the date scheduled by t in the given month, if any.
//
// The anchor day is clamped to the last day of shorter months. Months before
// the start month, dates before the start date or after the end date, and
// months off the template cadence yield no date.
func NextOccurrence(t Template, year int, month time.Month) (date.Date, bool) {
	if t.Start.IsZero() {
		return date.Date{}, false
	}
	target := date.New(year, month, 1)
	elapsed := target.MonthIndex() - t.Start.MonthIndex()
	if elapsed < 0 || elapsed%t.step() != 0 {
		return date.Date{}, false
	}
	on := date.Clamp(target.Year(), target.Month(), t.Day)
	if on.Before(t.Start) {
		return date.Date{}, false
	}
	if !t.End.IsZero() && on.After(t.End) {
		return date.Date{}, false
	}
	return on, true
}
