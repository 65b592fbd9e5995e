package budget

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that cannot be represented in
// minor units of the book currency.
var ErrInvalidAmount = errors.New("invalid amount")

// Cents is a signed amount in minor units of the book currency (cents for
// USD or EUR). Negative amounts are outflows.
type Cents int64

// Abs returns the magnitude of c.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// Decimal returns c as a major unit decimal (e.g. -5000 cents is -50.00).
func (c Cents) Decimal(currency string) decimal.Decimal {
	return decimal.New(int64(c), -fraction(currency))
}

// String returns the amount in major units with two fraction digits.
func (c Cents) String() string { return decimal.New(int64(c), -2).StringFixed(2) }

// Format returns the amount formatted for display in the given currency, e.g.
// "-$50.00".
func (c Cents) Format(currency string) string {
	return money.New(int64(c), currency).Display()
}

// SignedFormat is like Format but always prints the sign of non zero amounts.
func (c Cents) SignedFormat(currency string) string {
	if c > 0 {
		return "+" + c.Format(currency)
	}
	return c.Format(currency)
}

// fraction returns the number of minor unit digits of the currency.
func fraction(currency string) int32 {
	// to get a never nil currency I need to call the Money constructor
	return int32(money.New(0, currency).Currency().Fraction)
}

// ParseAmount parses a major unit amount like "-12.34" or "1,250" into minor
// units of the currency. Amounts finer than the currency minor unit are
// rejected rather than rounded.
func ParseAmount(s, currency string) (Cents, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidAmount, s, err)
	}
	return FromDecimal(d, currency)
}

// FromDecimal converts a major unit decimal into minor units.
func FromDecimal(d decimal.Decimal, currency string) (Cents, error) {
	shifted := d.Shift(fraction(currency))
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w %s: more precise than the %s minor unit", ErrInvalidAmount, d, currency)
	}
	if shifted.Abs().GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, fmt.Errorf("%w %s: out of range", ErrInvalidAmount, d)
	}
	return Cents(shifted.IntPart()), nil
}

// Mean returns the arithmetic mean of values rounded to the nearest minor
// unit, ties away from zero. It returns false for an empty slice.
func Mean(values []Cents) (Cents, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromInt(int64(v)))
	}
	// decimal rounds half away from zero.
	mean := sum.Div(decimal.NewFromInt(int64(len(values)))).Round(0)
	return Cents(mean.IntPart()), true
}
