package date

import (
	"slices"
	"testing"
	"time"
)

func TestNewRange(t *testing.T) {
	testCases := []struct {
		name   string
		in     Date
		period Period
		want   Range
	}{
		{
			name:   "A Wednesday",
			in:     New(2025, time.September, 10),
			period: Weekly,
			want:   Range{From: New(2025, time.September, 8), To: New(2025, time.September, 14)},
		},
		{
			name:   "A leap year",
			in:     New(2024, time.February, 15),
			period: Monthly,
			want:   Range{From: New(2024, time.February, 1), To: New(2024, time.February, 29)},
		},
		{
			name:   "Q2",
			in:     New(2025, time.May, 20),
			period: Quarterly,
			want:   Range{From: New(2025, time.April, 1), To: New(2025, time.June, 30)},
		},
		{
			name:   "Year",
			in:     New(2025, time.September, 8),
			period: Yearly,
			want:   Range{From: New(2025, time.January, 1), To: New(2025, time.December, 31)},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewRange(tc.in, tc.period); got != tc.want {
				t.Errorf("NewRange(%v, %v) = %v, want %v", tc.in, tc.period, got, tc.want)
			}
		})
	}
}

func TestRange_Months(t *testing.T) {
	r := Range{From: New(2024, time.November, 15), To: New(2025, time.February, 3)}
	got := slices.Collect(r.Months())
	want := []Date{
		New(2024, time.November, 1),
		New(2024, time.December, 1),
		New(2025, time.January, 1),
		New(2025, time.February, 1),
	}
	if !slices.Equal(got, want) {
		t.Errorf("Months() = %v, want %v", got, want)
	}

	empty := Range{From: New(2025, time.March, 1), To: New(2025, time.February, 1)}
	if n := len(slices.Collect(empty.Months())); n != 0 {
		t.Errorf("Months() of an empty range yielded %d months", n)
	}
}

func TestRange_Intersects(t *testing.T) {
	r := Month(2024, time.March)
	testCases := []struct {
		name     string
		from, to Date
		want     bool
	}{
		{"open ended before", New(2024, time.January, 1), Date{}, true},
		{"ends before", New(2024, time.January, 1), New(2024, time.February, 29), false},
		{"ends on first day", New(2024, time.January, 1), New(2024, time.March, 1), true},
		{"starts after", New(2024, time.April, 1), Date{}, false},
		{"starts on last day", New(2024, time.March, 31), Date{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Intersects(tc.from, tc.to); got != tc.want {
				t.Errorf("Intersects(%v, %v) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestRange_Identifier(t *testing.T) {
	testCases := []struct {
		name string
		in   Range
		want string
	}{
		{"Monthly Identifier", Month(2025, time.September), "2025-09"},
		{"Custom Range Identifier", Range{From: New(2025, time.September, 2), To: New(2025, time.September, 10)}, "2025-09-02_2025-09-10"},
		{"Multi month", Range{From: New(2025, time.January, 1), To: New(2025, time.February, 28)}, "2025-01-01_2025-02-28"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Identifier(); got != tc.want {
				t.Errorf("Identifier() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		want    Period
		wantErr bool
	}{
		{"Daily", "daily", Daily, false},
		{"Weekly", "weekly", Weekly, false},
		{"Monthly", "monthly", Monthly, false},
		{"Quarterly", "quarterly", Quarterly, false},
		{"Yearly", "yearly", Yearly, false},
		{"Unknown", "unknown", Daily, true},
		{"Month", "month", Monthly, false},
		{"Year", "year", Yearly, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePeriod(tc.in)
			if (err != nil) != tc.wantErr {
				t.Errorf("ParsePeriod() error = %v, wantErr %v", err, tc.wantErr)
				return
			}
			if got != tc.want {
				t.Errorf("ParsePeriod() = %v, want %v", got, tc.want)
			}
		})
	}
}
