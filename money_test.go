package budget

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		in      string
		want    Cents
		wantErr bool
	}{
		{in: "-12.34", want: -1234},
		{in: "1,250", want: 125000},
		{in: " 0.5 ", want: 50},
		{in: "100", want: 10000},
		{in: "0.001", wantErr: true},
		{in: "twelve", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range testCases {
		got, err := ParseAmount(tc.in, "USD")
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseAmount(%q) = %v, %v, want %v", tc.in, got, err, tc.want)
		}
	}

	// yen has no minor unit
	if got, err := ParseAmount("1500", "JPY"); err != nil || got != 1500 {
		t.Errorf("ParseAmount(1500, JPY) = %v, %v", got, err)
	}
}

func TestCents_Format(t *testing.T) {
	testCases := []struct {
		c      Cents
		format string
		signed string
		str    string
	}{
		{c: -1234, format: "-$12.34", signed: "-$12.34", str: "-12.34"},
		{c: 1234567, format: "$12,345.67", signed: "+$12,345.67", str: "12345.67"},
		{c: 0, format: "$0.00", signed: "$0.00", str: "0.00"},
	}
	for _, tc := range testCases {
		if got := tc.c.Format("USD"); got != tc.format {
			t.Errorf("Format(%d) = %q, want %q", tc.c, got, tc.format)
		}
		if got := tc.c.SignedFormat("USD"); got != tc.signed {
			t.Errorf("SignedFormat(%d) = %q, want %q", tc.c, got, tc.signed)
		}
		if got := tc.c.String(); got != tc.str {
			t.Errorf("String(%d) = %q, want %q", tc.c, got, tc.str)
		}
	}
}

func TestMean(t *testing.T) {
	testCases := []struct {
		values []Cents
		want   Cents
		wantOK bool
	}{
		{values: nil},
		{values: []Cents{-1000}, want: -1000, wantOK: true},
		{values: []Cents{-1000, -1001}, want: -1001, wantOK: true},
		{values: []Cents{1000, 1001}, want: 1001, wantOK: true},
		{values: []Cents{1, 1, 2}, want: 1, wantOK: true},
		{values: []Cents{2, 2, 1}, want: 2, wantOK: true},
	}
	for _, tc := range testCases {
		got, ok := Mean(tc.values)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Mean(%v) = %v, %v, want %v, %v", tc.values, got, ok, tc.want, tc.wantOK)
		}
	}
}
