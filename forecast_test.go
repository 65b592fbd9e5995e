package budget

import (
	"reflect"
	"testing"
	"time"

	"github.com/etnz/budget/date"
)

func rent() Template {
	return Template{
		ID: 7, PayeeID: 3, Payee: "Rent", AccountID: 1,
		Frequency: Monthly, Day: 31, Method: Fixed, Amount: -5000,
		Start: date.New(2024, time.January, 1), Active: true,
	}
}

func actual(id, account int64, on date.Date, amount Cents, payee string) Transaction {
	return Transaction{ID: id, AccountID: account, Posted: on, Amount: amount, PayeeRaw: payee, Payee: payee, Kind: KindActual, Source: SourceManual}
}

func TestProject_LeapFebruary(t *testing.T) {
	got := Project([]Template{rent()}, 1, date.Month(2024, time.February), nil, nil)
	if len(got) != 1 {
		t.Fatalf("Project() returned %d forecasts, want 1", len(got))
	}
	f := got[0]
	if f.Date != date.New(2024, time.February, 29) || f.Amount != -5000 {
		t.Errorf("Project() = %v %v, want 2024-02-29 -5000", f.Date, f.Amount)
	}
	if f.Period != date.New(2024, time.February, 1) {
		t.Errorf("Period = %v, want 2024-02-01", f.Period)
	}
	if want := int64(-(7*100000 + 202402)); f.ID() != want {
		t.Errorf("ID() = %d, want %d", f.ID(), want)
	}
	tx := f.Transaction()
	if tx.Kind != KindForecast || tx.ID != f.ID() || tx.TemplateID == nil || *tx.TemplateID != 7 {
		t.Errorf("Transaction() = %+v", tx)
	}
}

func TestProject_Fulfillment(t *testing.T) {
	templates := []Template{rent()}
	feb := date.Month(2024, time.February)

	testCases := []struct {
		name    string
		history []Transaction
		want    int
	}{
		{name: "no payment", want: 1},
		{name: "exact payment", history: []Transaction{actual(1, 1, date.New(2024, time.February, 3), -5000, "Rent")}, want: 0},
		{name: "payee differs by case", history: []Transaction{actual(1, 1, date.New(2024, time.February, 3), -5000, "RENT ")}, want: 0},
		{name: "amount differs by one cent", history: []Transaction{actual(1, 1, date.New(2024, time.February, 3), -5001, "Rent")}, want: 1},
		{name: "other month", history: []Transaction{actual(1, 1, date.New(2024, time.January, 31), -5000, "Rent")}, want: 1},
		{name: "other account", history: []Transaction{actual(1, 2, date.New(2024, time.February, 3), -5000, "Rent")}, want: 1},
		{name: "unmatched payee", history: []Transaction{{ID: 1, AccountID: 1, Posted: date.New(2024, time.February, 3), Amount: -5000, PayeeRaw: "Rent", Kind: KindActual}}, want: 1},
		{name: "transfer row", history: []Transaction{{ID: 1, AccountID: 1, Posted: date.New(2024, time.February, 3), Amount: -5000, Payee: "Rent", Kind: KindTransfer}}, want: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Project(templates, 1, feb, tc.history, nil)
			if len(got) != tc.want {
				t.Errorf("Project() returned %d forecasts, want %d", len(got), tc.want)
			}
		})
	}
}

func TestProject_Idempotent(t *testing.T) {
	templates := []Template{
		rent(),
		{ID: 2, PayeeID: 4, Payee: "Gym", AccountID: 1, Frequency: Monthly, Day: 5, Method: Fixed, Amount: -2500, Start: date.New(2024, time.January, 1), Active: true},
		{ID: 3, PayeeID: 5, Payee: "Power", AccountID: 1, Frequency: Monthly, Day: 5, Method: Average, Count: 2, Start: date.New(2024, time.January, 1), Active: true},
	}
	history := []Transaction{
		actual(1, 1, date.New(2024, time.January, 5), -3000, "Power"),
		actual(2, 1, date.New(2024, time.February, 5), -2500, "Gym"),
	}
	r := date.Range{From: date.New(2024, time.February, 1), To: date.New(2024, time.April, 30)}

	first := Project(templates, 1, r, history, NewDismissalSet())
	second := Project(templates, 1, r, history, NewDismissalSet())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Project() is not deterministic:\n%v\n%v", first, second)
	}
	// Feb: power, rent (gym fulfilled); Mar: gym, power, rent; Apr: gym, power, rent.
	if len(first) != 8 {
		t.Fatalf("Project() returned %d forecasts, want 8: %v", len(first), first)
	}
	for i := 1; i < len(first); i++ {
		a, b := first[i-1], first[i]
		if b.Date.Before(a.Date) || (a.Date == b.Date && b.TemplateID < a.TemplateID) {
			t.Errorf("forecasts %d and %d are out of order: %v, %v", i-1, i, a, b)
		}
	}
}

func TestProject_Dismissed(t *testing.T) {
	dismissed := NewDismissalSet(NewDismissal(3, 1, date.New(2024, time.March, 17)))
	r := date.Range{From: date.New(2024, time.February, 1), To: date.New(2024, time.April, 30)}
	got := Project([]Template{rent()}, 1, r, nil, dismissed)
	if len(got) != 2 {
		t.Fatalf("Project() returned %d forecasts, want 2", len(got))
	}
	for _, f := range got {
		if f.Period.Month() == time.March {
			t.Errorf("dismissed forecast %v is projected", f)
		}
	}
}

func TestProject_Skips(t *testing.T) {
	inactive := rent()
	inactive.Active = false
	ended := rent()
	ended.End = date.New(2023, time.December, 31)
	feb := date.Month(2024, time.February)

	for name, tmpl := range map[string]Template{"inactive": inactive, "ended": ended} {
		if got := Project([]Template{tmpl}, 1, feb, nil, nil); len(got) != 0 {
			t.Errorf("%s template projected %v", name, got)
		}
	}
	if got := Project([]Template{rent()}, 2, feb, nil, nil); len(got) != 0 {
		t.Errorf("template of account 1 projected in account 2: %v", got)
	}
	if got := Project([]Template{rent()}, 1, date.Range{From: feb.To, To: feb.From}, nil, nil); len(got) != 0 {
		t.Errorf("empty range projected %v", got)
	}
}

func TestTemplateAmount(t *testing.T) {
	power := Template{ID: 3, Payee: "Power", AccountID: 1, Frequency: Monthly, Day: 5, Start: date.New(2024, time.January, 1), Active: true}
	history := []Transaction{
		actual(1, 1, date.New(2024, time.January, 5), -1000, "Power"),
		actual(2, 1, date.New(2024, time.February, 5), -1001, "Power"),
		actual(3, 1, date.New(2024, time.March, 5), -2000, "Power"),
		actual(4, 1, date.New(2024, time.March, 6), -9999, "Other"),
	}
	march := date.New(2024, time.March, 1)

	testCases := []struct {
		name   string
		method AmountMethod
		count  int
		period date.Date
		want   Cents
		wantOK bool
	}{
		{name: "copy last uses rows before the period", method: CopyLast, period: march, want: -1001, wantOK: true},
		{name: "copy last without history", method: CopyLast, period: date.New(2024, time.January, 1)},
		{name: "average ties away from zero", method: Average, count: 2, period: march, want: -1001, wantOK: true},
		{name: "average of fewer rows", method: Average, count: 5, period: date.New(2024, time.February, 1), want: -1000, wantOK: true},
		{name: "average of three", method: Average, count: 3, period: date.New(2024, time.April, 1), want: -1334, wantOK: true},
		{name: "average without history", method: Average, count: 3, period: date.New(2024, time.January, 1)},
		{name: "fixed", method: Fixed, period: march, want: -42, wantOK: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := power
			tmpl.Method, tmpl.Count, tmpl.Amount = tc.method, tc.count, -42
			got, ok := TemplateAmount(tmpl, history, tc.period)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("TemplateAmount() = %v, %v, want %v, %v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestMatchForecast(t *testing.T) {
	templates := []Template{rent()}
	payment := actual(10, 1, date.New(2024, time.February, 2), -5000, "Rent")

	f, ok := MatchForecast(payment, templates, nil)
	if !ok {
		t.Fatal("MatchForecast() found no forecast")
	}
	if f.TemplateID != 7 || f.Period != date.New(2024, time.February, 1) {
		t.Errorf("MatchForecast() = %+v", f)
	}
	if !Fulfills(payment, f) {
		t.Error("Fulfills() = false for the matched forecast")
	}

	payment.Amount = -4999
	if _, ok := MatchForecast(payment, templates, nil); ok {
		t.Error("MatchForecast() matched a different amount")
	}
}

func TestForecastWindow(t *testing.T) {
	today := date.New(2024, time.March, 17)
	testCases := []struct {
		r    date.Range
		want date.Range
	}{
		{r: date.Month(2024, time.February), want: date.Range{From: date.New(2024, time.March, 1), To: date.New(2024, time.February, 29)}},
		{r: date.Month(2024, time.March), want: date.Month(2024, time.March)},
		{r: date.Month(2024, time.April), want: date.Month(2024, time.April)},
		{
			r:    date.Range{From: date.New(2024, time.January, 1), To: date.New(2024, time.June, 30)},
			want: date.Range{From: date.New(2024, time.March, 1), To: date.New(2024, time.June, 30)},
		},
	}
	for _, tc := range testCases {
		if got := ForecastWindow(tc.r, today); got != tc.want {
			t.Errorf("ForecastWindow(%v) = %v, want %v", tc.r, got, tc.want)
		}
	}
	if !ForecastWindow(date.Month(2024, time.February), today).IsEmpty() {
		t.Error("a past month window must be empty")
	}
}
