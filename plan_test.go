package budget

import (
	"reflect"
	"testing"
	"time"

	"github.com/etnz/budget/date"
)

func TestPlan_Validate(t *testing.T) {
	p, err := Plan{Name: " Household ", AccountIDs: []int64{3, 1, 3}, Items: []PlanItem{{2, -100}, {1, -200}}}.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if p.Name != "Household" || !reflect.DeepEqual(p.AccountIDs, []int64{1, 3}) || p.Items[0].CategoryID != 1 {
		t.Errorf("Validate() = %+v", p)
	}
	if p.Target(2) != -100 || p.Target(9) != 0 {
		t.Errorf("Target() = %v, %v, want -1.00, 0", p.Target(2), p.Target(9))
	}
	if _, err := (Plan{Name: "X", Items: []PlanItem{{1, -1}, {1, -2}}}).Validate(); err == nil {
		t.Error("Validate() accepted two targets for one category")
	}
	if _, err := (Plan{Name: "  "}).Validate(); err == nil {
		t.Error("Validate() accepted an empty name")
	}
}

func TestAveragePlan(t *testing.T) {
	groceries, fees, misc := Int64(1), Int64(2), Int64(3)
	rows := []Transaction{
		{AccountID: 1, Posted: date.New(2024, time.January, 5), Amount: -4000, CategoryID: groceries, Kind: KindActual},
		{AccountID: 1, Posted: date.New(2024, time.February, 5), Amount: -6000, CategoryID: groceries, Kind: KindActual},
		{AccountID: 1, Posted: date.New(2024, time.March, 5), Amount: -5, CategoryID: fees, Kind: KindTransfer},
		{AccountID: 1, Posted: date.New(2024, time.March, 6), Amount: 1, CategoryID: misc, Kind: KindActual},
		{AccountID: 1, Posted: date.New(2024, time.March, 7), Amount: -9000, Kind: KindActual},
		{AccountID: 2, Posted: date.New(2024, time.March, 8), Amount: -9000, CategoryID: groceries, Kind: KindActual},
		{AccountID: 1, Posted: date.New(2024, time.April, 1), Amount: -9000, CategoryID: groceries, Kind: KindActual},
	}
	r := date.Range{From: date.New(2024, time.January, 1), To: date.New(2024, time.March, 31)}
	got := AveragePlan(rows, []int64{1}, r)
	want := []PlanItem{
		{CategoryID: 1, Amount: -3333},
		{CategoryID: 2, Amount: -2}, // -1.67
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AveragePlan() = %+v, want %+v", got, want)
	}
	if got := AveragePlan(rows, nil, date.Range{From: r.To, To: r.From}); got != nil {
		t.Errorf("AveragePlan() over an empty range = %+v", got)
	}
}

func TestComparePlan(t *testing.T) {
	groceries, shopping, salary := int64(1), int64(2), int64(3)
	p := Plan{Name: "Household", Items: []PlanItem{{groceries, -40000}, {salary, 250000}}}
	rows := []Transaction{
		{AccountID: 1, Posted: date.New(2024, time.March, 2), Amount: -45000, CategoryID: Int64(groceries), Kind: KindActual},
		{AccountID: 1, Posted: date.New(2024, time.March, 15), Amount: 260000, CategoryID: Int64(salary), Kind: KindActual},
		{AccountID: 1, Posted: date.New(2024, time.March, 20), Amount: -1000, CategoryID: Int64(shopping), Kind: KindActual},
		{AccountID: 1, Posted: date.New(2024, time.March, 21), Amount: -7000, Kind: KindActual},
	}
	r := date.Range{From: date.New(2024, time.March, 1), To: date.New(2024, time.April, 30)}
	got := ComparePlan(p, rows, r)
	if len(got) != 2 {
		t.Fatalf("ComparePlan() returned %d months, want 2", len(got))
	}

	march := []PlanLine{
		{CategoryID: salary, Target: 250000, Actual: 260000, Difference: 10000, Income: true},
		{CategoryID: groceries, Target: -40000, Actual: -45000, Difference: -5000},
		{CategoryID: shopping, Actual: -1000, Difference: -1000},
	}
	if !reflect.DeepEqual(got[0].Lines, march) {
		t.Errorf("March lines =\n%+v\nwant\n%+v", got[0].Lines, march)
	}
	wantTotals := PlanTotals{TargetIncome: 250000, ActualIncome: 260000, TargetExpense: -40000, ActualExpense: -46000}
	if totals := got[0].Totals(); totals != wantTotals {
		t.Errorf("March totals = %+v, want %+v", totals, wantTotals)
	}

	april := []PlanLine{
		{CategoryID: salary, Target: 250000, Difference: -250000, Income: true},
		{CategoryID: groceries, Target: -40000, Difference: 40000},
	}
	if got[1].Month != date.New(2024, time.April, 1) || !reflect.DeepEqual(got[1].Lines, april) {
		t.Errorf("April = %v %+v, want %+v", got[1].Month, got[1].Lines, april)
	}
}
