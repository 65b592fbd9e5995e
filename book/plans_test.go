package book

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

func TestPlans(t *testing.T) {
	ctx := context.Background()
	b := newBook(t)
	checking := mustAccount(t, b, "Checking")
	savings := mustAccount(t, b, "Savings")

	p, err := b.SetPlan(ctx, budget.Plan{Name: "Household", Active: true, AccountIDs: []int64{checking.ID},
		Items: []budget.PlanItem{{CategoryID: 2, Amount: -40000}, {CategoryID: 1, Amount: 250000}}})
	if err != nil {
		t.Fatalf("SetPlan() error = %v", err)
	}
	if p.ID <= 0 || !p.Active || !reflect.DeepEqual(p.AccountIDs, []int64{checking.ID}) || len(p.Items) != 2 || p.Items[0].CategoryID != 1 {
		t.Errorf("SetPlan() = %+v", p)
	}

	// same name, any case: replaced
	updated, err := b.SetPlan(ctx, budget.Plan{Name: "household", AccountIDs: []int64{checking.ID, savings.ID},
		Items: []budget.PlanItem{{CategoryID: 3, Amount: -100}}})
	if err != nil {
		t.Fatalf("SetPlan() error = %v", err)
	}
	if updated.ID != p.ID || updated.Active || len(updated.AccountIDs) != 2 || !reflect.DeepEqual(updated.Items, []budget.PlanItem{{CategoryID: 3, Amount: -100}}) {
		t.Errorf("SetPlan() update = %+v", updated)
	}

	if _, err := b.SetPlan(ctx, budget.Plan{Name: "Travel", AccountIDs: []int64{99}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPlan() with a missing account error = %v, want ErrNotFound", err)
	}
	if _, err := b.SetPlan(ctx, budget.Plan{Name: "Travel", Active: true}); err != nil {
		t.Fatalf("SetPlan() error = %v", err)
	}
	list, err := b.Plans(ctx)
	if err != nil || len(list) != 2 || list[0].Name != "household" || list[1].Name != "Travel" {
		t.Errorf("Plans() = %+v, %v", list, err)
	}

	if err := b.DeletePlan(ctx, "HOUSEHOLD"); err != nil {
		t.Fatalf("DeletePlan() error = %v", err)
	}
	if _, err := b.Plan(ctx, "Household"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Plan() after delete error = %v, want ErrNotFound", err)
	}
	if err := b.DeletePlan(ctx, "Household"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeletePlan() error = %v, want ErrNotFound", err)
	}
}

func TestAutoPopulate(t *testing.T) {
	ctx := context.Background()
	b := newBook(t)
	checking := mustAccount(t, b, "Checking")
	savings := mustAccount(t, b, "Savings")
	groceries := budget.Int64(1)
	mustAdd(t, b, budget.Transaction{AccountID: checking.ID, Posted: date.New(2024, time.January, 5), Amount: -4000, PayeeRaw: "GROCER", CategoryID: groceries})
	mustAdd(t, b, budget.Transaction{AccountID: checking.ID, Posted: date.New(2024, time.February, 5), Amount: -8000, PayeeRaw: "GROCER", CategoryID: groceries})
	mustAdd(t, b, budget.Transaction{AccountID: savings.ID, Posted: date.New(2024, time.February, 6), Amount: -90000, PayeeRaw: "GROCER", CategoryID: groceries})
	mustAdd(t, b, budget.Transaction{AccountID: checking.ID, Posted: date.New(2024, time.March, 2), Amount: -7000, PayeeRaw: "GROCER", CategoryID: groceries})

	if _, err := b.SetPlan(ctx, budget.Plan{Name: "Household", Active: true, AccountIDs: []int64{checking.ID},
		Items: []budget.PlanItem{{CategoryID: 9, Amount: -1}}}); err != nil {
		t.Fatalf("SetPlan() error = %v", err)
	}
	p, err := b.AutoPopulate(ctx, "Household", date.Range{From: date.New(2024, time.January, 1), To: date.New(2024, time.February, 29)})
	if err != nil {
		t.Fatalf("AutoPopulate() error = %v", err)
	}
	if want := []budget.PlanItem{{CategoryID: 1, Amount: -6000}}; !reflect.DeepEqual(p.Items, want) {
		t.Errorf("AutoPopulate() items = %+v, want %+v", p.Items, want)
	}

	p, months, err := b.ComparePlan(ctx, "Household", date.Month(2024, time.March))
	if err != nil {
		t.Fatalf("ComparePlan() error = %v", err)
	}
	want := []budget.PlanLine{{CategoryID: 1, Target: -6000, Actual: -7000, Difference: -1000}}
	if p.Name != "Household" || len(months) != 1 || !reflect.DeepEqual(months[0].Lines, want) {
		t.Errorf("ComparePlan() = %+v, want %+v", months, want)
	}

	if _, err := b.AutoPopulate(ctx, "Travel", date.Month(2024, time.March)); !errors.Is(err, ErrNotFound) {
		t.Errorf("AutoPopulate() of a missing plan error = %v, want ErrNotFound", err)
	}
}
