package book

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

// now is the clock of the test books: 2024-03-17.
var now = time.Date(2024, time.March, 17, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newBook(t *testing.T) *Book {
	t.Helper()
	b, err := Open(context.Background(), filepath.Join(t.TempDir(), "budget.db"), WithClock(clock))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func mustAccount(t *testing.T, b *Book, name string) budget.Account {
	t.Helper()
	a, err := b.AddAccount(context.Background(), budget.Account{Name: name})
	if err != nil {
		t.Fatalf("AddAccount(%q) error = %v", name, err)
	}
	return a
}

func mustAdd(t *testing.T, b *Book, tx budget.Transaction) budget.Transaction {
	t.Helper()
	tx, err := b.Add(context.Background(), tx)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return tx
}

func mustGet(t *testing.T, b *Book, id int64) budget.Transaction {
	t.Helper()
	tx, err := b.Transaction(context.Background(), id)
	if err != nil {
		t.Fatalf("Transaction(%d) error = %v", id, err)
	}
	return tx
}

func TestOpen_Locked(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "budget.db")
	b, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := Open(ctx, path); !errors.Is(err, ErrBookOpen) {
		t.Errorf("second Open() error = %v, want ErrBookOpen", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	again, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() after Close() error = %v", err)
	}
	again.Close()
}

func TestOpen_MigratesOlderBooks(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("cannot create the first schema: %v", err)
		}
	}
	db.Close()

	b, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()
	for _, a := range additions {
		ok, err := hasColumn(ctx, b.db, a.table, a.column)
		if err != nil || !ok {
			t.Errorf("column %s.%s missing after Open(): %v", a.table, a.column, err)
		}
	}
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	b := newBook(t)
	mustAccount(t, b, "Savings")
	checking := mustAccount(t, b, "Checking")

	if _, err := b.AddAccount(ctx, budget.Account{Name: "Checking"}); err == nil {
		t.Error("AddAccount() accepted a duplicate name")
	}
	list, err := b.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "Checking" || list[0].Type != "checking" {
		t.Errorf("Accounts() = %v", list)
	}
	got, err := b.AccountByName(ctx, "Checking")
	if err != nil || got.ID != checking.ID || !got.CreatedAt.Equal(now) {
		t.Errorf("AccountByName() = %v, %v", got, err)
	}
	if _, err := b.Account(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Account(99) error = %v, want ErrNotFound", err)
	}

	mustAdd(t, b, budget.Transaction{AccountID: checking.ID, Posted: date.New(2024, time.March, 1), Amount: 10000, PayeeRaw: "PAYROLL"})
	mustAdd(t, b, budget.Transaction{AccountID: checking.ID, Posted: date.New(2024, time.March, 2), Amount: -2500, PayeeRaw: "GROCER"})
	for _, tc := range []struct {
		on   date.Date
		want budget.Cents
	}{
		{date.New(2024, time.February, 29), 0},
		{date.New(2024, time.March, 1), 10000},
		{date.New(2024, time.March, 31), 7500},
	} {
		if got, err := b.Balance(ctx, checking.ID, tc.on); err != nil || got != tc.want {
			t.Errorf("Balance(%s) = %v, %v, want %v", tc.on, got, err, tc.want)
		}
	}
}

func TestAdd_AppliesPayeeRules(t *testing.T) {
	ctx := context.Background()
	b := newBook(t)
	checking := mustAccount(t, b, "Checking")
	if _, err := b.AddPayee(ctx, budget.Payee{
		Name:              "Netflix",
		Patterns:          []budget.Pattern{budget.ParsePattern("contains:NETFLIX")},
		DefaultCategoryID: budget.Int64(4),
	}); err != nil {
		t.Fatalf("AddPayee() error = %v", err)
	}

	tx := mustAdd(t, b, budget.Transaction{AccountID: checking.ID, Posted: date.New(2024, time.March, 2), Amount: -1599, PayeeRaw: "NETFLIX.COM 866"})
	got := mustGet(t, b, tx.ID)
	if got.Payee != "Netflix" || got.CategoryID == nil || *got.CategoryID != 4 || got.Kind != budget.KindActual || got.Source != budget.SourceManual {
		t.Errorf("stored row = %+v", got)
	}

	if _, err := b.Add(ctx, budget.Transaction{AccountID: 42, Posted: date.New(2024, time.March, 2), Amount: -1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Add() to a missing account error = %v, want ErrNotFound", err)
	}
	if _, err := b.Add(ctx, budget.Transaction{AccountID: checking.ID, Amount: -1}); !errors.Is(err, budget.ErrInvalidDate) {
		t.Errorf("Add() without date error = %v, want ErrInvalidDate", err)
	}
}

func TestRematch(t *testing.T) {
	ctx := context.Background()
	b := newBook(t)
	checking := mustAccount(t, b, "Checking")
	tx := mustAdd(t, b, budget.Transaction{AccountID: checking.ID, Posted: date.New(2024, time.March, 2), Amount: -450, PayeeRaw: "SQ *JOES COFFEE"})
	mustAdd(t, b, budget.Transaction{AccountID: checking.ID, Posted: date.New(2024, time.March, 3), Amount: -900, PayeeRaw: "GROCER"})

	p, err := b.AddPayee(ctx, budget.Payee{Name: "Coffee"})
	if err != nil {
		t.Fatalf("AddPayee() error = %v", err)
	}
	if err := b.SetPatterns(ctx, p.ID, []budget.Pattern{budget.ParsePattern(`regex:^SQ \*.*COFFEE`)}); err != nil {
		t.Fatalf("SetPatterns() error = %v", err)
	}

	n, err := b.Rematch(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Rematch() = %d, %v, want 1", n, err)
	}
	if got := mustGet(t, b, tx.ID); got.Payee != "Coffee" {
		t.Errorf("rematched payee = %q, want Coffee", got.Payee)
	}
	if n, _ := b.Rematch(ctx); n != 0 {
		t.Errorf("second Rematch() = %d, want 0", n)
	}
}

func TestRematch_KeepsConfirmedPayee(t *testing.T) {
	ctx := context.Background()
	b := newBook(t)
	checking := mustAccount(t, b, "Checking")
	piano, err := b.AddPayee(ctx, budget.Payee{Name: "Piano lessons", Patterns: []budget.Pattern{budget.ParsePattern("starts_with:PWP*INSTITUTE")}})
	if err != nil {
		t.Fatalf("AddPayee() error = %v", err)
	}
	if _, err := b.SetTemplate(ctx, budget.Template{
		PayeeID: piano.ID, AccountID: checking.ID, Day: 20, Amount: -8000,
		Start: date.New(2024, time.March, 1), Active: true,
	}); err != nil {
		t.Fatalf("SetTemplate() error = %v", err)
	}
	tx, err := b.Confirm(ctx, piano.ID, date.New(2024, time.March, 1), Confirmation{})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if _, err := b.Rematch(ctx); err != nil {
		t.Fatalf("Rematch() error = %v", err)
	}
	if got := mustGet(t, b, tx.ID); got.Payee != "Piano lessons" {
		t.Errorf("confirmed payee after Rematch() = %q, want Piano lessons", got.Payee)
	}
	forecasts, err := b.Forecasts(ctx, checking.ID, date.Month(2024, time.March))
	if err != nil {
		t.Fatalf("Forecasts() error = %v", err)
	}
	if len(forecasts) != 0 {
		t.Errorf("confirmed forecast is pending again after Rematch(): %v", forecasts)
	}
	v, err := b.Ledger(ctx, checking.ID, date.Month(2024, time.March), b.Today())
	if err != nil {
		t.Fatalf("Ledger() error = %v", err)
	}
	if len(v.Rows) != 1 || v.Closing() != -8000 {
		t.Errorf("Ledger(March) = %d rows, closing %v, want 1 row, -8000", len(v.Rows), v.Closing())
	}
}

func TestTemplates(t *testing.T) {
	ctx := context.Background()
	b := newBook(t)
	checking := mustAccount(t, b, "Checking")
	p, err := b.AddPayee(ctx, budget.Payee{Name: "Rent", DefaultCategoryID: budget.Int64(2)})
	if err != nil {
		t.Fatalf("AddPayee() error = %v", err)
	}
	tmpl, err := b.SetTemplate(ctx, budget.Template{
		PayeeID: p.ID, AccountID: checking.ID, Day: 31, Amount: -5000,
		Start: date.New(2024, time.January, 1), Active: true,
	})
	if err != nil {
		t.Fatalf("SetTemplate() error = %v", err)
	}
	if tmpl.ID == 0 || tmpl.Payee != "Rent" || tmpl.Frequency != budget.Monthly || tmpl.Method != budget.Fixed || tmpl.CategoryID != nil {
		t.Errorf("SetTemplate() = %+v", tmpl)
	}

	tmpl.Amount, tmpl.End = -5500, date.New(2024, time.December, 31)
	updated, err := b.SetTemplate(ctx, tmpl)
	if err != nil {
		t.Fatalf("SetTemplate() update error = %v", err)
	}
	if updated.ID != tmpl.ID || updated.Amount != -5500 || updated.End != tmpl.End {
		t.Errorf("updated template = %+v", updated)
	}

	resolved, err := templates(ctx, b.db, true)
	if err != nil || len(resolved) != 1 || resolved[0].CategoryID == nil || *resolved[0].CategoryID != 2 {
		t.Errorf("templates(resolve) = %+v, %v", resolved, err)
	}

	if err := b.DeleteTemplate(ctx, p.ID); err != nil {
		t.Fatalf("DeleteTemplate() error = %v", err)
	}
	if _, err := b.Template(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Template() after delete error = %v, want ErrNotFound", err)
	}
}
