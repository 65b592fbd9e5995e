package book

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
	"github.com/google/uuid"
)

const statement = `{"date":"2024-03-01","amount":"-12.34","payee":"GROCER #12","memo":"again"}
{"date":"2024-03-10","amount":"-100.00","payee":"ONLINE TRANSFER"}
{"date":"2024-03-12","amount":"2500","payee":"ACME PAYROLL","externalId":"FIT-1"}
{"date":"2024-13-01","amount":"1"}
`

func TestImport(t *testing.T) {
	ctx := context.Background()
	b := newBook(t)
	checking := mustAccount(t, b, "Checking")
	savings := mustAccount(t, b, "Savings")
	if _, err := b.AddPayee(ctx, budget.Payee{Name: "Grocer", Patterns: []budget.Pattern{budget.ParsePattern("starts_with:GROCER")}}); err != nil {
		t.Fatalf("AddPayee() error = %v", err)
	}
	mustAdd(t, b, budget.Transaction{AccountID: checking.ID, Posted: date.New(2024, time.March, 1), Amount: -1234, PayeeRaw: "GROCER #12"})
	deposit := mustAdd(t, b, budget.Transaction{AccountID: savings.ID, Posted: date.New(2024, time.March, 11), Amount: 10000, PayeeRaw: "DEPOSIT"})

	rows, rowErrs, err := budget.DecodeRows(strings.NewReader(statement), "USD")
	if err != nil {
		t.Fatalf("DecodeRows() error = %v", err)
	}
	if len(rows) != 3 || len(rowErrs) != 1 {
		t.Fatalf("DecodeRows() = %d rows, %d errors", len(rows), len(rowErrs))
	}

	p, err := b.PreviewImport(ctx, checking.ID, rows)
	if err != nil {
		t.Fatalf("PreviewImport() error = %v", err)
	}
	if len(p.New) != 2 || len(p.Duplicates) != 1 || p.Duplicates[0].Row.Line != 1 {
		t.Fatalf("PreviewImport() = %+v", p.Classification)
	}
	if s := p.Transfers[2]; len(s) != 1 || s[0].ID != deposit.ID {
		t.Errorf("transfer suggestions for line 2 = %v, want the deposit", s)
	}

	res, err := b.CommitImport(ctx, checking.ID, rows, nil)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if _, err := uuid.Parse(res.Batch); err != nil {
		t.Errorf("batch %q is not a uuid: %v", res.Batch, err)
	}
	if len(res.Inserted) != 2 || len(res.Skipped) != 1 {
		t.Fatalf("CommitImport() inserted %d, skipped %d", len(res.Inserted), len(res.Skipped))
	}
	for _, tx := range res.Inserted {
		got := mustGet(t, b, tx.ID)
		if got.ImportBatch != res.Batch || got.Source != budget.SourceImport || got.Kind != budget.KindActual {
			t.Errorf("imported row = %+v", got)
		}
	}

	// importing the same statement again inserts nothing
	again, err := b.CommitImport(ctx, checking.ID, rows, nil)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if len(again.Inserted) != 0 || len(again.Skipped) != 3 {
		t.Errorf("second CommitImport() inserted %d, skipped %d", len(again.Inserted), len(again.Skipped))
	}

	// unless the duplicate is explicitly accepted
	accepted, err := b.CommitImport(ctx, checking.ID, rows, []int{1})
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if len(accepted.Inserted) != 1 {
		t.Fatalf("accepted CommitImport() inserted %d rows, want 1", len(accepted.Inserted))
	}
	if got := mustGet(t, b, accepted.Inserted[0].ID); got.Payee != "Grocer" || got.Memo != "again" {
		t.Errorf("accepted duplicate = %+v", got)
	}
}
