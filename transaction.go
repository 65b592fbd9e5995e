package budget

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/budget/date"
)

// Kind is the nature of a ledger row.
type Kind string

// Kinds of ledger rows.
const (
	KindActual            Kind = "actual"
	KindForecast          Kind = "forecast"
	KindBalanceAdjustment Kind = "balance_adjustment"
	KindTransfer          Kind = "transfer"
)

// ParseKind parses a Kind from its string representation.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindActual, KindForecast, KindBalanceAdjustment, KindTransfer:
		return k, nil
	default:
		return "", fmt.Errorf("unknown transaction kind %q", s)
	}
}

// Source tells how a row entered the book.
type Source string

// Sources of ledger rows.
const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
	SourceSystem Source = "system"
)

// ParseSource parses a Source from its string representation.
func ParseSource(s string) (Source, error) {
	switch v := Source(s); v {
	case SourceManual, SourceImport, SourceSystem:
		return v, nil
	default:
		return "", fmt.Errorf("unknown transaction source %q", s)
	}
}

// ErrInvalidDate is returned for rows with a missing or malformed date.
var ErrInvalidDate = errors.New("invalid date")

// Transaction is the atomic ledger entry.
//
// Optional references are pointers so that they map to NULL in the book.
// Forecast rows are never stored: they are built from a Forecast and carry a
// negative synthetic ID.
type Transaction struct {
	ID             int64
	AccountID      int64
	Posted         date.Date
	Amount         Cents
	PayeeRaw       string // as written by the bank or the user
	Payee          string // display payee set by payee rules, empty if none matched
	Memo           string
	CategoryID     *int64
	Kind           Kind
	Source         Source
	CreatedAt      time.Time
	ExternalID     string // bank provided stable id (FITID) if any
	TransferLinkID *int64
	TemplateID     *int64 // only set on forecast rows
	ImportBatch    string
}

// IsForecast reports whether the row is a projected forecast instance.
func (t Transaction) IsForecast() bool { return t.Kind == KindForecast }

// IsLinked reports whether the row references a transfer counterpart.
func (t Transaction) IsLinked() bool { return t.TransferLinkID != nil }

// DisplayPayee returns the best label for the payee: the matched display
// payee, or the raw text.
func (t Transaction) DisplayPayee() string {
	if t.Payee != "" {
		return t.Payee
	}
	return t.PayeeRaw
}

// PayeeIdentity returns the key used to relate actual rows to a recurring
// template. Only rows whose raw payee matched a payee rule have one.
func (t Transaction) PayeeIdentity() string { return NormalizePayee(t.Payee) }

// Validate checks the fields a row needs to enter the ledger and applies the
// defaults of a manual entry.
func (t Transaction) Validate() (Transaction, error) {
	var errs error
	if t.AccountID == 0 {
		errs = errors.Join(errs, errors.New("account is missing"))
	}
	if t.Posted.IsZero() {
		errs = errors.Join(errs, fmt.Errorf("%w: posted date is missing", ErrInvalidDate))
	}
	if t.Kind == "" {
		t.Kind = KindActual
	}
	if t.Kind == KindForecast {
		errs = errors.Join(errs, errors.New("forecast rows cannot be stored"))
	}
	if t.Source == "" {
		t.Source = SourceManual
	}
	if t.Kind == KindTransfer && t.CategoryID != nil {
		// transfers carry no category
		t.CategoryID = nil
	}
	t.PayeeRaw = strings.TrimSpace(t.PayeeRaw)
	t.ExternalID = strings.TrimSpace(t.ExternalID)
	return t, errs
}

// Int64 returns a pointer to v, handy to fill optional references.
func Int64(v int64) *int64 { return &v }

// SameRef reports whether two optional references are equal.
func SameRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
