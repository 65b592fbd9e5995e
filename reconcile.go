package budget

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/budget/date"
)

// ParsedRow is a bank row decoded from an import file, before it enters the
// book.
type ParsedRow struct {
	Line       int // 1-based line in the import file
	Posted     date.Date
	Amount     Cents
	PayeeRaw   string
	Memo       string
	ExternalID string
}

// Transaction returns the actual row to insert for r in accountID.
func (r ParsedRow) Transaction(accountID int64) Transaction {
	return Transaction{
		AccountID:  accountID,
		Posted:     r.Posted,
		Amount:     r.Amount,
		PayeeRaw:   r.PayeeRaw,
		Memo:       r.Memo,
		Kind:       KindActual,
		Source:     SourceImport,
		ExternalID: r.ExternalID,
	}
}

// Fingerprint returns the duplicate key of the row.
func (r ParsedRow) Fingerprint() string { return Fingerprint(r.Transaction(0)) }

// MarshalJSON writes the row in the import file format.
func (r ParsedRow) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", r.Posted).
		Append("amount", r.Amount.String()).
		Optional("payee", r.PayeeRaw).
		Optional("memo", r.Memo).
		Optional("externalId", r.ExternalID)
	return w.MarshalJSON()
}

// RowError reports a row that cannot be imported. It never aborts the rest of
// the batch.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// MaxRowSize is the size limit of one line of an import file. Longer lines
// are reported as row errors.
const MaxRowSize = 1 << 20

// DecodeRows reads an import file: one JSON object per line with the fields
// date, amount (major units, as a number or a string), payee, memo and
// externalId. Blank lines are skipped. Malformed or oversized lines are
// reported as RowErrors; only read failures abort the decoding.
func DecodeRows(r io.Reader, currency string) ([]ParsedRow, []RowError, error) {
	var rows []ParsedRow
	var rowErrs []RowError
	br := bufio.NewReader(r)
	for line := 1; ; line++ {
		raw, tooLong, err := readRow(br)
		if err != nil && !errors.Is(err, io.EOF) {
			return rows, rowErrs, fmt.Errorf("cannot read import rows at line %d: %w", line, err)
		}
		switch txt := bytes.TrimSpace(raw); {
		case tooLong:
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("line is longer than %d bytes", MaxRowSize)})
		case len(txt) > 0:
			row, rowErr := decodeRow(txt, currency)
			if rowErr != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Err: rowErr})
				break
			}
			row.Line = line
			rows = append(rows, row)
		}
		if err != nil {
			return rows, rowErrs, nil
		}
	}
}

// readRow reads the next line of br. A line longer than MaxRowSize is
// consumed entirely and returned empty with tooLong set.
func readRow(br *bufio.Reader) (row []byte, tooLong bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(row)+len(chunk) > MaxRowSize {
				row, tooLong = nil, true
			} else {
				row = append(row, chunk...)
			}
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return row, tooLong, err
		}
	}
}

// decodeRow decodes one JSON line of an import file.
func decodeRow(txt []byte, currency string) (ParsedRow, error) {
	var j struct {
		Date       string          `json:"date"`
		Amount     json.RawMessage `json:"amount"`
		Payee      string          `json:"payee"`
		Memo       string          `json:"memo"`
		ExternalID string          `json:"externalId"`
	}
	if err := json.Unmarshal(txt, &j); err != nil {
		return ParsedRow{}, fmt.Errorf("not a correct json: %w", err)
	}
	row := ParsedRow{PayeeRaw: strings.TrimSpace(j.Payee), Memo: j.Memo, ExternalID: strings.TrimSpace(j.ExternalID)}
	var errs error
	if j.Date != "" {
		on, err := date.Parse(j.Date)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%w: %v", ErrInvalidDate, err))
		}
		row.Posted = on
	}
	if len(j.Amount) > 0 {
		amount, err := ParseAmount(strings.Trim(string(j.Amount), `"`), currency)
		if err != nil {
			errs = errors.Join(errs, err)
		}
		row.Amount = amount
	}
	return row, errs
}

// Duplicate is a parsed row that matches a row already in the book.
type Duplicate struct {
	Row         ParsedRow
	Existing    Transaction
	Fingerprint string
}

// Classification splits an import batch.
type Classification struct {
	New        []ParsedRow
	Duplicates []Duplicate
	Errors     []RowError
}

// Classify tells new rows from duplicates of existing ones.
//
// A row with an external id is a duplicate only of an existing row with the
// same external id. Other rows are duplicates of an existing row with the
// same date, amount and normalized raw payee; the memo is ignored. Rows are
// compared to existing rows only, so identical rows of one batch are all new.
// Rows with no date or a zero amount are reported as errors.
//
// The result only depends on its inputs, and nothing is ever merged.
func Classify(rows []ParsedRow, existing []Transaction) Classification {
	byKey := make(map[string]Transaction, 2*len(existing))
	index := func(key string, tx Transaction) {
		if _, ok := byKey[key]; !ok {
			byKey[key] = tx
		}
	}
	sorted := make([]Transaction, len(existing))
	copy(sorted, existing)
	SortLedger(sorted)
	for _, tx := range sorted {
		if tx.IsForecast() {
			continue
		}
		if tx.ExternalID != "" {
			index("ext:"+tx.ExternalID, tx)
		}
		index(ContentKey(tx.Posted, tx.Amount, fingerprintPayee(tx)), tx)
	}

	var c Classification
	for _, r := range rows {
		var errs error
		if r.Posted.IsZero() {
			errs = errors.Join(errs, fmt.Errorf("%w: posted date is missing", ErrInvalidDate))
		}
		if r.Amount == 0 {
			errs = errors.Join(errs, fmt.Errorf("%w: amount is zero", ErrInvalidAmount))
		}
		if errs != nil {
			c.Errors = append(c.Errors, RowError{Line: r.Line, Err: errs})
			continue
		}
		key := r.Fingerprint()
		if tx, ok := byKey[key]; ok {
			c.Duplicates = append(c.Duplicates, Duplicate{Row: r, Existing: tx, Fingerprint: key})
			continue
		}
		c.New = append(c.New, r)
	}
	return c
}

// TransferWindow is the number of days a transfer counterpart may be posted
// before or after its origin.
const TransferWindow = 3

// InTransferWindow reports whether the unlinked committed row c, posted in
// another account within TransferWindow days of tx, has the same magnitude.
func InTransferWindow(tx, c Transaction) bool {
	if c.IsForecast() || c.IsLinked() || c.ID == tx.ID || c.AccountID == tx.AccountID {
		return false
	}
	if c.Amount.Abs() != tx.Amount.Abs() || tx.Amount == 0 {
		return false
	}
	days := tx.Posted.DaysUntil(c.Posted)
	return days >= -TransferWindow && days <= TransferWindow
}

// SuggestTransfers returns, for each new import row, the rows of other
// accounts that could be its transfer counterpart: opposite amount, posted
// within TransferWindow days and not linked yet. Rows with no candidate are
// absent from the result.
func SuggestTransfers(accountID int64, rows []ParsedRow, others []Transaction) map[int][]Transaction {
	suggestions := make(map[int][]Transaction)
	for _, r := range rows {
		tx := r.Transaction(accountID)
		for _, c := range others {
			if InTransferWindow(tx, c) && c.Amount == -tx.Amount {
				suggestions[r.Line] = append(suggestions[r.Line], c)
			}
		}
	}
	return suggestions
}
