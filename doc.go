// Package budget is the consistency engine of a local household ledger.
//
// It is stateless: every function works on values loaded from a book (see
// package book) and returns new values. The main parts are:
//   - Schedules: NextOccurrence computes the date a recurring Template
//     schedules in a month.
//   - Forecasts: Project expands templates into Forecast instances, minus the
//     dismissed ones and those already fulfilled by an actual payment.
//   - Balances: NewLedgerView merges committed rows and forecasts in a
//     deterministic order with a running balance.
//   - Imports: DecodeRows reads bank rows and Classify tells new rows from
//     duplicates of rows already in the book.
//   - Payees: MatchPayee turns raw bank text into a display payee, the
//     identity shared by transactions and templates.
//
// Amounts are integer minor units (Cents) of a single book currency, and
// dates are calendar days (package date).
//
// This package serves as the foundational logic for the `bgt` command-line
// tool.
package budget
