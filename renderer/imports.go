package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/book"
)

// ImportPreviewMarkdown renders the classification of an import batch: new
// rows with their transfer suggestions, duplicates and rows in error.
func ImportPreviewMarkdown(p book.Preview, account string, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Import preview for %s\n\n", account)
	fmt.Fprintf(&b, "%d new, %d duplicates, %d errors.\n\n", len(p.New), len(p.Duplicates), len(p.Errors))

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "## New\n\n")
		fmt.Fprintln(w, "| Line | Date | Payee | Memo | Amount | Possible transfer |")
		fmt.Fprintln(w, "|---:|:---|:---|:---|---:|:---|")
		for _, r := range p.New {
			var suggestions []string
			for _, c := range p.Transfers[r.Line] {
				suggestions = append(suggestions, fmt.Sprintf("#%d %s", c.ID, c.Posted))
			}
			fmt.Fprintf(w, "| %d | %s | %s | %s | %s | %s |\n",
				r.Line, r.Posted, cell(r.PayeeRaw), cell(r.Memo), r.Amount.SignedFormat(currency), strings.Join(suggestions, ", "))
		}
		fmt.Fprintln(w)
		return len(p.New) > 0
	})
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "## Duplicates\n\n")
		fmt.Fprintln(w, "| Line | Date | Payee | Amount | Already stored |")
		fmt.Fprintln(w, "|---:|:---|:---|---:|---:|")
		for _, d := range p.Duplicates {
			fmt.Fprintf(w, "| %d | %s | %s | %s | #%d |\n",
				d.Row.Line, d.Row.Posted, cell(d.Row.PayeeRaw), d.Row.Amount.SignedFormat(currency), d.Existing.ID)
		}
		fmt.Fprintln(w)
		return len(p.Duplicates) > 0
	})
	renderRowErrors(&b, p.Errors)
	return b.String()
}

// ImportResultMarkdown renders the outcome of a committed import batch.
func ImportResultMarkdown(res book.ImportResult, account string, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Imported into %s\n\n", account)
	fmt.Fprintf(&b, "Batch `%s`: %d inserted, %d skipped, %d errors.\n\n", res.Batch, len(res.Inserted), len(res.Skipped), len(res.Errors))
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "## Inserted\n\n")
		for _, t := range res.Inserted {
			fmt.Fprintf(w, "- %s\n", Transaction(t, currency))
		}
		fmt.Fprintln(w)
		return len(res.Inserted) > 0
	})
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "## Skipped duplicates\n\n")
		for _, d := range res.Skipped {
			fmt.Fprintf(w, "- line %d duplicates #%d\n", d.Row.Line, d.Existing.ID)
		}
		fmt.Fprintln(w)
		return len(res.Skipped) > 0
	})
	renderRowErrors(&b, res.Errors)
	return b.String()
}

func renderRowErrors(w io.Writer, errs []budget.RowError) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "## Errors\n\n")
	for _, e := range errs {
		fmt.Fprintf(w, "- %v\n", e)
	}
	fmt.Fprintln(w)
}
