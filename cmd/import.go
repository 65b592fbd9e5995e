package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/budget"
	"github.com/etnz/budget/renderer"
	"github.com/google/subcommands"
)

type importCmd struct {
	account string
	accept  string
	dryRun  bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a bank statement into an account" }
func (*importCmd) Usage() string {
	return `bgt import -account <account> [-accept <line>,...] [-dry-run] <file.jsonl | ->

  Imports the rows of a statement, one JSON object per line:

    {"date":"2024-03-01","amount":"-12.34","payee":"GROCER #12","memo":"","externalId":"FIT-1"}

  Rows already in the account are skipped: same bank id, or same date, amount and
  payee. List their line numbers in -accept to import them anyway. With -dry-run
  nothing is written and the classification is displayed, with the rows of other
  accounts that could be the other side of a transfer.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account to import into (name or id).")
	f.StringVar(&c.accept, "accept", "", "Comma separated line numbers of duplicates to import anyway.")
	f.BoolVar(&c.dryRun, "dry-run", false, "Display what would be imported without writing anything.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one statement file.")
		return subcommands.ExitUsageError
	}
	accept, err := parseInts(c.accept)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -accept: %v\n", err)
		return subcommands.ExitUsageError
	}

	var r io.Reader = os.Stdin
	if name := f.Arg(0); name != "-" {
		file, err := os.Open(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening statement: %v\n", err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		r = file
	}
	rows, rowErrs, err := budget.DecodeRows(r, *currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading statement: %v\n", err)
		return subcommands.ExitFailure
	}

	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	a, err := lookupAccount(ctx, b, c.account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding account: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.dryRun {
		p, err := b.PreviewImport(ctx, a.ID, rows)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error classifying rows: %v\n", err)
			return subcommands.ExitFailure
		}
		p.Errors = append(rowErrs, p.Errors...)
		printMarkdown(renderer.ImportPreviewMarkdown(p, a.Name, *currency))
		return subcommands.ExitSuccess
	}

	res, err := b.CommitImport(ctx, a.ID, rows, accept)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing rows: %v\n", err)
		return subcommands.ExitFailure
	}
	res.Errors = append(rowErrs, res.Errors...)
	printMarkdown(renderer.ImportResultMarkdown(res, a.Name, *currency))
	return subcommands.ExitSuccess
}
