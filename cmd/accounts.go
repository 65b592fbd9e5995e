package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
	"github.com/etnz/budget/renderer"
	"github.com/google/subcommands"
)

type addAccountCmd struct {
	kind        string
	institution string
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "add an account to the book" }
func (*addAccountCmd) Usage() string {
	return `bgt add-account [-type <type>] [-institution <name>] <name>

  Adds an account. Account names are unique.
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "type", "checking", "Type of account: checking, savings, credit_card, cash...")
	f.StringVar(&c.institution, "institution", "", "Bank or institution holding the account.")
}

func (c *addAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: account name is missing.")
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	a, err := b.AddAccount(ctx, budget.Account{
		Name:        strings.Join(f.Args(), " "),
		Type:        c.kind,
		Institution: c.institution,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding account: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Account #%d %s added.\n", a.ID, a.Name)
	return subcommands.ExitSuccess
}

type accountsCmd struct {
	date string
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts with their balance" }
func (*accountsCmd) Usage() string {
	return `bgt accounts [-d <date>]

  Lists the accounts with their balance at the end of a day. Forecasts are not included.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the balances. Defaults to today.")
}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	on := b.Today()
	if c.date != "" {
		if on, err = date.Parse(c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	accounts, err := b.Accounts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing accounts: %v\n", err)
		return subcommands.ExitFailure
	}
	balances := make(map[int64]budget.Cents, len(accounts))
	for _, a := range accounts {
		if balances[a.ID], err = b.Balance(ctx, a.ID, on); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading account %s: %v\n", a.Name, err)
			return subcommands.ExitFailure
		}
	}
	printMarkdown(renderer.AccountsMarkdown(accounts, balances, *currency))
	return subcommands.ExitSuccess
}
