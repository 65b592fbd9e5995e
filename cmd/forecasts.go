package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/book"
	"github.com/etnz/budget/date"
	"github.com/etnz/budget/renderer"
	"github.com/google/subcommands"
)

type ledgerCmd struct {
	account string
	month   string
	json    bool
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "display the ledger of an account for a month" }
func (*ledgerCmd) Usage() string {
	return `bgt ledger -account <account> [-m <YYYY-MM>] [-json]

  Displays the transactions of an account for a month with the running balance.
  The pending forecasts of the current and future months are included.
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account to display (name or id).")
	f.StringVar(&c.month, "m", "", "Month to display. Defaults to the current month.")
	f.BoolVar(&c.json, "json", false, "Print the rows as JSON lines instead of markdown.")
}

func (c *ledgerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	period, err := parseMonth(c.month, b.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := lookupAccount(ctx, b, c.account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding account: %v\n", err)
		return subcommands.ExitFailure
	}
	v, err := b.Ledger(ctx, a.ID, period, b.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if !c.json {
		printMarkdown(renderer.LedgerMarkdown(v, a.Name, *currency))
		return subcommands.ExitSuccess
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range v.Rows {
		if err := enc.Encode(r); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding row: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

type forecastsCmd struct {
	account string
	month   string
	months  int
}

func (*forecastsCmd) Name() string     { return "forecasts" }
func (*forecastsCmd) Synopsis() string { return "list the pending forecasts of an account" }
func (*forecastsCmd) Usage() string {
	return `bgt forecasts -account <account> [-m <YYYY-MM>] [-n <months>]

  Lists the recurring payments forecast in an account and not yet paid, confirmed or
  dismissed. Past months have no forecasts.
`
}

func (c *forecastsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account of the forecasts (name or id).")
	f.StringVar(&c.month, "m", "", "First month. Defaults to the current month.")
	f.IntVar(&c.months, "n", 1, "Number of months.")
}

func (c *forecastsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.months < 1 {
		fmt.Fprintln(os.Stderr, "Error: -n must be at least 1.")
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	first, err := parseMonth(c.month, b.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	r := date.Range{From: first.From, To: first.From.AddMonth(c.months - 1).EndOf(date.Monthly)}
	a, err := lookupAccount(ctx, b, c.account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding account: %v\n", err)
		return subcommands.ExitFailure
	}
	list, err := b.Forecasts(ctx, a.ID, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing forecasts: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.ForecastsMarkdown(list, a.Name, r, *currency))
	return subcommands.ExitSuccess
}

type confirmCmd struct {
	month  string
	date   string
	amount string
}

func (*confirmCmd) Name() string     { return "confirm" }
func (*confirmCmd) Synopsis() string { return "record the payment of a forecast" }
func (*confirmCmd) Usage() string {
	return `bgt confirm [-m <YYYY-MM>] [-d <date>] [-amount <amount>] <payee>

  Records the forecast payment of a payee for a month as an actual transaction. The
  date and amount default to the forecast ones.
`
}

func (c *confirmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Month of the forecast. Defaults to the current month.")
	f.StringVar(&c.date, "d", "", "Actual posted date.")
	f.StringVar(&c.amount, "amount", "", "Actual signed amount.")
}

func (c *confirmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: payee name is missing.")
		return subcommands.ExitUsageError
	}
	var conf book.Confirmation
	if c.date != "" {
		on, err := date.Parse(c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
		conf.Posted = &on
	}
	if c.amount != "" {
		amount, err := budget.ParseAmount(c.amount, *currency)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
			return subcommands.ExitUsageError
		}
		conf.Amount = &amount
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	period, err := parseMonth(c.month, b.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	p, err := b.PayeeByName(ctx, strings.Join(f.Args(), " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding payee: %v\n", err)
		return subcommands.ExitFailure
	}
	tx, err := b.Confirm(ctx, p.ID, period.From, conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error confirming forecast: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Added %s\n", renderer.Transaction(tx, *currency))
	return subcommands.ExitSuccess
}

type dismissCmd struct {
	account string
	month   string
}

func (*dismissCmd) Name() string     { return "dismiss" }
func (*dismissCmd) Synopsis() string { return "skip the forecast of a payee for a month" }
func (*dismissCmd) Usage() string {
	return `bgt dismiss [-account <account>] [-m <YYYY-MM>] <payee>

  Hides the forecast of a payee for one month, for instance when the payment will not
  happen. The account defaults to the one of the payee schedule.
`
}

func (c *dismissCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account of the forecast (name or id).")
	f.StringVar(&c.month, "m", "", "Month to dismiss. Defaults to the current month.")
}

func (c *dismissCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: payee name is missing.")
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	period, err := parseMonth(c.month, b.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	p, err := b.PayeeByName(ctx, strings.Join(f.Args(), " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding payee: %v\n", err)
		return subcommands.ExitFailure
	}
	var accountID int64
	if c.account != "" {
		a, err := lookupAccount(ctx, b, c.account)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding account: %v\n", err)
			return subcommands.ExitFailure
		}
		accountID = a.ID
	} else {
		t, err := b.Template(ctx, p.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding the schedule of %s: %v\n", p.Name, err)
			return subcommands.ExitFailure
		}
		accountID = t.AccountID
	}
	if err := b.Dismiss(ctx, p.ID, accountID, period.From); err != nil {
		fmt.Fprintf(os.Stderr, "Error dismissing forecast: %v\n", err)
		return subcommands.ExitFailure
	}
	n, err := b.CountDismissals(ctx, p.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error counting dismissals: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Forecast of %s dismissed for %s, %d months dismissed in total.\n", p.Name, period.From.Format("2006-01"), n)
	return subcommands.ExitSuccess
}

type undismissCmd struct{}

func (*undismissCmd) Name() string     { return "undismiss" }
func (*undismissCmd) Synopsis() string { return "restore the dismissed forecasts of a payee" }
func (*undismissCmd) Usage() string {
	return `bgt undismiss <payee>

  Restores every dismissed forecast of a payee.
`
}

func (*undismissCmd) SetFlags(f *flag.FlagSet) {}

func (*undismissCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: payee name is missing.")
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	p, err := b.PayeeByName(ctx, strings.Join(f.Args(), " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding payee: %v\n", err)
		return subcommands.ExitFailure
	}
	n, err := b.ClearDismissals(ctx, p.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring forecasts: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%d forecasts of %s restored.\n", n, p.Name)
	return subcommands.ExitSuccess
}
