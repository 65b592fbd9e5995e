package cmd

import (
	"context"
	"errors"
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

// patternList collects repeated -match flags.
type patternList []budget.Pattern

func (p *patternList) String() string {
	s := make([]string, len(*p))
	for i, pat := range *p {
		s[i] = pat.String()
	}
	return strings.Join(s, " ")
}

func (p *patternList) Set(v string) error {
	pat := budget.ParsePattern(v)
	if pat.Pattern == "" {
		return fmt.Errorf("empty pattern %q", v)
	}
	*p = append(*p, pat)
	return nil
}

const matchUsage = "Rule matching the raw payee of a transaction, as <type>:<text> where type is exact, starts_with, contains or regex. Can be repeated."

type addPayeeCmd struct {
	patterns patternList
	category string
}

func (*addPayeeCmd) Name() string     { return "add-payee" }
func (*addPayeeCmd) Synopsis() string { return "add a payee with its matching rules" }
func (*addPayeeCmd) Usage() string {
	return `bgt add-payee [-match <type>:<text>]... [-category <id>] <name>

  Adds a payee. Transactions whose raw payee matches one of the rules get the payee
  name as display payee, and its category when they have none.
`
}

func (c *addPayeeCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.patterns, "match", matchUsage)
	f.StringVar(&c.category, "category", "", "Default category id of the payee transactions.")
}

func (c *addPayeeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: payee name is missing.")
		return subcommands.ExitUsageError
	}
	category, err := optionalID(c.category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing category: %v\n", err)
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	p, err := b.AddPayee(ctx, budget.Payee{
		Name:              strings.Join(f.Args(), " "),
		Patterns:          c.patterns,
		DefaultCategoryID: category,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding payee: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Payee #%d %s added, run 'bgt rematch' to apply its rules to existing transactions.\n", p.ID, p.Name)
	return subcommands.ExitSuccess
}

type rulesCmd struct {
	patterns patternList
}

func (*rulesCmd) Name() string     { return "rules" }
func (*rulesCmd) Synopsis() string { return "replace the matching rules of a payee" }
func (*rulesCmd) Usage() string {
	return `bgt rules [-match <type>:<text>]... <payee>

  Replaces the matching rules of a payee. Without -match the payee matches nothing.
`
}

func (c *rulesCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.patterns, "match", matchUsage)
}

func (c *rulesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if err := b.SetPatterns(ctx, p.ID, c.patterns); err != nil {
		fmt.Fprintf(os.Stderr, "Error updating rules: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Rules of %s updated: %s\n", p.Name, c.patterns.String())
	return subcommands.ExitSuccess
}

type recurringCmd struct {
	account   string
	frequency string
	step      int
	day       int
	method    string
	amount    string
	count     int
	category  string
	start     string
	end       string
	paused    bool
	delete    bool
}

func (*recurringCmd) Name() string     { return "recurring" }
func (*recurringCmd) Synopsis() string { return "set or delete the recurring schedule of a payee" }
func (*recurringCmd) Usage() string {
	return `bgt recurring [-account <account>] [-day <1..31>] [-frequency <f>] [-step <n>]
              [-method <m>] [-amount <amount>] [-count <n>] [-category <id>]
              [-start <date>] [-end <date>] [-paused] <payee>
bgt recurring -delete <payee>

  Sets the recurring schedule of a payee, which forecasts its payments in an account.
  Flags not given keep their current value when the payee already has a schedule.

  Frequencies: monthly, every_n_months (with -step), annual.
  Amount methods: fixed (with -amount), copy_last, average (of the last -count payments).
`
}

func (c *recurringCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account the payments are forecast in (name or id).")
	f.StringVar(&c.frequency, "frequency", string(budget.Monthly), "How often the payment happens.")
	f.IntVar(&c.step, "step", 1, "Months between two payments, for every_n_months.")
	f.IntVar(&c.day, "day", 0, "Day of month of the payment. Shorter months use their last day.")
	f.StringVar(&c.method, "method", string(budget.Fixed), "How the forecast amount is computed.")
	f.StringVar(&c.amount, "amount", "", "Signed amount of the payment, for the fixed method.")
	f.IntVar(&c.count, "count", budget.DefaultAverageCount, "Number of payments averaged, for the average method.")
	f.StringVar(&c.category, "category", "", "Category id of the forecasts. Defaults to the payee category.")
	f.StringVar(&c.start, "start", "", "First day of the schedule. Defaults to the first day of next month.")
	f.StringVar(&c.end, "end", "", "Last day of the schedule, if any.")
	f.BoolVar(&c.paused, "paused", false, "Stop forecasting without deleting the schedule.")
	f.BoolVar(&c.delete, "delete", false, "Delete the schedule.")
}

func (c *recurringCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if c.delete {
		if err := b.DeleteTemplate(ctx, p.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting schedule: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Schedule of %s deleted.\n", p.Name)
		return subcommands.ExitSuccess
	}

	t, err := b.Template(ctx, p.ID)
	if errors.Is(err, book.ErrNotFound) {
		t, err = budget.Template{PayeeID: p.ID, Start: budget.DefaultStart(b.Today())}, nil
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading schedule: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.apply(ctx, b, f, &t); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	t, err = b.SetTemplate(ctx, t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting schedule: %v\n", err)
		return subcommands.ExitFailure
	}
	names, err := accountNames(ctx, b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing accounts: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s: %s\n", p.Name, renderer.Schedule(t, names[t.AccountID], *currency))
	return subcommands.ExitSuccess
}

// apply copies the flags set on the command line into t. On a new template
// every flag applies.
func (c *recurringCmd) apply(ctx context.Context, b *book.Book, f *flag.FlagSet, t *budget.Template) error {
	fresh := t.ID == 0
	set := func(name string) bool { return fresh || isSet(f, name) }
	var err error
	if set("account") {
		a, err := lookupAccount(ctx, b, c.account)
		if err != nil {
			return err
		}
		t.AccountID = a.ID
	}
	if set("frequency") {
		if t.Frequency, err = budget.ParseFrequency(c.frequency); err != nil {
			return err
		}
	}
	if set("step") {
		t.Step = c.step
	}
	if set("day") {
		t.Day = c.day
	}
	if set("method") {
		if t.Method, err = budget.ParseAmountMethod(c.method); err != nil {
			return err
		}
	}
	if set("amount") && c.amount != "" {
		if t.Amount, err = budget.ParseAmount(c.amount, *currency); err != nil {
			return err
		}
	}
	if set("count") {
		t.Count = c.count
	}
	if set("category") {
		if t.CategoryID, err = optionalID(c.category); err != nil {
			return err
		}
	}
	if isSet(f, "start") {
		if t.Start, err = date.Parse(c.start); err != nil {
			return err
		}
	}
	if set("end") {
		t.End = date.Date{}
		if c.end != "" {
			if t.End, err = date.Parse(c.end); err != nil {
				return err
			}
		}
	}
	if set("paused") {
		t.Active = !c.paused
	}
	if t.Method == budget.Fixed && t.Amount == 0 {
		return errors.New("the fixed method needs a non zero -amount")
	}
	return nil
}

type payeesCmd struct{}

func (*payeesCmd) Name() string     { return "payees" }
func (*payeesCmd) Synopsis() string { return "list payees, their rules and schedules" }
func (*payeesCmd) Usage() string {
	return `bgt payees

  Lists the payees with their matching rules and recurring schedule.
`
}

func (*payeesCmd) SetFlags(f *flag.FlagSet) {}

func (*payeesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	payees, err := b.Payees(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing payees: %v\n", err)
		return subcommands.ExitFailure
	}
	list, err := b.Templates(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing schedules: %v\n", err)
		return subcommands.ExitFailure
	}
	templates := make(map[int64]budget.Template, len(list))
	for _, t := range list {
		templates[t.PayeeID] = t
	}
	names, err := accountNames(ctx, b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing accounts: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PayeesMarkdown(payees, templates, names, *currency))
	return subcommands.ExitSuccess
}

type rematchCmd struct{}

func (*rematchCmd) Name() string     { return "rematch" }
func (*rematchCmd) Synopsis() string { return "apply the payee rules to every transaction" }
func (*rematchCmd) Usage() string {
	return `bgt rematch

  Applies the payee rules again to all the transactions of the book, for instance
  after adding a payee or changing its rules.
`
}

func (*rematchCmd) SetFlags(f *flag.FlagSet) {}

func (*rematchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	n, err := b.Rematch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error matching payees: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%d transactions updated.\n", n)
	return subcommands.ExitSuccess
}
