package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/book"
	"github.com/etnz/budget/date"
	"github.com/etnz/budget/renderer"
	"github.com/google/subcommands"
)

// parseMonths parses the -from and -to month flags into a range of whole
// months. A missing bound defaults to the other one, or to the current month.
func parseMonths(from, to string, today date.Date) (date.Range, error) {
	switch {
	case from == "" && to != "":
		from = to
	case to == "" && from != "":
		to = today.String()
	}
	first, err := parseMonth(from, today)
	if err != nil {
		return date.Range{}, err
	}
	last, err := parseMonth(to, today)
	if err != nil {
		return date.Range{}, err
	}
	r := date.Range{From: first.From, To: last.To}
	if r.IsEmpty() {
		return r, fmt.Errorf("%s is after %s", from, to)
	}
	return r, nil
}

// lookupAccounts resolves a comma separated list of account names or ids.
func lookupAccounts(ctx context.Context, b *book.Book, s string) ([]int64, error) {
	var ids []int64
	for _, field := range strings.Split(s, ",") {
		if field = strings.TrimSpace(field); field == "" {
			continue
		}
		a, err := lookupAccount(ctx, b, field)
		if err != nil {
			return nil, err
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// parseIDs parses a comma separated list of ids.
func parseIDs(s string) ([]int64, error) {
	ints, err := parseInts(s)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(ints))
	for i, v := range ints {
		ids[i] = int64(v)
	}
	return ids, nil
}

type reportCmd struct {
	from       string
	to         string
	accounts   string
	categories string
	transfers  bool
	by         string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "report spending by category, payee or month" }
func (*reportCmd) Usage() string {
	return `bgt report [-by category|payee|month] [-from <month>] [-to <month>]
           [-account <account>,...] [-category <id>,...] [-transfers]

  Sums the transactions of whole months, outflows counted positive. Forecasts are
  not spending. Transfers between accounts are left out unless -transfers is set.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.by, "by", "category", "Grouping of the report: category, payee or month.")
	f.StringVar(&c.from, "from", "", "First month of the report (YYYY-MM). Defaults to -to.")
	f.StringVar(&c.to, "to", "", "Last month of the report (YYYY-MM). Defaults to the current month.")
	f.StringVar(&c.accounts, "account", "", "Comma separated accounts (name or id). Defaults to all.")
	f.StringVar(&c.categories, "category", "", "Comma separated category ids. Defaults to all.")
	f.BoolVar(&c.transfers, "transfers", false, "Include transfers between accounts.")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch c.by {
	case "category", "payee", "month":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown grouping %q, expected category, payee or month.\n", c.by)
		return subcommands.ExitUsageError
	}
	categories, err := parseIDs(c.categories)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -category: %v\n", err)
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	r, err := parseMonths(c.from, c.to, b.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing months: %v\n", err)
		return subcommands.ExitUsageError
	}
	accounts, err := lookupAccounts(ctx, b, c.accounts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding account: %v\n", err)
		return subcommands.ExitFailure
	}
	rows, err := b.TransactionsIn(ctx, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading transactions: %v\n", err)
		return subcommands.ExitFailure
	}

	filter := budget.ReportFilter{Range: r, AccountIDs: accounts, CategoryIDs: categories, IncludeTransfers: c.transfers}
	switch c.by {
	case "payee":
		printMarkdown(renderer.SpendingMarkdown("Spending by payee", budget.SpendingByPayee(rows, filter), r, *currency))
	case "month":
		printMarkdown(renderer.TrendMarkdown(budget.SpendingTrend(rows, filter), r, *currency))
	default:
		printMarkdown(renderer.SpendingMarkdown("Spending by category", budget.SpendingByCategory(rows, filter), r, *currency))
	}
	return subcommands.ExitSuccess
}

// targetList collects repeated -set flags.
type targetList []budget.PlanItem

func (l *targetList) String() string {
	s := make([]string, len(*l))
	for i, it := range *l {
		s[i] = fmt.Sprintf("%d=%s", it.CategoryID, it.Amount)
	}
	return strings.Join(s, " ")
}

func (l *targetList) Set(v string) error {
	id, amount, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("invalid target %q, expected <category id>=<amount>", v)
	}
	category, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid category id %q", id)
	}
	cents, err := budget.ParseAmount(strings.TrimSpace(amount), *currency)
	if err != nil {
		return err
	}
	*l = append(*l, budget.PlanItem{CategoryID: category, Amount: cents})
	return nil
}

type budgetCmd struct {
	accounts string
	targets  targetList
	inactive bool
	auto     bool
	from     string
	to       string
	delete   bool
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "create, update or delete a monthly budget" }
func (*budgetCmd) Usage() string {
	return `bgt budget [-account <account>,...] [-set <category id>=<amount>]... [-inactive]
           [-auto [-from <month>] [-to <month>]] [-delete] <name>

  Creates or updates a budget: a monthly target per category, negative for expenses
  and positive for income, measured on some accounts (all by default). -set replaces
  all the targets, -account all the accounts. -auto replaces the targets with the
  monthly average of each category between -from and -to.
`
}

func (c *budgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.accounts, "account", "", "Comma separated accounts (name or id) measured by the budget.")
	f.Var(&c.targets, "set", "Monthly target of a category as <category id>=<amount>. Can be repeated.")
	f.BoolVar(&c.inactive, "inactive", false, "Mark the budget inactive.")
	f.BoolVar(&c.auto, "auto", false, "Fill the targets with the past monthly averages.")
	f.StringVar(&c.from, "from", "", "First month averaged by -auto. Defaults to -to.")
	f.StringVar(&c.to, "to", "", "Last month averaged by -auto. Defaults to the previous month.")
	f.BoolVar(&c.delete, "delete", false, "Delete the budget.")
}

func (c *budgetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: budget name is missing.")
		return subcommands.ExitUsageError
	}
	name := strings.Join(f.Args(), " ")
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	if c.delete {
		if err := b.DeletePlan(ctx, name); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting budget: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Budget %s deleted.\n", name)
		return subcommands.ExitSuccess
	}

	p, err := b.Plan(ctx, name)
	switch {
	case errors.Is(err, book.ErrNotFound):
		p = budget.Plan{Name: name, Active: true}
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error reading budget: %v\n", err)
		return subcommands.ExitFailure
	}
	if isSet(f, "account") {
		if p.AccountIDs, err = lookupAccounts(ctx, b, c.accounts); err != nil {
			fmt.Fprintf(os.Stderr, "Error finding account: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if isSet(f, "set") {
		p.Items = c.targets
	}
	if isSet(f, "inactive") {
		p.Active = !c.inactive
	}
	if p, err = b.SetPlan(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving budget: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.auto {
		to := c.to
		if to == "" {
			to = b.Today().StartOf(date.Monthly).Add(-1).String()
		}
		r, err := parseMonths(c.from, to, b.Today())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing months: %v\n", err)
			return subcommands.ExitUsageError
		}
		if p, err = b.AutoPopulate(ctx, p.Name, r); err != nil {
			fmt.Fprintf(os.Stderr, "Error filling budget: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	printMarkdown(renderer.PlanMarkdown(p, *currency))
	return subcommands.ExitSuccess
}

type budgetsCmd struct{}

func (*budgetsCmd) Name() string     { return "budgets" }
func (*budgetsCmd) Synopsis() string { return "list budgets" }
func (*budgetsCmd) Usage() string {
	return `bgt budgets

  Lists the budgets with their accounts and monthly totals.
`
}

func (*budgetsCmd) SetFlags(f *flag.FlagSet) {}

func (*budgetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	plans, err := b.Plans(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing budgets: %v\n", err)
		return subcommands.ExitFailure
	}
	names, err := accountNames(ctx, b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing accounts: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PlansMarkdown(plans, names, *currency))
	return subcommands.ExitSuccess
}

type compareCmd struct {
	from string
	to   string
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "compare a budget to the actual amounts" }
func (*compareCmd) Usage() string {
	return `bgt compare [-from <month>] [-to <month>] <budget>

  Compares the targets of a budget to the categorized transactions and transfers of
  its accounts, month by month. Differences are positive when favorable: more income
  or less spending than planned.
`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First month (YYYY-MM). Defaults to -to.")
	f.StringVar(&c.to, "to", "", "Last month (YYYY-MM). Defaults to the current month.")
}

func (c *compareCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: budget name is missing.")
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	r, err := parseMonths(c.from, c.to, b.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing months: %v\n", err)
		return subcommands.ExitUsageError
	}
	p, months, err := b.ComparePlan(ctx, strings.Join(f.Args(), " "), r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error comparing budget: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PlanComparisonMarkdown(p, months, *currency))
	return subcommands.ExitSuccess
}
