package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/budget"
	"github.com/etnz/budget/book"
	"github.com/etnz/budget/date"
	"github.com/etnz/budget/renderer"
	"github.com/google/subcommands"
)

type addCmd struct {
	account  string
	date     string
	payee    string
	memo     string
	category string
	to       string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a transaction" }
func (*addCmd) Usage() string {
	return `bgt add -account <account> [-d <date>] [-payee <text>] [-memo <text>] [-category <id>] [-to <account>] <amount>

  Records a transaction. Amounts are signed: negative for money leaving the account.
  With -to the transaction is a transfer, and its counterpart is recorded in the
  target account with the opposite amount.

  Put -- before a negative amount: bgt add -account Checking -payee GROCER -- -12.50
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account of the transaction (name or id).")
	f.StringVar(&c.date, "d", "", "Posted date. Defaults to today.")
	f.StringVar(&c.payee, "payee", "", "Payee as it appears on the statement.")
	f.StringVar(&c.memo, "memo", "", "Free text note.")
	f.StringVar(&c.category, "category", "", "Category id.")
	f.StringVar(&c.to, "to", "", "Target account of a transfer (name or id).")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one amount.")
		return subcommands.ExitUsageError
	}
	amount, err := budget.ParseAmount(f.Arg(0), *currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
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

	on := b.Today()
	if c.date != "" {
		if on, err = date.Parse(c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	a, err := lookupAccount(ctx, b, c.account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding account: %v\n", err)
		return subcommands.ExitFailure
	}
	tx := budget.Transaction{
		AccountID:  a.ID,
		Posted:     on,
		Amount:     amount,
		PayeeRaw:   c.payee,
		Memo:       c.memo,
		CategoryID: category,
	}

	if c.to == "" {
		tx, err = b.Add(ctx, tx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding transaction: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Added %s\n", renderer.Transaction(tx, *currency))
		return subcommands.ExitSuccess
	}

	target, err := lookupAccount(ctx, b, c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding target account: %v\n", err)
		return subcommands.ExitFailure
	}
	pair, err := b.CreateTransfer(ctx, tx, target.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding transfer: %v\n", err)
		return subcommands.ExitFailure
	}
	return printTransfer(ctx, b, pair)
}

func printTransfer(ctx context.Context, b *book.Book, pair book.TransferPair) subcommands.ExitStatus {
	names, err := accountNames(ctx, b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing accounts: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.TransferMarkdown(pair.From, pair.To, names, *currency))
	return subcommands.ExitSuccess
}

type editCmd struct {
	date     string
	amount   string
	payee    string
	memo     string
	category string
	unsynced bool
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change a recorded transaction" }
func (*editCmd) Usage() string {
	return `bgt edit [-d <date>] [-amount <amount>] [-payee <text>] [-memo <text>] [-category <id>] [-unsynced] <id>

  Changes the given fields of a transaction. The date and amount of a transfer are
  copied to its counterpart, unless -unsynced is given.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "New posted date.")
	f.StringVar(&c.amount, "amount", "", "New signed amount.")
	f.StringVar(&c.payee, "payee", "", "New raw payee. Payee rules apply again.")
	f.StringVar(&c.memo, "memo", "", "New memo.")
	f.StringVar(&c.category, "category", "", "New category id.")
	f.BoolVar(&c.unsynced, "unsynced", false, "Leave the transfer counterpart unchanged.")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := parseID(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	e, err := c.edit(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	res, err := b.Edit(ctx, id, e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error editing transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Updated %s\n", renderer.Transaction(res.Transaction, *currency))
	if res.Counterpart != nil {
		fmt.Printf("Updated %s\n", renderer.Transaction(*res.Counterpart, *currency))
	}
	if res.Orphan != nil {
		fmt.Fprintf(os.Stderr, "Warning: the transfer counterpart #%d is missing.\n", *res.Orphan)
	}
	return subcommands.ExitSuccess
}

// edit builds the book.Edit of the flags set on the command line.
func (c *editCmd) edit(f *flag.FlagSet) (book.Edit, error) {
	e := book.Edit{Unsynced: c.unsynced}
	if isSet(f, "d") {
		on, err := date.Parse(c.date)
		if err != nil {
			return e, err
		}
		e.Posted = &on
	}
	if isSet(f, "amount") {
		amount, err := budget.ParseAmount(c.amount, *currency)
		if err != nil {
			return e, err
		}
		e.Amount = &amount
	}
	if isSet(f, "payee") {
		e.PayeeRaw = &c.payee
	}
	if isSet(f, "memo") {
		e.Memo = &c.memo
	}
	if isSet(f, "category") {
		category, err := optionalID(c.category)
		if err != nil {
			return e, err
		}
		e.Category = category
	}
	return e, nil
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete a transaction" }
func (*rmCmd) Usage() string {
	return `bgt rm <id>

  Deletes a transaction. The counterpart of a deleted transfer is kept, as a plain
  unlinked transaction.
`
}

func (*rmCmd) SetFlags(f *flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := parseID(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	if err := b.Delete(ctx, id); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Transaction #%d deleted.\n", id)
	return subcommands.ExitSuccess
}

type transferCmd struct {
	to    string
	match int64
	force bool
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "turn a transaction into a transfer" }
func (*transferCmd) Usage() string {
	return `bgt transfer -to <account> [-match <id> | -new] <id>

  Turns a recorded transaction into a transfer to another account.

  When the target account already holds the other side (same amount, opposite sign,
  posted a few days apart), name it with -match: it is replaced by the linked
  counterpart. With -new a counterpart is recorded even if such rows exist.
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.to, "to", "", "Target account of the transfer (name or id).")
	f.Int64Var(&c.match, "match", 0, "Id of the existing counterpart in the target account.")
	f.BoolVar(&c.force, "new", false, "Record a new counterpart even if candidates exist.")
}

func (c *transferCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := parseID(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	target, err := lookupAccount(ctx, b, c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding target account: %v\n", err)
		return subcommands.ExitFailure
	}
	var replace *int64
	if c.match != 0 {
		replace = budget.Int64(c.match)
	} else if !c.force {
		candidates, err := b.TransferCandidates(ctx, id, target.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding transfer candidates: %v\n", err)
			return subcommands.ExitFailure
		}
		if len(candidates) > 0 {
			fmt.Fprintf(os.Stderr, "%s already holds possible counterparts:\n", target.Name)
			for _, t := range candidates {
				fmt.Fprintf(os.Stderr, "  %s\n", renderer.Transaction(t, *currency))
			}
			fmt.Fprintln(os.Stderr, "Use -match <id> to link one of them, or -new to record a new counterpart.")
			return subcommands.ExitFailure
		}
	}
	pair, err := b.ConvertToTransfer(ctx, id, target.ID, replace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	return printTransfer(ctx, b, pair)
}

type resyncCmd struct{}

func (*resyncCmd) Name() string     { return "resync" }
func (*resyncCmd) Synopsis() string { return "copy a transfer date and amount to its counterpart" }
func (*resyncCmd) Usage() string {
	return `bgt resync <id>

  Copies the date and the opposite amount of a transfer to its counterpart, after an
  'edit -unsynced'.
`
}

func (*resyncCmd) SetFlags(f *flag.FlagSet) {}

func (*resyncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := parseID(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	b, err := openBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()

	other, err := b.Resync(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resyncing transfer: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Updated %s\n", renderer.Transaction(other, *currency))
	return subcommands.ExitSuccess
}
