// Package cmd implements the CLI application to manage a budget book.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/budget"
	"github.com/etnz/budget/book"
	"github.com/etnz/budget/date"
	"github.com/etnz/budget/logger"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&initCmd{}, "book")
	c.Register(&booksCmd{}, "book")

	c.Register(&addAccountCmd{}, "accounts")
	c.Register(&accountsCmd{}, "accounts")

	c.Register(&addPayeeCmd{}, "payees")
	c.Register(&rulesCmd{}, "payees")
	c.Register(&recurringCmd{}, "payees")
	c.Register(&payeesCmd{}, "payees")
	c.Register(&rematchCmd{}, "payees")

	c.Register(&addCmd{}, "transactions")
	c.Register(&editCmd{}, "transactions")
	c.Register(&rmCmd{}, "transactions")
	c.Register(&transferCmd{}, "transactions")
	c.Register(&resyncCmd{}, "transactions")
	c.Register(&importCmd{}, "transactions")

	c.Register(&ledgerCmd{}, "forecasts")
	c.Register(&forecastsCmd{}, "forecasts")
	c.Register(&confirmCmd{}, "forecasts")
	c.Register(&dismissCmd{}, "forecasts")
	c.Register(&undismissCmd{}, "forecasts")

	c.Register(&reportCmd{}, "reports")
	c.Register(&budgetCmd{}, "reports")
	c.Register(&budgetsCmd{}, "reports")
	c.Register(&compareCmd{}, "reports")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var bookFile = flag.String("book", envOr(EnvBook, "budget.db"), "Path to the budget book (SQLite file).\n If missing it will read the environment variable \""+EnvBook+"\".")
var currency = flag.String("currency", envOr(EnvCurrency, "USD"), "ISO 4217 currency of the amounts of the book.")

// Verbose enables debug logs.
var Verbose = flag.Bool("v", envOr(EnvVerbose, "") == "true", "Log debug messages to stderr.")

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// NewLogger returns the logger of the application, writing to stderr.
func NewLogger() zerolog.Logger { return logger.New(os.Stderr, *Verbose) }

// openBook opens the book named by the -book flag. The book must exist: only
// 'bgt init' creates one.
func openBook(ctx context.Context) (*book.Book, error) {
	if _, err := os.Stat(*bookFile); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("book %q does not exist, create it with 'bgt init'", *bookFile)
	}
	return createBook(ctx)
}

// createBook opens the book named by the -book flag, creating it if needed,
// and records it in the recent books.
func createBook(ctx context.Context) (*book.Book, error) {
	log := logger.FromContext(ctx)
	b, err := book.Open(ctx, *bookFile, book.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if file, err := recentFile(); err == nil {
		if err := addRecent(file, b.Path(), time.Now()); err != nil {
			log.Debug().Err(err).Msg("cannot update recent books")
		}
	}
	return b, nil
}

// printMarkdown renders md for the terminal, or prints it as is when it
// cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

// lookupAccount finds an account by id or by name.
func lookupAccount(ctx context.Context, b *book.Book, s string) (budget.Account, error) {
	if s == "" {
		return budget.Account{}, errors.New("account is missing")
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return b.Account(ctx, id)
	}
	return b.AccountByName(ctx, s)
}

// accountNames maps account ids to their name.
func accountNames(ctx context.Context, b *book.Book) (map[int64]string, error) {
	list, err := b.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(list))
	for _, a := range list {
		names[a.ID] = a.Name
	}
	return names, nil
}

// parseID parses the single positional argument of commands working on a
// stored row.
func parseID(f *flag.FlagSet) (int64, error) {
	if f.NArg() != 1 {
		return 0, errors.New("expected exactly one transaction id")
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", f.Arg(0))
	}
	return id, nil
}

// parseMonth parses a month like "2024-03" or "2024-3", or any date within
// it. An empty string is the month of today.
func parseMonth(s string, today date.Date) (date.Range, error) {
	if s == "" {
		return date.NewRange(today, date.Monthly), nil
	}
	if on, err := date.Parse(s); err == nil {
		return date.NewRange(on, date.Monthly), nil
	}
	m, err := time.Parse("2006-1", s)
	if err != nil {
		return date.Range{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return date.Month(m.Year(), m.Month()), nil
}

// parseInts parses a comma separated list of integers.
func parseInts(s string) ([]int, error) {
	var list []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		i, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", field)
		}
		list = append(list, i)
	}
	return list, nil
}

// optionalID parses an optional id flag value.
func optionalID(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q", s)
	}
	return budget.Int64(id), nil
}

// isSet reports whether the flag name was set on the command line.
func isSet(f *flag.FlagSet, name string) bool {
	set := false
	f.Visit(func(fl *flag.Flag) { set = set || fl.Name == name })
	return set
}
