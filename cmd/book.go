package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type initCmd struct{}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a new budget book" }
func (*initCmd) Usage() string {
	return `bgt [-book <file>] init

  Creates the book file if it does not exist yet, and upgrades its schema otherwise.
`
}

func (*initCmd) SetFlags(f *flag.FlagSet) {}

func (*initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := createBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening book: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()
	fmt.Printf("Book %s is ready.\n", b.Path())
	return subcommands.ExitSuccess
}

type booksCmd struct{}

func (*booksCmd) Name() string     { return "books" }
func (*booksCmd) Synopsis() string { return "list the recently opened books" }
func (*booksCmd) Usage() string {
	return `bgt books

  Lists the last books opened by bgt, most recent first.
`
}

func (*booksCmd) SetFlags(f *flag.FlagSet) {}

func (*booksCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	file, err := recentFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating the configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	list, err := loadRecent(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading recent books: %v\n", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Recent books\n\n")
	if len(list) == 0 {
		fmt.Fprintf(&b, "None yet.\n")
	}
	for _, r := range list {
		missing := ""
		if _, err := os.Stat(r.Path); errors.Is(err, fs.ErrNotExist) {
			missing = " (missing)"
		}
		fmt.Fprintf(&b, "- `%s` opened %s%s\n", r.Path, r.Opened.Local().Format("2006-01-02 15:04"), missing)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
