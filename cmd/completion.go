package cmd

import (
	"context"
	"flag"
	"os"
	"path"
	"strings"

	"github.com/etnz/budget/book"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Complete serves shell completion requests and exits when the program was
// invoked by the shell for completion. Otherwise it returns immediately.
//
// Install the completion with COMP_INSTALL=1 bgt.
func Complete(c *subcommands.Commander) {
	completionCommand(c).Complete(path.Base(os.Args[0]))
}

// completionCommand describes the global flags and the subcommands of c.
func completionCommand(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{},
	}
	flag.CommandLine.VisitAll(func(f *flag.Flag) { root.Flags[f.Name] = predictFlag("", f) })

	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs.VisitAll(func(f *flag.Flag) { sub.Flags[f.Name] = predictFlag(cmd.Name(), f) })
		switch cmd.Name() {
		case "import":
			sub.Args = predict.Files("*.jsonl")
		case "topic":
			sub.Args = predict.Set(append(knownTopics(), "*"))
		}
		root.Sub[cmd.Name()] = sub
	})
	return root
}

// predictFlag returns the predictor of a flag of a command from its name.
// -to is an account for transfers and a month for reports.
func predictFlag(command string, f *flag.Flag) complete.Predictor {
	switch f.Name {
	case "book":
		return predict.Files("*.db")
	case "account":
		return complete.PredictFunc(predictAccounts)
	case "to":
		if command == "add" || command == "transfer" {
			return complete.PredictFunc(predictAccounts)
		}
	case "type":
		return predict.Set{"checking", "savings", "credit_card", "cash"}
	case "frequency":
		return predict.Set{"monthly", "every_n_months", "annual"}
	case "method":
		return predict.Set{"fixed", "copy_last", "average"}
	case "by":
		return predict.Set{"category", "payee", "month"}
	case "currency":
		return predict.Set{"USD", "EUR", "GBP", "CHF", "CAD", "JPY"}
	}
	if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
		return predict.Nothing
	}
	return predict.Something
}

// predictAccounts completes account names from the book of the command line,
// if it can be opened.
func predictAccounts(prefix string) []string {
	if _, err := os.Stat(*bookFile); err != nil {
		return nil
	}
	ctx := context.Background()
	b, err := book.Open(ctx, *bookFile)
	if err != nil {
		return nil
	}
	defer b.Close()
	accounts, err := b.Accounts(ctx)
	if err != nil {
		return nil
	}
	var names []string
	for _, a := range accounts {
		if strings.HasPrefix(a.Name, prefix) {
			names = append(names, a.Name)
		}
	}
	return names
}
