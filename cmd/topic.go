package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/budget/docs"
	"github.com/google/subcommands"
)

type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show the user manual" }
func (*topicCmd) Usage() string {
	return `bgt topic [-list] [<topic>...]

  Shows pages of the bgt manual, "*" for all of them. Without a topic, shows the
  table of contents. Topics: ` + strings.Join(knownTopics(), ", ") + `.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "Print the topic names, one per line.")
}

// knownTopics returns the manual pages, readme excluded.
func knownTopics() []string {
	topics, err := docs.GetAllTopics()
	if err != nil {
		return nil
	}
	return topics
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.list {
		for _, topic := range knownTopics() {
			fmt.Println(topic)
		}
		return subcommands.ExitSuccess
	}
	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}
	doc, err := docs.GetTopics(topics...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v. Known topics: %s.\n", err, strings.Join(knownTopics(), ", "))
		return subcommands.ExitUsageError
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}
