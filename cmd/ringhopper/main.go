// Command ringhopper is the CLI over the tag system core: map inspection,
// extraction, verification, dependency queries, and bulk refactoring.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "ringhopper",
		Short:         "Tag and cache file toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		listEnginesCommand(),
		infoCommand(),
		extractCommand(),
		verifyCommand(),
		dependenciesCommand(),
		refactorPathsCommand(),
		refactorGroupsCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
