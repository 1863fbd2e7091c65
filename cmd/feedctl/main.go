// Command feedctl generates feeds offline and handles the operational chores
// around the API: schema migrations, signing keys and dev tokens.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "feedctl",
		Short:        "Shopping feed tooling",
		SilenceUsage: true,
	}

	root.AddCommand(
		newGenerateCmd(),
		newMigrateCmd(),
		newKeysCmd(),
		newTokenCmd(),
	)
	return root
}
