package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the CLI version, set at build time with
// -ldflags "-X scanledger/cli/cmd.Version=…".
var Version = "v0.1.0-dev"

// LedgerFormatVersion identifies the persisted document layout.
const LedgerFormatVersion = "1"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// no config or store needed
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scanledger %s (ledger format %s)\n", Version, LedgerFormatVersion)
		},
	}
}
