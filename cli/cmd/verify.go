package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scanledger/core/block"
)

// ErrChainBroken is returned by verify when the ledger fails its integrity check.
var ErrChainBroken = errors.New("ledger integrity check failed")

func newVerifyCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every link and digest in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.store.Verify()
			if err != nil {
				return err
			}
			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "    ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				report.Print(cmd.OutOrStdout())
			}
			if !report.Intact() {
				return ErrChainBroken
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "plain", "Output format: plain|json")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show ledger size, head and fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := a.store.Load()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Backend: %v\n", a.store.Backend())
			fmt.Fprintf(w, "Blocks: %d\n", len(chain))
			fmt.Fprintf(w, "Head: %s\n", block.NextLink(chain))
			fmt.Fprintf(w, "Fingerprint: %s\n", block.Fingerprint(chain))
			fmt.Fprintf(w, "Plaintext names retained on append: %t\n", a.store.RetainsName())
			if a.trail != nil {
				root, err := a.trail.Root()
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Audit log: %s (root %s)\n", a.trail.Path(), root)
			}
			return nil
		},
	}
}
