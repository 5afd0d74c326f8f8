package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"scanledger/core/block"
)

func newListCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every block in the ledger",
		Example: `  scanledger list
  scanledger list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := a.store.Load()
			if err != nil {
				return err
			}
			return printBlocks(cmd.OutOrStdout(), chain, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "plain", "Output format: plain|json")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "search NAME",
		Short: "Find blocks by patient name (case-insensitive)",
		Long: "Search matches the plaintext patient name stored alongside the digest. " +
			"Blocks recorded without a plaintext name cannot be found by name.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.store.FindByPatientName(args[0])
			if err != nil {
				return err
			}
			if len(found) == 0 && output != "json" {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching blocks.")
				return nil
			}
			return printBlocks(cmd.OutOrStdout(), found, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "plain", "Output format: plain|json")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete POSITION",
		Short: "Delete the block at POSITION and renumber the rest",
		Long: "Delete removes the block and renumbers the survivors from 1. Digests and " +
			"links are not recomputed, so the chain fails verification afterwards.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("position %q is not a number", args[0])
			}
			removed, err := a.store.Delete(position)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No block at position %d.\n", position)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted block %d. Links were not repaired; run verify to see the damage.\n", position)
			return nil
		},
	}
}

func printBlocks(w io.Writer, chain []block.Block, output string) error {
	switch output {
	case "json":
		if chain == nil {
			chain = []block.Block{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(chain)
	case "plain", "":
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
	if len(chain) == 0 {
		fmt.Fprintln(w, "Ledger is empty.")
		return nil
	}
	for _, b := range chain {
		tx := b.Transaction
		fmt.Fprintf(w, "Block %d  %s\n", b.Position, b.Timestamp)
		fmt.Fprintf(w, "  ▸ Scan: %s / %s  Cost: %s  Visit: %s\n", tx.ScanType, tx.BodyPart, tx.Cost, tx.VisitDate)
		if tx.HasPlaintextName() {
			fmt.Fprintf(w, "  ▸ Patient: %s\n", *tx.PatientName)
		}
		fmt.Fprintf(w, "  ▸ Patient digest: %s\n", tx.NameDigest)
		fmt.Fprintf(w, "  ▸ PrevDigest: %s\n", b.PreviousDigest)
		fmt.Fprintf(w, "  ▸ Digest: %s\n", b.Digest)
	}
	return nil
}
