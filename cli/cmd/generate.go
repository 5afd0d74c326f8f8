package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"scanledger/core/config"
	"scanledger/core/generator"
	"scanledger/core/ledger"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		count int
		seed  int64
		out   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fill a ledger with synthetic scan transactions",
		Long: "Generate appends --count random transactions to the configured ledger, or " +
			"writes a fresh chain to --out without touching it.",
		Example: `  scanledger generate --count 100
  scanledger generate --count 10 --seed 7 --out sample.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return fmt.Errorf("--count must not be negative")
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			gen := generator.New(rand.New(rand.NewSource(seed)))

			if out != "" {
				lc := a.cfg.Ledger
				lc.Backend, lc.Path = config.BackendFile, out
				backend, _, err := a.openBackend(lc)
				if err != nil {
					return err
				}
				chain := gen.GenerateChain(count, time.Now())
				if err := ledger.NewStore(backend, ledger.WithLogger(a.log)).Save(chain); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d blocks to %s\n", len(chain), out)
				return nil
			}
			for i := 0; i < count; i++ {
				if _, err := a.store.Append(gen.RandomTransaction()); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appended %d blocks\n", count)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&count, "count", "n", 10, "Number of transactions")
	f.Int64Var(&seed, "seed", 0, "Random seed (default time-based)")
	f.StringVar(&out, "out", "", "Write a new ledger file here instead (encrypted when encrypt is on)")
	return cmd
}
