package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"scanledger/core/block"
)

func newExportCmd(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as JSON or YAML",
		Example: `  scanledger export --format yaml
  scanledger export --format json --out backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := a.store.Load()
			if err != nil {
				return err
			}
			if out == "" {
				return exportChain(cmd.OutOrStdout(), chain, format)
			}
			return writeExport(out, chain, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format: json|yaml")
	cmd.Flags().StringVar(&out, "out", "", "Write to file instead of stdout")
	return cmd
}

// writeExport writes the export to path. A failed close is reported, since
// it can be the first sign of a short write.
func writeExport(path string, chain []block.Block, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exportChain(f, chain, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func exportChain(w io.Writer, chain []block.Block, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(chain, "", "    ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(chain); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
