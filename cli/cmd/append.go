package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"scanledger/core/block"
	"scanledger/core/validation"
)

func newAppendCmd(a *app) *cobra.Command {
	var (
		name, scanType, bodyPart, cost, visitDate, payload string
	)
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append a scan transaction to the ledger",
		Example: `  scanledger append --name "Jane Doe" --scan-type MRI --body-part Head --cost 420.50 --date 2026-10-01
  scanledger append --json '{"name_digest":"…","scan_type":"X-Ray","body_part":"Arm","cost":80,"visit_date":"2026-10-01"}'
  cat tx.json | scanledger append --json -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				added block.Block
				err   error
			)
			if cmd.Flags().Changed("json") {
				tx, perr := parsePayload(cmd.InOrStdin(), payload)
				if perr != nil {
					return perr
				}
				added, err = a.store.Append(tx)
			} else {
				tx, perr := buildTransaction(name, scanType, bodyPart, cost, visitDate)
				if perr != nil {
					return perr
				}
				added, err = a.store.Record(name, tx.ScanType, tx.BodyPart, tx.Cost, tx.VisitDate)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appended block %d\nDigest: %s\nPrevious: %s\n", added.Position, added.Digest, added.PreviousDigest)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Patient name")
	f.StringVar(&scanType, "scan-type", "", "Scan type: CT Scan|X-Ray|MRI|Ultrasound")
	f.StringVar(&bodyPart, "body-part", "", "Body part: Head|Chest|Abdomen|Spine|Leg|Arm|Pelvis")
	f.StringVar(&cost, "cost", "", "Cost, two decimals")
	f.StringVar(&visitDate, "date", "", "Visit date YYYY-MM-DD (default today)")
	f.StringVar(&payload, "json", "", "Transaction JSON payload, or - to read stdin")
	cmd.MarkFlagsMutuallyExclusive("json", "name")
	return cmd
}

func parsePayload(stdin io.Reader, payload string) (block.Transaction, error) {
	data := []byte(payload)
	if payload == "-" {
		var err error
		if data, err = io.ReadAll(stdin); err != nil {
			return block.Transaction{}, fmt.Errorf("read payload: %w", err)
		}
	}
	return validation.ParseTransactionPayload(data)
}

// buildTransaction parses the flag values. The returned transaction carries
// no patient identity; the store fills that in.
func buildTransaction(name, scanType, bodyPart, cost, visitDate string) (block.Transaction, error) {
	var tx block.Transaction
	if name == "" {
		return tx, fmt.Errorf("%w: --name is required", block.ErrInvalidTransaction)
	}
	s, err := block.ParseScanType(scanType)
	if err != nil {
		return tx, err
	}
	p, err := block.ParseBodyPart(bodyPart)
	if err != nil {
		return tx, err
	}
	c, err := block.ParseCost(cost)
	if err != nil {
		return tx, err
	}
	d := block.DateOf(time.Now())
	if visitDate != "" {
		if d, err = block.ParseDate(visitDate); err != nil {
			return tx, err
		}
	}
	tx.ScanType, tx.BodyPart, tx.Cost, tx.VisitDate = s, p, c, d
	return tx, nil
}

