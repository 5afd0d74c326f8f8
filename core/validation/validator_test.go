package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanledger/core/block"
	"scanledger/types/ids"
)

func validPayload() []byte {
	return []byte(`{
  "name_digest": "` + ids.PatientDigest("alice") + `",
  "scan_type": "CT Scan",
  "body_part": "Spine",
  "cost": 420.75,
  "visit_date": "2026-02-14",
  "patient_name": "alice"
}`)
}

func TestParseTransactionPayload_Valid(t *testing.T) {
	tx, err := ParseTransactionPayload(validPayload())
	require.NoError(t, err)
	assert.Equal(t, block.ScanCT, tx.ScanType)
	assert.Equal(t, block.BodySpine, tx.BodyPart)
	assert.Equal(t, "420.75", tx.Cost.String())
	assert.Equal(t, "2026-02-14", tx.VisitDate.String())
	require.NotNil(t, tx.PatientName)
	assert.Equal(t, "alice", *tx.PatientName)
}

func TestValidateTransactionPayload_Rejects(t *testing.T) {
	digest := ids.PatientDigest("bob")
	cases := map[string]string{
		"missing fields": `{"name_digest": "` + digest + `"}`,
		"plaintext id":   `{"name_digest": "bob", "scan_type": "MRI", "body_part": "Arm", "cost": 1, "visit_date": "2026-01-01"}`,
		"scan type":      `{"name_digest": "` + digest + `", "scan_type": "PET", "body_part": "Arm", "cost": 1, "visit_date": "2026-01-01"}`,
		"body part":      `{"name_digest": "` + digest + `", "scan_type": "MRI", "body_part": "Tail", "cost": 1, "visit_date": "2026-01-01"}`,
		"negative cost":  `{"name_digest": "` + digest + `", "scan_type": "MRI", "body_part": "Arm", "cost": -5, "visit_date": "2026-01-01"}`,
		"date format":    `{"name_digest": "` + digest + `", "scan_type": "MRI", "body_part": "Arm", "cost": 1, "visit_date": "01/02/2026"}`,
		"not json":       `{"name_digest":`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateTransactionPayload([]byte(payload))
			assert.ErrorIs(t, err, block.ErrInvalidTransaction)
		})
	}
}

func TestParseTransactionPayload_ImpossibleDate(t *testing.T) {
	payload := `{"name_digest": "` + ids.PatientDigest("bob") + `", "scan_type": "MRI", "body_part": "Arm", "cost": 1, "visit_date": "2026-02-30"}`
	_, err := ParseTransactionPayload([]byte(payload))
	assert.ErrorIs(t, err, block.ErrInvalidTransaction)
}

func TestValidateTransaction_Typed(t *testing.T) {
	tx := block.NewTransaction("carol", block.ScanXRay, block.BodyLeg, block.CostFromFloat(80), block.NewDate(2026, time.May, 5), false)
	require.NoError(t, ValidateTransaction(tx))

	tx.VisitDate = block.Date{}
	assert.ErrorIs(t, ValidateTransaction(tx), block.ErrInvalidTransaction)
}

func TestValidateLedgerDocument(t *testing.T) {
	var chain []block.Block
	chain = block.Append(chain, block.NewTransaction("dave", block.ScanMRI, block.BodyHead, block.CostFromFloat(300), block.NewDate(2026, 1, 1), true), time.Now())
	doc, err := chain[0].Serialize()
	require.NoError(t, err)

	require.NoError(t, ValidateLedgerDocument([]byte("["+string(doc)+"]")))
	require.NoError(t, ValidateLedgerDocument([]byte("[]")))

	assert.ErrorIs(t, ValidateLedgerDocument([]byte(`{"position": 1}`)), ErrInvalidDocument)
	assert.ErrorIs(t, ValidateLedgerDocument([]byte(`[{"position": 0}]`)), ErrInvalidDocument)
	assert.ErrorIs(t, ValidateLedgerDocument([]byte(`[{`)), ErrInvalidDocument)
}
