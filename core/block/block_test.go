package block

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanledger/types/ids"
)

var testNow = time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC)

func testTx(name string) Transaction {
	return NewTransaction(name, ScanMRI, BodyHead, CostFromFloat(250.5), NewDate(2026, time.March, 1), true)
}

func TestNewTransactionPseudonymizes(t *testing.T) {
	tx := NewTransaction("  Alice ", ScanCT, BodyChest, CostFromFloat(99), NewDate(2026, 1, 2), false)
	assert.Equal(t, ids.PatientDigest("alice"), tx.NameDigest)
	assert.False(t, tx.HasPlaintextName())
	require.NoError(t, tx.Validate())

	retained := NewTransaction("Alice", ScanCT, BodyChest, CostFromFloat(99), NewDate(2026, 1, 2), true)
	require.True(t, retained.HasPlaintextName())
	assert.Equal(t, "alice", *retained.PatientName)
	assert.Equal(t, tx.NameDigest, retained.NameDigest)
}

func TestTransactionValidate(t *testing.T) {
	good := testTx("bob")
	require.NoError(t, good.Validate())

	cases := map[string]func(tx *Transaction){
		"digest":    func(tx *Transaction) { tx.NameDigest = "bob" },
		"scan":      func(tx *Transaction) { tx.ScanType = "PET" },
		"body part": func(tx *Transaction) { tx.BodyPart = "Tail" },
		"cost":      func(tx *Transaction) { tx.Cost = CostFromFloat(-1) },
		"date":      func(tx *Transaction) { tx.VisitDate = Date{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			tx := testTx("bob")
			mutate(&tx)
			assert.ErrorIs(t, tx.Validate(), ErrInvalidTransaction)
		})
	}
}

func TestParseEnums(t *testing.T) {
	s, err := ParseScanType("x-ray")
	require.NoError(t, err)
	assert.Equal(t, ScanXRay, s)

	p, err := ParseBodyPart(" pelvis ")
	require.NoError(t, err)
	assert.Equal(t, BodyPelvis, p)

	_, err = ParseScanType("PET")
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	_, err = ParseBodyPart("tail")
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestTransactionJSONShape(t *testing.T) {
	tx := testTx("carol")
	data, err := json.Marshal(tx)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 250.5, raw["cost"])
	assert.Equal(t, "2026-03-01", raw["visit_date"])
	assert.Equal(t, "carol", raw["patient_name"])
	assert.Equal(t, "MRI", raw["scan_type"])

	var back Transaction
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "250.50", back.Cost.String())
	assert.Equal(t, tx.VisitDate, back.VisitDate)
	require.NotNil(t, back.PatientName)
	assert.Equal(t, "carol", *back.PatientName)
}

func TestCostAcceptsQuotedAndBareNumbers(t *testing.T) {
	var c Cost
	require.NoError(t, json.Unmarshal([]byte(`"12.3"`), &c))
	assert.Equal(t, "12.30", c.String())
	require.NoError(t, json.Unmarshal([]byte(`1999.999`), &c))
	assert.Equal(t, "2000.00", c.String())

	parsed, err := ParseCost("5")
	require.NoError(t, err)
	assert.Equal(t, "5.00", parsed.String())
	_, err = ParseCost("five")
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestDecodedCostIsRoundedToCents(t *testing.T) {
	var c Cost
	require.NoError(t, json.Unmarshal([]byte(`10.005`), &c))
	assert.Equal(t, "10.01", c.Decimal.String())

	var text Cost
	require.NoError(t, text.UnmarshalText([]byte("3.14159")))
	assert.Equal(t, "3.14", text.Decimal.String())

	out, err := json.Marshal(c)
	require.NoError(t, err)
	var again Cost
	require.NoError(t, json.Unmarshal(out, &again))
	assert.True(t, c.Equal(again.Decimal))
}

func TestEmptyPlaintextNameSurvivesJSON(t *testing.T) {
	empty := ""
	tx := testTx("dave")
	tx.PatientName = &empty
	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"patient_name":""`)

	var back Transaction
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.PatientName)
	assert.Equal(t, "", *back.PatientName)
}

func TestCanonicalSortsKeysAndExcludesDigest(t *testing.T) {
	b := NewBlock(1, testTx("erin"), Sentinel, testNow)
	data, err := b.Canonical()
	require.NoError(t, err)

	want := `{"position":1,"previous_digest":"0","timestamp":"Wed Mar  4 09:30:00 2026",` +
		`"transaction":{"body_part":"Head","cost":"250.50","name_digest":"` + ids.PatientDigest("erin") +
		`","patient_name":"erin","scan_type":"MRI","visit_date":"2026-03-01"}}`
	assert.Equal(t, want, string(data))
	assert.NotContains(t, string(data), `"digest"`)
	assert.Equal(t, ids.Digest([]byte(want)), b.Digest)
}

func TestCanonicalZeroBlock(t *testing.T) {
	var b Block
	data, err := b.Canonical()
	require.NoError(t, err)
	assert.Equal(t, ids.Digest(data), b.ComputeDigest())
}

func TestDigestIsDeterministicAcrossConstructionOrder(t *testing.T) {
	tx := testTx("frank")
	a := NewBlock(2, tx, "abc", testNow)

	var b Block
	b.Digest = "stale"
	b.PreviousDigest = "abc"
	b.Transaction = tx
	b.Timestamp = FormatTimestamp(testNow)
	b.Position = 2

	assert.Equal(t, a.ComputeDigest(), b.ComputeDigest())
	assert.Equal(t, a.Digest, b.ComputeDigest())
	assert.Equal(t, a.ComputeDigest(), a.ComputeDigest())
}

func TestDigestCoversEveryContentField(t *testing.T) {
	base := NewBlock(1, testTx("gina"), Sentinel, testNow)
	mutations := map[string]func(b *Block){
		"position":  func(b *Block) { b.Position = 2 },
		"timestamp": func(b *Block) { b.Timestamp = FormatTimestamp(testNow.Add(time.Second)) },
		"previous":  func(b *Block) { b.PreviousDigest = "1" },
		"cost":      func(b *Block) { b.Transaction.Cost = CostFromFloat(250.51) },
		"name":      func(b *Block) { b.Transaction.PatientName = nil },
		"body part": func(b *Block) { b.Transaction.BodyPart = BodyArm },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			b := base
			mutate(&b)
			assert.NotEqual(t, base.Digest, b.ComputeDigest())
		})
	}
}

func TestSerializeDeserialize(t *testing.T) {
	b := NewBlock(1, testTx("hank"), Sentinel, testNow)
	data, err := b.Serialize()
	require.NoError(t, err)

	out, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, b.Digest, out.Digest)
	assert.Equal(t, b.Digest, out.ComputeDigest())

	_, err = Deserialize([]byte(`{"position":`))
	assert.Error(t, err)
}
