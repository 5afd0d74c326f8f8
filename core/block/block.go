package block

import (
	"encoding/json"
	"time"

	"scanledger/types/ids"
)

// Sentinel is the previous digest of the first block.
const Sentinel = "0"

// TimestampLayout is the human-readable creation time format (ctime style).
const TimestampLayout = time.ANSIC

// Block is one ledger entry. Order is defined by Position and PreviousDigest,
// never by Timestamp.
type Block struct {
	Position       int         `json:"position" yaml:"position"`
	Timestamp      string      `json:"timestamp" yaml:"timestamp"`
	Transaction    Transaction `json:"transaction" yaml:"transaction"`
	PreviousDigest string      `json:"previous_digest" yaml:"previous_digest"`
	Digest         string      `json:"digest" yaml:"digest"`
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Canonical returns the hash input for the block: every field except Digest,
// keys sorted at every level, no whitespace. Cost is rendered as a fixed
// two-decimal string so numeric formatting never changes the digest.
func (b *Block) Canonical() ([]byte, error) {
	type canonicalTransaction struct {
		BodyPart    string  `json:"body_part"`
		Cost        string  `json:"cost"`
		NameDigest  string  `json:"name_digest"`
		PatientName *string `json:"patient_name,omitempty"`
		ScanType    string  `json:"scan_type"`
		VisitDate   string  `json:"visit_date"`
	}
	type canonicalBlock struct {
		Position       int                  `json:"position"`
		PreviousDigest string               `json:"previous_digest"`
		Timestamp      string               `json:"timestamp"`
		Transaction    canonicalTransaction `json:"transaction"`
	}
	tx := b.Transaction
	c := canonicalBlock{
		Position:       b.Position,
		PreviousDigest: b.PreviousDigest,
		Timestamp:      b.Timestamp,
		Transaction: canonicalTransaction{
			BodyPart:    string(tx.BodyPart),
			Cost:        tx.Cost.StringFixed(2),
			NameDigest:  tx.NameDigest,
			PatientName: tx.PatientName,
			ScanType:    string(tx.ScanType),
			VisitDate:   tx.VisitDate.String(),
		},
	}
	return json.Marshal(c)
}

// ComputeDigest hashes the canonical content (Digest itself excluded).
// Canonical marshals only strings, ints and a *string, for which
// json.Marshal cannot fail, so its error is ignored here.
func (b *Block) ComputeDigest() string {
	data, _ := b.Canonical()
	return ids.Digest(data)
}

// Seal sets Digest from the current content.
func (b *Block) Seal() {
	b.Digest = b.ComputeDigest()
}

// Serialize encodes Block into JSON
func (b *Block) Serialize() ([]byte, error) {
	return json.Marshal(b)
}

// Deserialize decodes JSON into Block
func Deserialize(data []byte) (*Block, error) {
	var b Block
	err := json.Unmarshal(data, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
