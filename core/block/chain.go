package block

import (
	"strings"
	"time"
)

// NextLink returns the previous digest a new block appended to chain would carry.
func NextLink(chain []Block) string {
	if len(chain) == 0 {
		return Sentinel
	}
	return chain[len(chain)-1].Digest
}

// NewBlock builds and seals a block.
func NewBlock(position int, tx Transaction, previousDigest string, now time.Time) Block {
	b := Block{
		Position:       position,
		Timestamp:      FormatTimestamp(now),
		Transaction:    tx,
		PreviousDigest: previousDigest,
	}
	b.Seal()
	return b
}

// Append returns a new chain with tx linked onto the end. The input slice is
// not modified.
func Append(chain []Block, tx Transaction, now time.Time) []Block {
	next := NewBlock(len(chain)+1, tx, NextLink(chain), now)
	out := make([]Block, len(chain), len(chain)+1)
	copy(out, chain)
	return append(out, next)
}

// FindByPatientName returns blocks whose plaintext patient name equals name,
// ignoring case and surrounding space. Blocks without the plaintext field
// cannot match: the digest is one-way. A blank query matches nothing.
func FindByPatientName(chain []Block, name string) []Block {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil
	}
	var found []Block
	for _, b := range chain {
		stored := b.Transaction.PatientName
		if stored == nil {
			continue
		}
		if strings.EqualFold(query, *stored) {
			found = append(found, b)
		}
	}
	return found
}

// DeleteAt removes the block(s) at position and renumbers the survivors
// 1..n. Digests and previous-digest links are left as they were, so a
// survivor that followed the removed block keeps pointing at a digest that is
// no longer in the chain. Returns false when nothing matched.
func DeleteAt(chain []Block, position int) ([]Block, bool) {
	out := make([]Block, 0, len(chain))
	for _, b := range chain {
		if b.Position != position {
			out = append(out, b)
		}
	}
	if len(out) == len(chain) {
		return chain, false
	}
	for i := range out {
		out[i].Position = i + 1
	}
	return out, true
}
