package block

import (
	"crypto/sha256"
	"encoding/hex"
)

// MerkleRoot computes the Merkle root of a list of hashes (as hex strings).
// If the list is empty, returns an empty string.
func MerkleRoot(hashes []string) string {
	n := len(hashes)
	if n == 0 {
		return ""
	}
	level := append([]string(nil), hashes...)
	for n > 1 {
		var nextLevel []string
		for i := 0; i < n; i += 2 {
			right := level[i]
			if i+1 < n {
				right = level[i+1]
			}
			// odd node is hashed with itself
			h := sha256.New()
			h.Write([]byte(level[i]))
			h.Write([]byte(right))
			nextLevel = append(nextLevel, hex.EncodeToString(h.Sum(nil)))
		}
		level = nextLevel
		n = len(level)
	}
	return level[0]
}

// Fingerprint is the Merkle root over the stored block digests, in order.
// Any change to a stored digest or to block order changes it.
func Fingerprint(chain []Block) string {
	digests := make([]string, len(chain))
	for i, b := range chain {
		digests[i] = b.Digest
	}
	return MerkleRoot(digests)
}
