package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// ID is a 32-byte SHA-256 digest.
type ID [Size]byte

// Empty is the zero-value ID (all zeros)
var Empty ID

// NewID generates a new ID by hashing input bytes
func NewID(data []byte) ID {
	return ID(sha256.Sum256(data))
}

// FromString parses a 64-character hex string into an ID
func FromString(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != Size {
		return id, fmt.Errorf("digest must be %d bytes, got %d", Size, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String renders the ID as lowercase hex
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Digest returns the lowercase hex SHA-256 of data. Empty input is valid.
func Digest(data []byte) string {
	return NewID(data).String()
}

// PatientDigest pseudonymizes a patient name. The name is lower-cased first
// so "Alice" and "alice" map to the same identifier.
func PatientDigest(name string) string {
	return Digest([]byte(strings.ToLower(name)))
}

// IsDigest reports whether s looks like a rendered digest.
func IsDigest(s string) bool {
	if len(s) != 2*Size {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
