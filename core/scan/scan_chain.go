package scan

import (
	"fmt"
	"io"

	"scanledger/core/block"
)

// Kind classifies a finding.
type Kind string

const (
	KindBadSentinel    Kind = "bad_sentinel"
	KindLinkMismatch   Kind = "link_mismatch"
	KindDigestMismatch Kind = "digest_mismatch"
	KindPositionGap    Kind = "position_gap"
	// KindPlaintextName marks a block that still carries the patient name in
	// clear. It is a privacy finding, not an integrity one.
	KindPlaintextName Kind = "plaintext_name"
)

// Finding is one problem observed at a block.
type Finding struct {
	Position int    `json:"position"`
	Kind     Kind   `json:"kind"`
	Detail   string `json:"detail"`
}

// Report is the result of scanning a chain.
type Report struct {
	Blocks      int       `json:"blocks"`
	Fingerprint string    `json:"fingerprint"`
	Findings    []Finding `json:"findings"`

	chain []block.Block
}

// Intact reports whether every link, digest and position checks out.
func (r Report) Intact() bool {
	for _, f := range r.Findings {
		if f.Kind != KindPlaintextName {
			return false
		}
	}
	return true
}

// Count returns how many findings of kind k were recorded.
func (r Report) Count(k Kind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == k {
			n++
		}
	}
	return n
}

// At returns the findings recorded against position.
func (r Report) At(position int) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Position == position {
			out = append(out, f)
		}
	}
	return out
}

// ScanChain walks chain in order and records every broken link, stale
// digest, out-of-sequence position and retained plaintext name.
func ScanChain(chain []block.Block) Report {
	r := Report{
		Blocks:      len(chain),
		Fingerprint: block.Fingerprint(chain),
		chain:       chain,
	}
	add := func(pos int, k Kind, format string, args ...interface{}) {
		r.Findings = append(r.Findings, Finding{Position: pos, Kind: k, Detail: fmt.Sprintf(format, args...)})
	}
	for i := range chain {
		b := &chain[i]
		if b.Position != i+1 {
			add(b.Position, KindPositionGap, "expected position %d", i+1)
		}
		if i == 0 {
			if b.PreviousDigest != block.Sentinel {
				add(b.Position, KindBadSentinel, "first block links to %s", short(b.PreviousDigest))
			}
		} else if prev := chain[i-1].Digest; b.PreviousDigest != prev {
			add(b.Position, KindLinkMismatch, "links to %s, predecessor is %s", short(b.PreviousDigest), short(prev))
		}
		if got := b.ComputeDigest(); got != b.Digest {
			add(b.Position, KindDigestMismatch, "stored %s, computed %s", short(b.Digest), short(got))
		}
		if b.Transaction.HasPlaintextName() {
			add(b.Position, KindPlaintextName, "patient_name stored in clear")
		}
	}
	return r
}

// Print writes a per-block listing followed by a summary.
func (r Report) Print(w io.Writer) {
	for i := range r.chain {
		b := &r.chain[i]
		fmt.Fprintf(w, "Block %d\n", b.Position)
		fmt.Fprintf(w, "  ▸ Timestamp: %s\n", b.Timestamp)
		fmt.Fprintf(w, "  ▸ PrevDigest: %s\n", b.PreviousDigest)
		fmt.Fprintf(w, "  ▸ Digest: %s\n", b.Digest)
		for _, f := range r.At(b.Position) {
			fmt.Fprintf(w, "  ✗ %s: %s\n", f.Kind, f.Detail)
		}
		fmt.Fprintln(w, "-----------------------------------")
	}
	status := "INTACT"
	if !r.Intact() {
		status = "BROKEN"
	}
	fmt.Fprintf(w, "blocks: %d  fingerprint: %s  status: %s\n", r.Blocks, r.Fingerprint, status)
	if n := r.Count(KindPlaintextName); n > 0 {
		fmt.Fprintf(w, "warning: %d block(s) retain plaintext patient names\n", n)
	}
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
