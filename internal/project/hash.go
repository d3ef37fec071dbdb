package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 content hash.
type Digest [32]byte

// Sum hashes one input.
func Sum(content []byte) Digest {
	return sha256.Sum256(content)
}

// Combine hashes a sequence of digests: H(first || rest...). Callers pass
// inputs in a deterministic order.
func Combine(first Digest, rest ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }
