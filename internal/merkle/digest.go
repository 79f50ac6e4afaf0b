// Package merkle implements the fixed-shape incremental Merkle tree at the
// center of the storage map: a flat array of nodes built bottom-up from
// piece hashes, settable one leaf at a time as pieces complete, and
// capable of producing and verifying proofs — including proofs that
// truthfully declare themselves partial because the tree isn't fully
// built yet. See doc.go for the full package overview.
package merkle

import "crypto/sha512"

// Digest abstracts the hash function parameterising a Tree. Sum must
// always return a slice of exactly Size() bytes.
type Digest interface {
	Sum(data []byte) []byte
	Size() int
}

// SHA512 is the digest used throughout the storage map: 64-byte output,
// stdlib crypto/sha512. No third-party hash library in the retrieval pack
// offers a closer drop-in for this exact fixed-output, non-keyed digest
// requirement, so this one component stays on the standard library (see
// DESIGN.md).
type SHA512 struct{}

// Sum implements Digest.
func (SHA512) Sum(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

// Size implements Digest.
func (SHA512) Size() int { return sha512.Size }
