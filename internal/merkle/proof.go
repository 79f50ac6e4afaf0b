package merkle

import (
	"bytes"
	"fmt"
)

// Proof attests that LeafHash is the hash at LeafIndex in some tree, via
// an ordered sibling-hash Path from the leaf level upward. Each Path entry
// is nil exactly when that level's node has no sibling (an odd tail);
// otherwise it holds the sibling's hash. Partial is true when the proof
// was generated from a tree that was not yet fully built — a truthful
// partial proof may have a Path shorter than Height entries, because
// generation stops the moment it meets a sibling that exists but isn't
// set yet.
type Proof struct {
	LeafIndex int
	LeafHash  []byte
	Path      [][]byte
	Partial   bool
}

// Prove produces a Proof for leafIndex. Walking upward, each level
// contributes a Path entry: the sibling's hash if the sibling exists and
// is set, nil if the node has no sibling. The root level is included and,
// having no sibling, contributes a final nil entry, so a complete path has
// Height entries. The walk stops early — yielding a path shorter than
// Height — the moment it meets a sibling that exists but is not set. A
// resulting path with fewer than 2 entries is rejected with
// KindInvalidLength.
func (t *Tree) Prove(leafIndex int) (Proof, error) {
	if leafIndex < 0 || leafIndex >= t.leafCount {
		return Proof{}, newErr(KindIndexOutOfRange, fmt.Sprintf("leaf %d, leaf count %d", leafIndex, t.leafCount))
	}

	leafHash := copyHash(t.hashAt(leafIndex))

	var path [][]byte
	cur := IndexedLevel{Level: t.levels[0], Index: leafIndex}
	for levelNum := 0; levelNum < t.height; levelNum++ {
		sibling, hasSibling := cur.Sibling()
		if !hasSibling {
			path = append(path, nil)
		} else if !t.present.Test(uint(sibling)) {
			break
		} else {
			path = append(path, copyHash(t.hashAt(sibling)))
		}

		if levelNum+1 < t.height {
			parent := cur.Parent()
			cur = IndexedLevel{Level: t.levels[levelNum+1], Index: parent}
		}
	}

	if len(path) < 2 {
		return Proof{}, newErr(KindInvalidLength, fmt.Sprintf("leaf %d: path length %d", leafIndex, len(path)))
	}

	return Proof{
		LeafIndex: leafIndex,
		LeafHash:  leafHash,
		Path:      path,
		Partial:   !t.Built(),
	}, nil
}

// Verify checks proof against the tree's own locally known hashes: the
// leaf index must be in range, the path must have at least 2 entries, the
// proof's leaf hash must match what this tree holds for that leaf, and a
// freshly regenerated local proof for the same leaf must validate against
// it.
func (t *Tree) Verify(proof Proof) error {
	if proof.LeafIndex < 0 || proof.LeafIndex >= t.leafCount {
		return newErr(KindIndexOutOfRange, fmt.Sprintf("leaf %d, leaf count %d", proof.LeafIndex, t.leafCount))
	}
	if len(proof.Path) < 2 {
		return newErr(KindInvalidLength, fmt.Sprintf("leaf %d: path length %d", proof.LeafIndex, len(proof.Path)))
	}
	if !bytes.Equal(t.hashAt(proof.LeafIndex), proof.LeafHash) {
		return newErr(KindInvalidHash, fmt.Sprintf("leaf %d: leaf hash mismatch", proof.LeafIndex))
	}

	local, err := t.Prove(proof.LeafIndex)
	if err != nil {
		return err
	}
	return local.Validate(proof)
}

// Validate compares p (generated locally) against other (received,
// untrusted): same leaf index; equal path entries up to the shorter of
// the two lengths; when neither proof is partial, equal path lengths; and
// matching Partial flags. Any mismatch returns the corresponding error
// kind.
func (p Proof) Validate(other Proof) error {
	if p.LeafIndex != other.LeafIndex {
		return newErr(KindInvalidIndex, "leaf index mismatch")
	}

	minLen := len(p.Path)
	if len(other.Path) < minLen {
		minLen = len(other.Path)
	}
	for i := 0; i < minLen; i++ {
		a, b := p.Path[i], other.Path[i]
		if (a == nil) != (b == nil) {
			return newErr(KindInvalidHash, fmt.Sprintf("path entry %d presence mismatch", i))
		}
		if a != nil && !bytes.Equal(a, b) {
			return newErr(KindInvalidHash, fmt.Sprintf("path entry %d hash mismatch", i))
		}
	}

	if !p.Partial && !other.Partial && len(p.Path) != len(other.Path) {
		return newErr(KindInvalidLength, "path length mismatch between non-partial proofs")
	}

	if p.Partial != other.Partial {
		return newErr(KindPartialProof, "partial flag mismatch")
	}

	return nil
}
