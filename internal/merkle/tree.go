package merkle

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// storageIterator is the minimal pull interface Tree needs from
// storage.Iterator, kept local so this package doesn't depend on the
// storage package just to seed a tree from its blocks.
type storageIterator interface {
	Next() ([]byte, bool)
}

// Tree is a fixed-shape binary tree over leafCount piece hashes, laid out
// in a single flat byte buffer indexed level-by-level bottom-up: indices
// [0, leafCount) are leaves, then each subsequent level's nodes, up to a
// single root. It supports incremental construction — Set may be called
// for leaves in any order, any number of times (idempotently) — and
// produces proofs that honestly report whether they came from a fully
// built tree.
type Tree struct {
	digest    Digest
	present   *bitset.BitSet
	levels    []Level
	hashes    []byte
	leafCount int
	nodeCount int
	height    int
	hashSize  int
	setCount  int
}

// New constructs an empty tree of the right shape for leafCount leaves,
// with no nodes set.
func New(leafCount int, d Digest) *Tree {
	levels := computeLevels(leafCount)
	nodeCount := 0
	height := len(levels)
	if height > 0 {
		nodeCount = levels[height-1].End
	}
	return &Tree{
		digest:    d,
		levels:    levels,
		hashes:    make([]byte, nodeCount*d.Size()),
		present:   bitset.New(uint(nodeCount)),
		leafCount: leafCount,
		nodeCount: nodeCount,
		height:    height,
		hashSize:  d.Size(),
	}
}

// FromIter streams leafCount blocks from it through d to produce leaf
// hashes in order (leaf i = d.Sum(block_i)), sets each leaf as it arrives,
// and returns once the iterator is exhausted; it fails with
// KindInvalidLength if the iterator yields more or fewer than leafCount
// blocks. Each Set call's
// own upward propagation means the tree ends up fully built without any
// separate bottom-up pass, as long as exactly leafCount blocks arrive.
func FromIter(it storageIterator, leafCount int, d Digest) (*Tree, error) {
	t := New(leafCount, d)
	i := 0
	for {
		block, ok := it.Next()
		if !ok {
			break
		}
		if i >= leafCount {
			return nil, newErr(KindInvalidLength, fmt.Sprintf("iterator produced more than %d leaf blocks", leafCount))
		}
		if err := t.Set(i, d.Sum(block)); err != nil {
			return nil, err
		}
		i++
	}
	if i != leafCount {
		return nil, newErr(KindInvalidLength, fmt.Sprintf("iterator produced %d blocks, wanted %d", i, leafCount))
	}
	return t, nil
}

// LeafCount returns L, the number of leaves (pieces) the tree commits to.
func (t *Tree) LeafCount() int { return t.leafCount }

// NodeCount returns the total number of nodes across all levels.
func (t *Tree) NodeCount() int { return t.nodeCount }

// Height returns the number of levels, leaf level included.
func (t *Tree) Height() int { return t.height }

// Has reports whether node i's hash has been written.
func (t *Tree) Has(i int) bool {
	return t.present.Test(uint(i))
}

// Built reports whether every node in the tree has been set.
func (t *Tree) Built() bool {
	return t.setCount == t.nodeCount
}

// hashAt returns the mutable slice of the flat buffer backing node i.
func (t *Tree) hashAt(i int) []byte {
	return t.hashes[i*t.hashSize : (i+1)*t.hashSize]
}

// Get returns leaf_i's hash. It fails with KindIndexOutOfRange if leaf_i is
// not a valid leaf index; it does not fail if the leaf hasn't been set yet
// (the returned bytes are simply all-zero in that case).
func (t *Tree) Get(leafIndex int) ([]byte, error) {
	if leafIndex < 0 || leafIndex >= t.leafCount {
		return nil, newErr(KindIndexOutOfRange, fmt.Sprintf("leaf %d, leaf count %d", leafIndex, t.leafCount))
	}
	return copyHash(t.hashAt(leafIndex)), nil
}

// Set writes leaf_i's hash, marks it present, and propagates the change
// upward through buildDown. Setting the same leaf to the same hash twice
// is idempotent: the resulting tree state is identical either way.
func (t *Tree) Set(leafIndex int, hash []byte) error {
	if leafIndex < 0 || leafIndex >= t.leafCount {
		return newErr(KindIndexOutOfRange, fmt.Sprintf("leaf %d, leaf count %d", leafIndex, t.leafCount))
	}
	t.setNode(leafIndex, hash)
	t.buildDown(leafIndex)
	return nil
}

func (t *Tree) setNode(index int, hash []byte) {
	copy(t.hashAt(index), hash)
	if !t.present.Test(uint(index)) {
		t.present.Set(uint(index))
		t.setCount++
	}
}

// buildDown propagates a newly-set node upward: at each level, if the
// current node has a sibling that exists but is not yet set, propagation
// stops silently — it resumes automatically the next time that sibling is
// set. Otherwise the parent's hash is computed by digesting the present
// sibling(s) in left-right order (a node with no sibling, the odd tail,
// hashes alone) and the walk continues one level up. This makes Set
// idempotent and monotone: the set of set-node indices only grows, and a
// fully-present subtree's ancestors are always correctly set.
func (t *Tree) buildDown(index int) {
	cur := IndexedLevel{Level: t.levels[0], Index: index}
	for levelNum := 0; levelNum < t.height-1; levelNum++ {
		sibling, hasSibling := cur.Sibling()
		if hasSibling && !t.present.Test(uint(sibling)) {
			return
		}

		offset := cur.Index - cur.Level.Start
		var data []byte
		if !hasSibling {
			data = append(data, t.hashAt(cur.Index)...)
		} else if offset%2 == 0 {
			data = append(data, t.hashAt(cur.Index)...)
			data = append(data, t.hashAt(sibling)...)
		} else {
			data = append(data, t.hashAt(sibling)...)
			data = append(data, t.hashAt(cur.Index)...)
		}

		parent := cur.Parent()
		t.setNode(parent, t.digest.Sum(data))

		cur = IndexedLevel{Level: t.levels[levelNum+1], Index: parent}
	}
}

func copyHash(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// HashesBytes returns a copy of the tree's flat hash buffer, node 0 first —
// the form the persistence envelope saves.
func (t *Tree) HashesBytes() []byte {
	return copyHash(t.hashes)
}

// PresentBytes packs the per-node presence bitmap into bytes, node 0's bit
// in the low bit of byte 0 — the form the persistence envelope saves
// alongside HashesBytes.
func (t *Tree) PresentBytes() []byte {
	out := make([]byte, (t.nodeCount+7)/8)
	for i := 0; i < t.nodeCount; i++ {
		if t.present.Test(uint(i)) {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// FromRaw reconstructs a Tree directly from a previously persisted flat
// hash buffer and presence bitmap, skipping FromIter's leaf-by-leaf
// digesting — used by the persistence envelope at Load time, where the
// saved state already reflects every Set call the tree saw before it was
// written out.
func FromRaw(leafCount int, d Digest, hashesBytes, presentBytes []byte) (*Tree, error) {
	t := New(leafCount, d)
	if len(hashesBytes) != len(t.hashes) {
		return nil, newErr(KindInvalidLength, fmt.Sprintf("hashes buffer is %d bytes, wanted %d", len(hashesBytes), len(t.hashes)))
	}
	copy(t.hashes, hashesBytes)

	setCount := 0
	for i := 0; i < t.nodeCount; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if int(byteIdx) < len(presentBytes) && presentBytes[byteIdx]&(1<<bitIdx) != 0 {
			t.present.Set(uint(i))
			setCount++
		}
	}
	t.setCount = setCount
	return t, nil
}
