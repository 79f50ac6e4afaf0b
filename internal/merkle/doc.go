// Package merkle implements the tree geometry and proof logic described in
// the design: a flat node array split into levels by computeLevels,
// IndexedLevel sibling/parent arithmetic, and a Tree that can be built
// incrementally (one leaf at a time, any order, idempotently) while still
// producing proofs that honestly report when they came from a
// not-yet-fully-built tree.
//
// leafCount == 1 is a deliberately special case: rather than collapsing to
// a one-node tree, the root is a distinct padding node one level above the
// sole leaf (height 2, node count 2), so that every tree — even a
// single-piece one — has a proof with at least the two path entries
// Prove/Verify require.
package merkle
