// Package storagemap is the public verifiable-storage object: the
// composition point where a chunk write becomes, once its piece
// completes, a Merkle tree commitment. See storagemap.go for the
// composition rules and the chunk-always-digests-the-piece-not-the-chunk
// distinction that makes the tree commit at piece granularity while
// writes happen at chunk granularity.
package storagemap
