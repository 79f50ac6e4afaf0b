package router

import (
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/merkle"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
)

// Every storage map operation crosses a worker's mailbox as one of the
// request types below, and answers with the matching reply type (or an
// error, carried back on the same reply channel instead). Request/reply
// pairs are plain data — a worker never hands out its *storagemap.StorageMap
// directly, so every access to it is serialized through the single
// goroutine that owns it.

// CreateRequest asks the router to build a brand new storage map named
// Name over Items and start a worker for it.
type CreateRequest struct {
	Name  string
	Items []resource.Item
}

// CreateReply is returned once the new storage map's worker is running.
type CreateReply struct{}

// LoadRequest asks the router to reconstruct a storage map named Name from
// a previously saved envelope at Path and start a worker for it.
type LoadRequest struct {
	Name string
	Path string
}

// LoadReply is returned once the reloaded storage map's worker is running.
type LoadReply struct{}

// SaveRequest asks a running worker to persist its storage map to Path.
type SaveRequest struct {
	Path string
}

// SaveReply is returned once the save completes.
type SaveReply struct{}

// ReadChunkRequest asks a running worker for one chunk's bytes.
type ReadChunkRequest struct {
	Chunk int64
}

// ReadChunkReply carries the requested chunk's bytes.
type ReadChunkReply struct {
	Data []byte
}

// WriteChunkRequest asks a running worker to write one chunk's bytes.
type WriteChunkRequest struct {
	Chunk int64
	Data  []byte
}

// WriteChunkReply is returned once the write (and any resulting piece
// completion / tree commit) finishes.
type WriteChunkReply struct{}

// HasChunkRequest asks whether a chunk is locally present.
type HasChunkRequest struct {
	Chunk int64
}

// HasChunkReply carries the answer.
type HasChunkReply struct {
	Has bool
}

// HasPieceRequest asks whether every chunk of a piece is locally present.
type HasPieceRequest struct {
	Piece int64
}

// HasPieceReply carries the answer.
type HasPieceReply struct {
	Has bool
}

// ProveRequest asks a running worker for a Merkle proof of one leaf.
type ProveRequest struct {
	Leaf int
}

// ProveReply carries the generated proof.
type ProveReply struct {
	Proof merkle.Proof
}

// VerifyProofRequest asks a running worker to check a proof against its
// own tree state.
type VerifyProofRequest struct {
	Proof merkle.Proof
}

// VerifyProofReply is returned once verification succeeds; a failed
// verification comes back as an error instead.
type VerifyProofReply struct{}
