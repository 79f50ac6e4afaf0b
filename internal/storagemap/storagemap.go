// Package storagemap composes a Storage, a ChunkMap and a Merkle tree into
// the public verifiable-storage object: the aggregate a node advertises,
// receives chunks into, and proves pieces of to peers. See doc.go for the
// full package overview.
package storagemap

import (
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/chunkmap"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/merkle"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
)

// digest is the fixed hash used throughout: SHA-512, 64-byte output.
var digest = merkle.SHA512{}

// StorageMap aggregates one Storage, one ChunkMap, and one Merkle tree
// whose leaf count equals the chunk map's piece count. For every piece
// whose chunks are all present, the corresponding tree leaf holds
// D(piece_bytes), and every ancestor reachable through set sibling pairs
// is correctly set — an invariant WriteChunk maintains by digesting a
// piece's full bytes exactly once, the moment its last chunk arrives.
type StorageMap struct {
	name    string
	storage *storage.Storage
	chunks  *chunkmap.ChunkMap
	tree    *merkle.Tree
}

// New constructs a Storage from items and a fresh ChunkMap/Merkle tree with
// every chunk bit unset: the ordinary entry point for a storage map built to
// receive chunks (over the router, or from storagemapd's HTTP front door),
// where the backing resources have just been allocated and hold no
// meaningful bytes yet. Writing every chunk transitions the map to fully
// verified, exercising WriteChunk's piece-completion/tree-commit path.
func New(name string, items []resource.Item) (*StorageMap, error) {
	return newWithPresence(name, items, false)
}

// Open is New's counterpart for resources that are already fully
// populated with real data — e.g. storagenode's create command, building a
// storage map over resource files recovered outside of a persistence
// envelope (see resource.CollectSizes). Every chunk starts marked present
// and the Merkle tree is built eagerly from the existing bytes, since there
// is nothing left to receive.
func Open(name string, items []resource.Item) (*StorageMap, error) {
	return newWithPresence(name, items, true)
}

func newWithPresence(name string, items []resource.Item, allSet bool) (*StorageMap, error) {
	st, err := storage.New(name, items)
	if err != nil {
		return nil, err
	}

	chunks := chunkmap.New(st.TotalSize(), allSet)

	var tree *merkle.Tree
	if allSet {
		tree, err = merkle.FromIter(st.Iter(int(chunks.PieceSize())), int(chunks.PieceCount()), digest)
	} else {
		tree = merkle.New(int(chunks.PieceCount()), digest)
	}
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &StorageMap{name: name, storage: st, chunks: chunks, tree: tree}, nil
}

// FromParts assembles a StorageMap from already-constructed pieces —
// used by the persistence layer to reassemble a map whose chunk bitmap and
// tree state were restored from a saved blob rather than derived fresh.
func FromParts(name string, st *storage.Storage, chunks *chunkmap.ChunkMap, tree *merkle.Tree) *StorageMap {
	return &StorageMap{name: name, storage: st, chunks: chunks, tree: tree}
}

// Name returns the storage map's identifying name.
func (m *StorageMap) Name() string { return m.name }

// Storage exposes the underlying Storage, for the persistence layer.
func (m *StorageMap) Storage() *storage.Storage { return m.storage }

// Chunks exposes the underlying ChunkMap, for the persistence layer.
func (m *StorageMap) Chunks() *chunkmap.ChunkMap { return m.chunks }

// Tree exposes the underlying Merkle tree, for the persistence layer.
func (m *StorageMap) Tree() *merkle.Tree { return m.tree }

// Close releases the underlying storage's resources.
func (m *StorageMap) Close() error { return m.storage.Close() }

// ReadChunk returns chunk c's bytes. It fails with KindChunkDoesNotExist
// if the chunk's presence bit is unset.
func (m *StorageMap) ReadChunk(c int64) ([]byte, error) {
	has, err := m.chunks.HasChunk(c)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, newErr(KindChunkDoesNotExist, c)
	}

	buf := make([]byte, m.chunks.ChunkSize())
	n, err := m.storage.Read(c*m.chunks.ChunkSize(), buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// WriteChunk writes data as chunk c. It fails with KindChunkAlreadyExists
// if the chunk's presence bit is already set — once written, a chunk can
// never be rewritten, so a piece can only transition from incomplete to
// complete. If writing c completes its enclosing piece, the full piece is
// re-read from storage, digested, and committed to the Merkle tree leaf
// for that piece.
func (m *StorageMap) WriteChunk(c int64, data []byte) error {
	has, err := m.chunks.HasChunk(c)
	if err != nil {
		return err
	}
	if has {
		return newErr(KindChunkAlreadyExists, c)
	}

	if _, err := m.storage.Write(c*m.chunks.ChunkSize(), data); err != nil {
		return err
	}
	if err := m.chunks.SetChunk(c); err != nil {
		return err
	}

	piece := m.chunks.PieceFromChunk(c)
	complete, err := m.chunks.HasPiece(piece)
	if err != nil {
		return err
	}
	if !complete {
		return nil
	}

	pieceBuf := make([]byte, m.chunks.PieceSize())
	n, err := m.storage.Read(piece*m.chunks.PieceSize(), pieceBuf)
	if err != nil {
		return err
	}
	return m.tree.Set(int(piece), digest.Sum(pieceBuf[:n]))
}

// HasChunk reports whether chunk c is locally present.
func (m *StorageMap) HasChunk(c int64) (bool, error) {
	return m.chunks.HasChunk(c)
}

// HasPiece reports whether piece p's chunks are all locally present.
func (m *StorageMap) HasPiece(p int64) (bool, error) {
	return m.chunks.HasPiece(p)
}

// Prove forwards to the Merkle tree, producing a proof for leaf.
func (m *StorageMap) Prove(leaf int) (merkle.Proof, error) {
	return m.tree.Prove(leaf)
}

// VerifyProof forwards to the Merkle tree.
func (m *StorageMap) VerifyProof(proof merkle.Proof) error {
	return m.tree.Verify(proof)
}
