package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/chunkmap"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/merkle"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storagemap"
)

// versionTag identifies the envelope's wire layout. Bumped whenever a
// field is added, removed, or reordered; Load refuses anything but the
// version it knows.
type versionTag uint64

const versionV1 versionTag = 1

var sha512 = merkle.SHA512{}

// Save serializes m into the V1 envelope format and writes it to path,
// truncating any existing file and creating parent directories as
// needed. The write is not atomic — a crash mid-write can leave a
// truncated file at path; callers wanting atomicity should write to a
// temp path and rename.
func Save(m *storagemap.StorageMap, path string) error {
	p := NewPacker()
	p.PackUint64(uint64(versionV1))

	packTree(p, m.Tree())
	packChunks(p, m.Chunks())
	packStorage(p, m)

	if err := p.Err(); err != nil {
		return fmt.Errorf("persistence: encode %s: %w", m.Name(), err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("persistence: create parent dir for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, p.Bytes(), 0o644); err != nil {
		return fmt.Errorf("persistence: write %s: %w", path, err)
	}
	return nil
}

func packTree(p *Packer, t *merkle.Tree) {
	p.PackUint64(uint64(t.LeafCount()))
	p.PackUint64(uint64(t.Height()))
	p.PackBytes(t.HashesBytes())
	p.PackBytes(t.PresentBytes())
}

func packChunks(p *Packer, c *chunkmap.ChunkMap) {
	p.PackUint64(uint64(c.ChunkSize()))
	p.PackUint64(uint64(c.ChunkCount()))
	p.PackUint64(uint64(c.PieceSize()))
	p.PackUint64(uint64(c.PieceCount()))
	p.PackUint64(uint64(c.ChunksInPiece()))
	p.PackBytes(c.Bytes())
}

func packStorage(p *Packer, m *storagemap.StorageMap) {
	p.PackString(m.Name())
	p.PackUint64(uint64(m.Storage().TotalSize()))
	locs := m.Storage().Locations()
	p.PackUint64(uint64(len(locs)))
	for _, loc := range locs {
		p.PackString(loc)
	}
}

// Load reads the envelope at path and reassembles a StorageMap from it:
// the chunk bitmap and tree state are restored exactly as saved, and each
// backing resource is reopened by location — its current on-disk size,
// not the saved total, determines its contribution to the reassembled
// storage. Load does not re-verify a resource's size against what was
// saved; a resource that changed size on disk between Save and Load is
// accepted at its new size, with no size-mismatch error at Load or later —
// only reads and writes against the restored chunk geometry may then land
// misaligned or fail as out of range.
func Load(path string) (*storagemap.StorageMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: read %s: %w", path, err)
	}

	u := NewUnpacker(raw)
	version := versionTag(u.UnpackUint64())
	if err := u.Err(); err != nil {
		return nil, fmt.Errorf("persistence: decode %s: %w", path, err)
	}
	if version != versionV1 {
		return nil, fmt.Errorf("persistence: %s: unsupported envelope version %d", path, version)
	}

	leafCount := int(u.UnpackUint64())
	height := int(u.UnpackUint64())
	hashesBytes := u.UnpackBytes()
	presentBytes := u.UnpackBytes()

	chunkSize := int64(u.UnpackUint64())
	chunkCount := int64(u.UnpackUint64())
	pieceSize := int64(u.UnpackUint64())
	pieceCount := int64(u.UnpackUint64())
	chunksInPiece := int64(u.UnpackUint64())
	chunkBitmap := u.UnpackBytes()

	name := u.UnpackString()
	_ = u.UnpackUint64() // saved total size; recomputed from live resources below
	locCount := int(u.UnpackUint64())
	locations := make([]string, locCount)
	for i := range locations {
		locations[i] = u.UnpackString()
	}

	if err := u.Err(); err != nil {
		return nil, fmt.Errorf("persistence: decode %s: %w", path, err)
	}

	tree, err := merkle.FromRaw(leafCount, sha512, hashesBytes, presentBytes)
	if err != nil {
		return nil, fmt.Errorf("persistence: rebuild tree for %s: %w", name, err)
	}
	if tree.Height() != height {
		return nil, fmt.Errorf("persistence: %s: saved height %d does not match reconstructed height %d", name, height, tree.Height())
	}

	chunks := chunkmap.NewFromBitmap(chunkBitmap, chunkSize, chunkCount, pieceSize, pieceCount, chunksInPiece)

	items, err := resource.CollectSizes(locations)
	if err != nil {
		return nil, fmt.Errorf("persistence: reopen resources for %s: %w", name, err)
	}
	st, err := storage.New(name, items)
	if err != nil {
		return nil, fmt.Errorf("persistence: reconstruct storage for %s: %w", name, err)
	}

	return storagemap.FromParts(name, st, chunks, tree), nil
}
