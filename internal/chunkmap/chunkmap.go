// Package chunkmap implements the chunk/piece presence bitmap: pure
// arithmetic and bit tracking (no I/O) over which fixed-size chunks of a
// storage map's data are locally present, grouped into larger pieces that
// align with the Merkle tree's leaf granularity. See doc.go for the full
// package overview.
package chunkmap

import (
	"fmt"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
)

// MinPieceSize and MaxPieceSize are fixed constants of the design.
// MaxPieceSize is deliberately smaller than MinPieceSize — see
// computePieceSize and DESIGN.md's open-question entry for this exact
// pair of literals. The values are preserved unchanged from the source
// they were distilled from; this is a known, flagged oddity, not a
// transcription error.
const (
	MinPieceSize int64 = 16384
	MaxPieceSize int64 = 1 << 10

	// ChunksInPiece is fixed at 4: chunk_size = piece_size / 4.
	ChunksInPiece int64 = 4
)

// ChunkMap tracks, with one bit per chunk, which chunks of a storage map's
// data are locally present, and derives the piece-level geometry
// (chunk_size, piece_size, counts) purely from the storage's total size.
type ChunkMap struct {
	bitmap        *bitset.BitSet
	chunkSize     int64
	chunkCount    int64
	pieceSize     int64
	pieceCount    int64
	chunksInPiece int64
}

// New derives piece/chunk geometry from totalSize and constructs a
// ChunkMap with every chunk bit initialized to allSet — true for a
// freshly-constructed storage map backed by resources that already hold
// real bytes, false for one built to receive chunks from peers.
func New(totalSize int64, allSet bool) *ChunkMap {
	pieceSize := computePieceSize(totalSize)
	chunkSize := pieceSize >> 2
	pieceCount := divUpper(totalSize, pieceSize)
	chunksInPiece := divUpper(pieceSize, chunkSize)
	chunkCount := pieceCount * chunksInPiece

	bm := bitset.New(uint(chunkCount))
	if allSet {
		for i := int64(0); i < chunkCount; i++ {
			bm.Set(uint(i))
		}
	}

	return &ChunkMap{
		bitmap:        bm,
		chunkSize:     chunkSize,
		chunkCount:    chunkCount,
		pieceSize:     pieceSize,
		pieceCount:    pieceCount,
		chunksInPiece: chunksInPiece,
	}
}

// NewFromBitmap reconstructs a ChunkMap from a previously persisted packed
// bitmap and the geometry fields saved alongside it (used by the
// persistence envelope at Load time).
func NewFromBitmap(bitmapBytes []byte, chunkSize, chunkCount, pieceSize, pieceCount, chunksInPiece int64) *ChunkMap {
	bm := bitset.New(uint(chunkCount))
	for i := int64(0); i < chunkCount; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if int(byteIdx) < len(bitmapBytes) && bitmapBytes[byteIdx]&(1<<bitIdx) != 0 {
			bm.Set(uint(i))
		}
	}
	return &ChunkMap{
		bitmap:        bm,
		chunkSize:     chunkSize,
		chunkCount:    chunkCount,
		pieceSize:     pieceSize,
		pieceCount:    pieceCount,
		chunksInPiece: chunksInPiece,
	}
}

// computePieceSize mirrors the source's clamp(largest_power_of_two, MIN,
// MAX): because MaxPieceSize < MinPieceSize, max(min(value, MAX), MIN)
// always resolves to MinPieceSize regardless of totalSize. This is the
// open question flagged in DESIGN.md — the literal constants are
// preserved rather than "fixed", since the intended ordering can't be
// inferred with confidence.
func computePieceSize(totalSize int64) int64 {
	var value int64
	if totalSize > 0 {
		value = 1 << (bits.Len64(uint64(totalSize)) - 1)
	}
	return clampPieceSize(value)
}

func clampPieceSize(value int64) int64 {
	v := value
	if v > MaxPieceSize {
		v = MaxPieceSize
	}
	if v < MinPieceSize {
		v = MinPieceSize
	}
	return v
}

func divUpper(value, by int64) int64 {
	if by == 0 {
		return 0
	}
	return (value + by - 1) / by
}

// ChunkSize returns chunk_size = piece_size / 4.
func (c *ChunkMap) ChunkSize() int64 { return c.chunkSize }

// ChunkCount returns the total number of chunks.
func (c *ChunkMap) ChunkCount() int64 { return c.chunkCount }

// PieceSize returns the fixed piece size derived at construction.
func (c *ChunkMap) PieceSize() int64 { return c.pieceSize }

// PieceCount returns ⌈total_size / piece_size⌉.
func (c *ChunkMap) PieceCount() int64 { return c.pieceCount }

// ChunksInPiece returns the number of chunks grouped into one piece
// (always 4).
func (c *ChunkMap) ChunksInPiece() int64 { return c.chunksInPiece }

// Bytes returns the bitmap's packed byte representation (trailing bits
// zero), the form persisted by the storage-map envelope.
func (c *ChunkMap) Bytes() []byte {
	out := make([]byte, (c.chunkCount+7)/8)
	for i := int64(0); i < c.chunkCount; i++ {
		if c.bitmap.Test(uint(i)) {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// HasChunk reports whether chunk i is marked present.
func (c *ChunkMap) HasChunk(i int64) (bool, error) {
	if i < 0 || i >= c.chunkCount {
		return false, newErr(KindOutOfRange, fmt.Sprintf("chunk %d, chunk count %d", i, c.chunkCount))
	}
	return c.bitmap.Test(uint(i)), nil
}

// SetChunk marks chunk i present. It is unconditional and idempotent —
// callers wanting "refuse if already present" semantics (as write_chunk
// does) must check HasChunk first.
func (c *ChunkMap) SetChunk(i int64) error {
	if i < 0 || i >= c.chunkCount {
		return newErr(KindOutOfRange, fmt.Sprintf("chunk %d, chunk count %d", i, c.chunkCount))
	}
	c.bitmap.Set(uint(i))
	return nil
}

// HasPiece reports whether every chunk in piece p — the range
// [p*ChunksInPiece, p*ChunksInPiece+ChunksInPiece) — is marked present.
func (c *ChunkMap) HasPiece(p int64) (bool, error) {
	if p < 0 || p >= c.pieceCount {
		return false, newErr(KindOutOfRange, fmt.Sprintf("piece %d, piece count %d", p, c.pieceCount))
	}
	base := p * c.chunksInPiece
	for i := base; i < base+c.chunksInPiece; i++ {
		if !c.bitmap.Test(uint(i)) {
			return false, nil
		}
	}
	return true, nil
}

// PieceFromChunk returns the piece index a chunk belongs to.
func (c *ChunkMap) PieceFromChunk(chunk int64) int64 {
	return (chunk * c.chunkSize) / c.pieceSize
}
