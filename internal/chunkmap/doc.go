// Package chunkmap is pure arithmetic plus a bit-packed presence bitmap —
// no I/O. Piece geometry is derived once from a storage's total size
// (computePieceSize, chunk_size = piece_size/4, piece_count =
// ⌈total_size/piece_size⌉) and never recomputed; the bitmap tracks which
// of the resulting chunks are locally present, with piece_from_chunk and
// has_piece translating between the chunk-level write granularity and the
// piece-level Merkle-tree commit granularity.
package chunkmap
