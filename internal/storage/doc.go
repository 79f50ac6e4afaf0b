// Package storage implements the sharded storage layer of the verifiable
// storage map: an ordered list of fixed-size resources (see the resource
// subpackage) presenting one flat logical byte address space.
//
// # Address translation
//
// A Storage's address space is [0, TotalSize()). A request for a range
// [start, start+length) is translated into a View — an ordered list of
// (resource, shard) pairs — by walking the resource list once,
// accumulating a running offset, and carving out the overlap between the
// requested range and each resource's span. Read and Write translate to a
// View internally and issue one seek+read (or seek+write) per entry.
//
// # Failure semantics
//
// A view that cannot be built to cover the full requested length (the
// request runs past TotalSize) fails with a storage.Error of
// KindViewBuild, carrying the requested range and how far the walk
// actually got. Read/Write do not retry short reads or writes from the
// underlying handle — the returned count is the sum of whatever each
// shard operation returned, and an I/O error on any shard ends the
// operation immediately with whatever was written/read so far.
//
// # Iteration
//
// Iter produces a lazy, pull-based, non-restartable sequence of
// fixed-size blocks starting at offset 0, used to seed a Merkle tree's
// leaves from the whole storage in one streaming pass.
package storage
