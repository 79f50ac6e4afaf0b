// Package storage implements the sharded storage layer: an ordered list of
// fixed-size resources presenting one flat logical byte address space, and
// the lazy block iterator used to seed the Merkle tree. See doc.go for the
// full package overview.
package storage

import (
	"fmt"
	"io"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
)

// entry pairs a resource with the size Storage believes it has (the
// declared size at New time, which for an existing resource must match its
// actual on-disk size).
type entry struct {
	res  resource.Resource
	size int64
}

// Storage is an ordered collection of resources presenting a single
// logical address space [0, TotalSize()). Logical offset k maps onto
// exactly one resource by walking entries in order and accumulating sizes:
// resource i owns [Σ_{j<i} size_j, Σ_{j≤i} size_j). Insertion order is
// preserved and is part of Storage's identity — Locations() returns
// resources in this same order for persistence.
type Storage struct {
	name      string
	entries   []entry
	totalSize int64
}

// New opens or creates each item's resource in order, accumulating them
// into one Storage. An item whose location already exists is opened and
// its actual size checked against the declared size — a mismatch fails
// with KindSizeMismatch and no further items are processed. An item whose
// location does not exist is created at the declared size. Any resources
// already opened are closed before returning an error.
func New(name string, items []resource.Item) (*Storage, error) {
	entries := make([]entry, 0, len(items))
	var total int64

	closeAll := func() {
		for _, e := range entries {
			_ = e.res.Close()
		}
	}

	for _, it := range items {
		var (
			res resource.Resource
			err error
		)
		if resource.Exists(it.Location) {
			res, err = resource.Open(it.Location)
			if err != nil {
				closeAll()
				return nil, err
			}
			if res.Size() != it.Size {
				actual := res.Size()
				_ = res.Close()
				closeAll()
				return nil, newErr(KindSizeMismatch, fmt.Sprintf("%s: declared %d bytes, actual %d bytes", it.Location, it.Size, actual), nil)
			}
		} else {
			res, err = resource.Create(it.Location, it.Size)
			if err != nil {
				closeAll()
				return nil, err
			}
		}
		entries = append(entries, entry{res: res, size: it.Size})
		total += it.Size
	}

	return &Storage{name: name, entries: entries, totalSize: total}, nil
}

// Name returns the storage's identifying name.
func (s *Storage) Name() string { return s.name }

// TotalSize returns Σ resource.size over all resources.
func (s *Storage) TotalSize() int64 { return s.totalSize }

// Locations returns the ordered list of resource location strings, the
// form persisted by the storage-map envelope (sizes are not stored — they
// are recovered from the live resources at Load time).
func (s *Storage) Locations() []string {
	locs := make([]string, len(s.entries))
	for i, e := range s.entries {
		locs[i] = e.res.Location()
	}
	return locs
}

// Close closes every underlying resource, releasing its lock.
func (s *Storage) Close() error {
	var firstErr error
	for _, e := range s.entries {
		if err := e.res.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Read reads up to len(buf) bytes starting at offset, returning the number
// of bytes actually read. It fails if offset+len(buf) runs past
// TotalSize(); a short read from an individual resource's handle is
// propagated rather than retried, so the returned count may be less than
// len(buf) even without an error.
func (s *Storage) Read(offset int64, buf []byte) (int64, error) {
	view, err := s.buildView(offset, int64(len(buf)))
	if err != nil {
		return 0, err
	}

	var total int64
	for _, v := range view {
		n, err := readShard(v, buf[total:total+v.Shard.Size()])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Write writes len(src) bytes starting at offset, returning the number of
// bytes actually written. It fails if offset+len(src) runs past
// TotalSize(). A partial write followed by an error leaves the bytes
// already written in place — there is no cross-shard atomicity guarantee.
func (s *Storage) Write(offset int64, src []byte) (int64, error) {
	view, err := s.buildView(offset, int64(len(src)))
	if err != nil {
		return 0, err
	}

	var total int64
	for _, v := range view {
		n, err := writeShard(v, src[total:total+v.Shard.Size()])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func readShard(v ViewEntry, buf []byte) (int, error) {
	h := v.Resource.Handle()
	pos, err := h.Seek(v.Shard.Start, io.SeekStart)
	if err != nil {
		return 0, newErr(KindIO, fmt.Sprintf("seek %s", v.Resource.Location()), err)
	}
	if pos != v.Shard.Start {
		return 0, newErr(KindInvalidOffset, fmt.Sprintf("%s: wanted %d, landed at %d", v.Resource.Location(), v.Shard.Start, pos), nil)
	}
	n, err := h.Read(buf)
	if err != nil && err != io.EOF {
		return n, newErr(KindIO, fmt.Sprintf("read %s", v.Resource.Location()), err)
	}
	return n, nil
}

func writeShard(v ViewEntry, buf []byte) (int, error) {
	h := v.Resource.Handle()
	pos, err := h.Seek(v.Shard.Start, io.SeekStart)
	if err != nil {
		return 0, newErr(KindIO, fmt.Sprintf("seek %s", v.Resource.Location()), err)
	}
	if pos != v.Shard.Start {
		return 0, newErr(KindInvalidOffset, fmt.Sprintf("%s: wanted %d, landed at %d", v.Resource.Location(), v.Shard.Start, pos), nil)
	}
	n, err := h.Write(buf)
	if err != nil {
		return n, newErr(KindIO, fmt.Sprintf("write %s", v.Resource.Location()), err)
	}
	return n, nil
}
