package storage

import "github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"

// Shard names a byte range [Start, End) within one resource, in that
// resource's own local coordinates.
type Shard struct {
	Start int64
	End   int64
}

// Size returns End-Start, or 0 if End <= Start.
func (s Shard) Size() int64 {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// ViewEntry is one (resource, shard) pair in a View.
type ViewEntry struct {
	Resource      resource.Resource
	ResourceIndex int
	Shard         Shard
}

// View is the ordered sequence of (resource, shard) pairs covering a
// contiguous logical range of a Storage, in address order. Shard sizes sum
// to the requested length.
type View []ViewEntry

// buildView walks the resource list accumulating a running offset: a
// resource entirely before [start, start+len) contributes nothing; a
// resource entirely at-or-past the end stops the walk; a zero-size resource
// never contributes a shard regardless of where it falls; any remaining
// resource overlapping the range contributes the overlapping sub-range as a
// Shard. It fails with KindViewBuild if the accumulated contribution never
// reaches the requested length, i.e. the request runs past TotalSize().
func (s *Storage) buildView(start, length int64) (View, error) {
	end := start + length

	var (
		view     View
		offset   int64
		consumed int64
	)

	for i, e := range s.entries {
		if offset >= end {
			break
		}

		sz := e.size
		if sz == 0 {
			continue
		}
		if offset+sz <= start {
			offset += sz
			continue
		}

		shardStart := start - offset
		if shardStart < 0 {
			shardStart = 0
		}

		remaining := length - consumed
		contribution := sz - shardStart
		if contribution > remaining {
			contribution = remaining
		}

		view = append(view, ViewEntry{
			Resource:      e.res,
			ResourceIndex: i,
			Shard:         Shard{Start: shardStart, End: shardStart + contribution},
		})

		consumed += contribution
		offset += sz
	}

	if consumed != length {
		return nil, newViewBuildErr(start, end, offset)
	}

	return view, nil
}

// View returns the public read-only view over [start, start+length), for
// callers that want to inspect the shard partition directly rather than go
// through Read/Write.
func (s *Storage) View(start, length int64) (View, error) {
	return s.buildView(start, length)
}
